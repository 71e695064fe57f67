// Package idgen builds content item identifiers of the form
// <type>_<slug>_<token>.
package idgen

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Generator defines the interface for item id strategies
type Generator interface {
	// NewID creates an identifier for an item of the given type and slug
	NewID(contentType, slug string) string
}

// Format joins the id parts. The token is the only part that guarantees
// uniqueness; type and slug are there for readability.
func Format(contentType, slug, token string) string {
	return fmt.Sprintf("%s_%s_%s", contentType, slug, token)
}

// MonotonicGenerator uses the current unix time in milliseconds as the
// token. Tokens are strictly increasing within one generator, so two items
// created in the same millisecond still get distinct ids.
type MonotonicGenerator struct {
	// Now is the clock; defaults to time.Now.
	Now func() time.Time

	mu   sync.Mutex
	last int64
}

func NewMonotonicGenerator() *MonotonicGenerator {
	return &MonotonicGenerator{Now: time.Now}
}

func (g *MonotonicGenerator) NewID(contentType, slug string) string {
	return Format(contentType, slug, strconv.FormatInt(g.nextToken(), 10))
}

func (g *MonotonicGenerator) nextToken() int64 {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	ms := now().UnixMilli()

	g.mu.Lock()
	defer g.mu.Unlock()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return ms
}

// UUIDGenerator uses a random UUID as the token. Use it when several
// processes write to the same store.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID(contentType, slug string) string {
	return Format(contentType, slug, uuid.NewString())
}

// ForStrategy returns the generator registered under name.
func ForStrategy(name string) (Generator, error) {
	switch name {
	case "", "monotonic":
		return NewMonotonicGenerator(), nil
	case "uuid":
		return NewUUIDGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown id strategy: %s", name)
	}
}
