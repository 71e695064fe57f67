package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent"
)

// Repository implements sitecontent.Repository using in-memory storage.
// Scan returns items in insertion order.
type Repository struct {
	mu    sync.RWMutex
	items map[string]*sitecontent.Item
	order []string
}

// New creates a new in-memory repository
func New() sitecontent.Repository {
	return &Repository{
		items: make(map[string]*sitecontent.Item),
	}
}

func (r *Repository) PutIfAbsent(ctx context.Context, item *sitecontent.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return fmt.Errorf("%w: %s", sitecontent.ErrDuplicateKey, item.ID)
	}
	r.items[item.ID] = item.Clone()
	r.order = append(r.order, item.ID)
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*sitecontent.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[id]
	if !exists {
		return nil, sitecontent.ErrNotFound
	}
	return item.Clone(), nil
}

func (r *Repository) Scan(ctx context.Context, filter sitecontent.Filter) ([]*sitecontent.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*sitecontent.Item, 0)
	for _, id := range r.order {
		item := r.items[id]
		if filter.Matches(item) {
			result = append(result, item.Clone())
		}
	}
	return result, nil
}

func (r *Repository) Update(ctx context.Context, id string, set sitecontent.Assignments) (*sitecontent.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, exists := r.items[id]
	if !exists {
		return nil, sitecontent.ErrNotFound
	}

	updated := item.Clone()
	set.Apply(updated)
	r.items[id] = updated
	return updated.Clone(), nil
}

func (r *Repository) Delete(ctx context.Context, id string) (*sitecontent.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, exists := r.items[id]
	if !exists {
		return nil, sitecontent.ErrNotFound
	}
	delete(r.items, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return item, nil
}

// Len returns the number of stored items.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
