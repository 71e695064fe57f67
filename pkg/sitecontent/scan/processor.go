package scan

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"sync"

	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent"
	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent/seed"
)

// ItemProcessor handles one item found by a scan. Returning an error marks
// the item failed; the scan continues.
type ItemProcessor interface {
	Process(ctx context.Context, item *sitecontent.Item) error
}

// ProcessorFunc adapts a function to ItemProcessor.
type ProcessorFunc func(context.Context, *sitecontent.Item) error

func (f ProcessorFunc) Process(ctx context.Context, item *sitecontent.Item) error {
	return f(ctx, item)
}

// Exporter collects items as create requests so they can be written out as
// a seed document and loaded elsewhere.
type Exporter struct {
	mu    sync.Mutex
	items []sitecontent.CreateItemRequest
}

func (e *Exporter) Process(_ context.Context, item *sitecontent.Item) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = append(e.items, seed.RequestFor(item))
	return nil
}

// Len reports how many items have been collected.
func (e *Exporter) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.items)
}

// WriteTo writes the collected items in the object form of a seed document.
func (e *Exporter) WriteTo(w io.Writer) (int64, error) {
	e.mu.Lock()
	doc := seed.Document{Items: e.items}
	if doc.Items == nil {
		doc.Items = []sitecontent.CreateItemRequest{}
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	e.mu.Unlock()
	if err != nil {
		return 0, err
	}

	n, err := w.Write(append(raw, '\n'))
	return int64(n), err
}

// Stats counts items by type and by status.
type Stats struct {
	mu       sync.Mutex
	total    int
	byType   map[sitecontent.ContentType]int
	byStatus map[sitecontent.ContentStatus]int
}

// NewStats creates an empty Stats processor.
func NewStats() *Stats {
	return &Stats{
		byType:   make(map[sitecontent.ContentType]int),
		byStatus: make(map[sitecontent.ContentStatus]int),
	}
}

func (s *Stats) Process(_ context.Context, item *sitecontent.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	s.byType[item.Type]++
	s.byStatus[item.Status]++
	return nil
}

// Count is one row of a Stats summary.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Summary is a snapshot of the counters, sorted by key.
type Summary struct {
	Total    int     `json:"total"`
	ByType   []Count `json:"byType"`
	ByStatus []Count `json:"byStatus"`
}

// Summary returns the current counts.
func (s *Stats) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{Total: s.total}
	for k, v := range s.byType {
		sum.ByType = append(sum.ByType, Count{Key: string(k), Count: v})
	}
	for k, v := range s.byStatus {
		sum.ByStatus = append(sum.ByStatus, Count{Key: string(k), Count: v})
	}
	sort.Slice(sum.ByType, func(i, j int) bool { return sum.ByType[i].Key < sum.ByType[j].Key })
	sort.Slice(sum.ByStatus, func(i, j int) bool { return sum.ByStatus[i].Key < sum.ByStatus[j].Key })
	return sum
}

// StatusSetter moves every processed item to one status, e.g. to publish or
// archive a whole content type in one pass.
type StatusSetter struct {
	Service sitecontent.Service
	Status  sitecontent.ContentStatus
}

func (p StatusSetter) Process(ctx context.Context, item *sitecontent.Item) error {
	if item.Status == p.Status {
		return nil
	}
	status := p.Status
	_, err := p.Service.UpdateItem(ctx, item.ID, sitecontent.UpdateItemRequest{Status: &status})
	return err
}
