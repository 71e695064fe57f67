package sitecontent

import "context"

// Repository is the storage contract every backend implements. It exposes
// only key-value primitives plus an equality scan; anything richer is built
// in the service.
type Repository interface {
	// PutIfAbsent stores item unless a record with the same id exists, in
	// which case it returns ErrDuplicateKey.
	PutIfAbsent(ctx context.Context, item *Item) error

	// Get returns the record for id or ErrNotFound.
	Get(ctx context.Context, id string) (*Item, error)

	// Scan returns every record matching filter. Order is backend-defined
	// but stable for an unchanged store.
	Scan(ctx context.Context, filter Filter) ([]*Item, error)

	// Update applies set to an existing record and returns the full record
	// as written. A missing record yields ErrNotFound and nothing is created.
	Update(ctx context.Context, id string, set Assignments) (*Item, error)

	// Delete removes the record and returns what was stored, or ErrNotFound.
	Delete(ctx context.Context, id string) (*Item, error)
}

// IDGenerator produces item identifiers.
type IDGenerator interface {
	NewID(contentType, slug string) string
}

// EventSink defines the interface for event handling
type EventSink interface {
	// ItemCreated is fired after an item is stored
	ItemCreated(ctx context.Context, item *Item) error

	// ItemUpdated is fired after an item is updated
	ItemUpdated(ctx context.Context, item *Item) error

	// ItemDeleted is fired after an item is removed; item is the prior record
	ItemDeleted(ctx context.Context, item *Item) error
}
