package sitecontent

import "context"

// Service defines the main interface for site content management
type Service interface {
	CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error)
	GetItem(ctx context.Context, id string) (*Item, error)
	GetItemBySlug(ctx context.Context, slug string, contentType *ContentType) (*Item, error)
	ListItems(ctx context.Context, req ListItemsRequest) ([]*Item, error)
	UpdateItem(ctx context.Context, id string, req UpdateItemRequest) (*Item, error)

	// DeleteItem reports whether an item was removed and returns the prior
	// record when it was.
	DeleteItem(ctx context.Context, id string) (bool, *Item, error)

	// BulkCreateItems creates items one at a time in input order. A failed
	// item is recorded in the result and never stops the batch.
	BulkCreateItems(ctx context.Context, reqs []CreateItemRequest) (*BulkCreateResult, error)
}
