package sitecontent

import "context"

// Publish sets an item's status to published.
func Publish(ctx context.Context, svc Service, id string) (*Item, error) {
	return setStatus(ctx, svc, id, ContentStatusPublished)
}

// Archive sets an item's status to archived.
func Archive(ctx context.Context, svc Service, id string) (*Item, error) {
	return setStatus(ctx, svc, id, ContentStatusArchived)
}

// ListPublished returns the published items of one type, or of every type
// when contentType is empty.
func ListPublished(ctx context.Context, svc Service, contentType ContentType) ([]*Item, error) {
	status := ContentStatusPublished
	req := ListItemsRequest{Status: &status}
	if contentType != "" {
		req.Type = &contentType
	}
	return svc.ListItems(ctx, req)
}

func setStatus(ctx context.Context, svc Service, id string, status ContentStatus) (*Item, error) {
	return svc.UpdateItem(ctx, id, UpdateItemRequest{Status: &status})
}
