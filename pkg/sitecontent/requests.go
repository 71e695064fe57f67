package sitecontent

import (
	"bytes"
	"encoding/json"
)

// Request/Response DTOs

// CreateItemRequest contains the caller-supplied fields of a new item.
// Server-assigned fields (id, createdAt, updatedAt) have no place here; the
// JSON decoder drops them if a caller sends them anyway.
type CreateItemRequest struct {
	Type     ContentType    `json:"type" validate:"required,content_type"`
	Title    string         `json:"title" validate:"required"`
	Slug     string         `json:"slug" validate:"required"`
	Content  map[string]any `json:"content" validate:"required"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Status   ContentStatus  `json:"status,omitempty" validate:"omitempty,content_status"`
}

// UpdateItemRequest is a partial update. Nil fields are left untouched.
//
// ID, CreatedAt and UpdatedAt are present only so a request that tries to
// set them can be rejected by ValidateUpdate.
type UpdateItemRequest struct {
	ID        *string `json:"id,omitempty"`
	CreatedAt *string `json:"createdAt,omitempty"`
	UpdatedAt *string `json:"updatedAt,omitempty"`

	Type     *ContentType    `json:"type,omitempty"`
	Title    *string         `json:"title,omitempty"`
	Slug     *string         `json:"slug,omitempty"`
	Content  *map[string]any `json:"content,omitempty"`
	Metadata *map[string]any `json:"metadata,omitempty"`
	Status   *ContentStatus  `json:"status,omitempty"`
}

// UnmarshalJSON decodes a partial update. Unlike the default decoder it keeps
// an explicit null for content or metadata: Metadata then points at a nil
// map, which clears the stored metadata, and Content does the same so that
// ValidateUpdate can reject it.
func (r *UpdateItemRequest) UnmarshalJSON(data []byte) error {
	type plain UpdateItemRequest
	var req plain
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, dst := range map[string]**map[string]any{"content": &req.Content, "metadata": &req.Metadata} {
		if v, ok := raw[key]; ok && *dst == nil && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			var none map[string]any
			*dst = &none
		}
	}

	*r = UpdateItemRequest(req)
	return nil
}

// IsEmpty reports whether the request carries no mutable field.
func (r UpdateItemRequest) IsEmpty() bool {
	return r.Type == nil && r.Title == nil && r.Slug == nil &&
		r.Content == nil && r.Metadata == nil && r.Status == nil
}

// ListItemsRequest filters ListItems. Nil fields do not filter.
type ListItemsRequest struct {
	Type   *ContentType
	Status *ContentStatus
}

// BulkItemOutcome records what happened to one input of BulkCreateItems.
// Exactly one of Item and Err is set.
type BulkItemOutcome struct {
	Index int
	Input CreateItemRequest
	Item  *Item
	Err   error
}

// BulkCreateResult holds one outcome per input, in input order.
type BulkCreateResult struct {
	Outcomes []BulkItemOutcome
}

// Created returns the successfully created items in input order.
func (r *BulkCreateResult) Created() []*Item {
	items := make([]*Item, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Err == nil && o.Item != nil {
			items = append(items, o.Item)
		}
	}
	return items
}

// Failed returns the outcomes whose item was not created.
func (r *BulkCreateResult) Failed() []BulkItemOutcome {
	var failed []BulkItemOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}
