package sitecontent

import "time"

// ContentType is the kind of a content item. It decides how consumers read
// Content but is never checked against a type-specific schema.
type ContentType string

// Content type constants (typed).
const (
	ContentTypePage       ContentType = "page"
	ContentTypePost       ContentType = "post"
	ContentTypeProject    ContentType = "project"
	ContentTypeService    ContentType = "service"
	ContentTypeTeamMember ContentType = "team-member"
)

// ContentTypes lists every accepted content type in declaration order.
var ContentTypes = []ContentType{
	ContentTypePage,
	ContentTypePost,
	ContentTypeProject,
	ContentTypeService,
	ContentTypeTeamMember,
}

// IsValid reports whether t is one of the known content types.
func (t ContentType) IsValid() bool {
	for _, known := range ContentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ContentStatus is the publishing state of a content item.
type ContentStatus string

// Content status constants (typed).
const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusPublished ContentStatus = "published"
	ContentStatusArchived  ContentStatus = "archived"
)

// DefaultStatus is applied when a create request leaves Status empty.
const DefaultStatus = ContentStatusDraft

// ContentStatuses lists every accepted status in declaration order.
var ContentStatuses = []ContentStatus{
	ContentStatusDraft,
	ContentStatusPublished,
	ContentStatusArchived,
}

// IsValid reports whether s is one of the known statuses.
func (s ContentStatus) IsValid() bool {
	for _, known := range ContentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// TimestampLayout is the ISO-8601 layout used for CreatedAt and UpdatedAt.
// Fixed millisecond precision keeps the strings lexically sortable.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Item is a single persisted content record.
//
// ID, CreatedAt and UpdatedAt are owned by the service. Content and Metadata
// are opaque documents whose shape depends on Type.
type Item struct {
	ID        string         `json:"id" dynamodbav:"id" validate:"required"`
	Type      ContentType    `json:"type" dynamodbav:"type" validate:"required,content_type"`
	Title     string         `json:"title" dynamodbav:"title" validate:"required"`
	Slug      string         `json:"slug" dynamodbav:"slug" validate:"required"`
	Content   map[string]any `json:"content" dynamodbav:"content" validate:"required"`
	Metadata  map[string]any `json:"metadata,omitempty" dynamodbav:"metadata,omitempty"`
	Status    ContentStatus  `json:"status" dynamodbav:"status" validate:"required,content_status"`
	CreatedAt string         `json:"createdAt,omitempty" dynamodbav:"createdAt,omitempty" validate:"omitempty,timestamp"`
	UpdatedAt string         `json:"updatedAt,omitempty" dynamodbav:"updatedAt,omitempty" validate:"omitempty,timestamp"`
}

// Clone returns a deep copy of the item so callers and stores never share
// the nested Content or Metadata maps.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	c := *i
	c.Content = cloneDocument(i.Content)
	c.Metadata = cloneDocument(i.Metadata)
	return &c
}

func cloneDocument(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneDocument(val)
	case []any:
		out := make([]any, len(val))
		for i := range val {
			out[i] = cloneValue(val[i])
		}
		return out
	default:
		return val
	}
}
