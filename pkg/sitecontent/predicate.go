package sitecontent

import "fmt"

// Field names an item attribute that can appear in a filter or an
// assignment. Backends map each Field to their own column or attribute name.
type Field int

const (
	FieldID Field = iota + 1
	FieldType
	FieldTitle
	FieldSlug
	FieldContent
	FieldMetadata
	FieldStatus
	FieldCreatedAt
	FieldUpdatedAt
)

// Name returns the canonical attribute name, matching the item's json tags.
func (f Field) Name() string {
	switch f {
	case FieldID:
		return "id"
	case FieldType:
		return "type"
	case FieldTitle:
		return "title"
	case FieldSlug:
		return "slug"
	case FieldContent:
		return "content"
	case FieldMetadata:
		return "metadata"
	case FieldStatus:
		return "status"
	case FieldCreatedAt:
		return "createdAt"
	case FieldUpdatedAt:
		return "updatedAt"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

func (f Field) String() string {
	return f.Name()
}

// Mutable reports whether f may appear in an Assignments set.
func (f Field) Mutable() bool {
	switch f {
	case FieldID, FieldCreatedAt:
		return false
	}
	return f >= FieldID && f <= FieldUpdatedAt
}

// Predicate is a single equality test.
type Predicate struct {
	Field Field
	Value string
}

// Filter is a conjunction of equality predicates. The zero Filter matches
// every item.
type Filter struct {
	predicates []Predicate
}

// Where starts a filter with one predicate.
func Where(field Field, value string) Filter {
	return Filter{}.And(field, value)
}

// And returns a copy of f with one more predicate.
func (f Filter) And(field Field, value string) Filter {
	preds := make([]Predicate, len(f.predicates), len(f.predicates)+1)
	copy(preds, f.predicates)
	return Filter{predicates: append(preds, Predicate{Field: field, Value: value})}
}

// Predicates returns the predicates in the order they were added.
func (f Filter) Predicates() []Predicate {
	out := make([]Predicate, len(f.predicates))
	copy(out, f.predicates)
	return out
}

// IsEmpty reports whether the filter matches everything.
func (f Filter) IsEmpty() bool {
	return len(f.predicates) == 0
}

// Matches evaluates the filter against an item in memory.
func (f Filter) Matches(item *Item) bool {
	for _, p := range f.predicates {
		v, ok := item.stringField(p.Field)
		if !ok || v != p.Value {
			return false
		}
	}
	return true
}

// FilterFor converts a list request into a Filter.
func FilterFor(req ListItemsRequest) Filter {
	var f Filter
	if req.Type != nil {
		f = f.And(FieldType, string(*req.Type))
	}
	if req.Status != nil {
		f = f.And(FieldStatus, string(*req.Status))
	}
	return f
}

// Assignment sets one field to a value.
type Assignment struct {
	Field Field
	Value any
}

// Assignments is an ordered set of field assignments. A later assignment to
// the same field replaces the earlier one.
type Assignments struct {
	items []Assignment
}

// Set starts an assignment set.
func Set(field Field, value any) Assignments {
	return Assignments{}.Set(field, value)
}

// Set returns a copy of a with field assigned to value.
func (a Assignments) Set(field Field, value any) Assignments {
	out := make([]Assignment, 0, len(a.items)+1)
	for _, existing := range a.items {
		if existing.Field != field {
			out = append(out, existing)
		}
	}
	return Assignments{items: append(out, Assignment{Field: field, Value: value})}
}

// Items returns the assignments in the order they were set.
func (a Assignments) Items() []Assignment {
	out := make([]Assignment, len(a.items))
	copy(out, a.items)
	return out
}

// Len returns the number of assignments.
func (a Assignments) Len() int {
	return len(a.items)
}

// Validate rejects assignments to immutable or unknown fields and values of
// the wrong Go type.
func (a Assignments) Validate() error {
	for _, as := range a.items {
		if !as.Field.Mutable() {
			return fmt.Errorf("field %s cannot be assigned", as.Field)
		}
		switch as.Field {
		case FieldContent, FieldMetadata:
			if _, ok := as.Value.(map[string]any); !ok && as.Value != nil {
				return fmt.Errorf("field %s requires a document value, got %T", as.Field, as.Value)
			}
		default:
			if _, ok := stringValue(as.Value); !ok {
				return fmt.Errorf("field %s requires a string value, got %T", as.Field, as.Value)
			}
		}
	}
	return nil
}

// Apply writes the assignments onto item. Callers must Validate first.
func (a Assignments) Apply(item *Item) {
	for _, as := range a.items {
		switch as.Field {
		case FieldType:
			s, _ := stringValue(as.Value)
			item.Type = ContentType(s)
		case FieldTitle:
			item.Title, _ = stringValue(as.Value)
		case FieldSlug:
			item.Slug, _ = stringValue(as.Value)
		case FieldStatus:
			s, _ := stringValue(as.Value)
			item.Status = ContentStatus(s)
		case FieldUpdatedAt:
			item.UpdatedAt, _ = stringValue(as.Value)
		case FieldContent:
			doc, _ := as.Value.(map[string]any)
			item.Content = cloneDocument(doc)
		case FieldMetadata:
			doc, _ := as.Value.(map[string]any)
			item.Metadata = cloneDocument(doc)
		}
	}
}

func stringValue(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case ContentType:
		return string(s), true
	case ContentStatus:
		return string(s), true
	default:
		return "", false
	}
}

func (i *Item) stringField(f Field) (string, bool) {
	switch f {
	case FieldID:
		return i.ID, true
	case FieldType:
		return string(i.Type), true
	case FieldTitle:
		return i.Title, true
	case FieldSlug:
		return i.Slug, true
	case FieldStatus:
		return string(i.Status), true
	case FieldCreatedAt:
		return i.CreatedAt, true
	case FieldUpdatedAt:
		return i.UpdatedAt, true
	default:
		return "", false
	}
}

// assignmentsFor turns a validated update request into assignments, always
// refreshing updatedAt.
func assignmentsFor(req UpdateItemRequest, updatedAt string) Assignments {
	var set Assignments
	if req.Type != nil {
		set = set.Set(FieldType, *req.Type)
	}
	if req.Title != nil {
		set = set.Set(FieldTitle, *req.Title)
	}
	if req.Slug != nil {
		set = set.Set(FieldSlug, *req.Slug)
	}
	if req.Content != nil {
		set = set.Set(FieldContent, *req.Content)
	}
	if req.Metadata != nil {
		if *req.Metadata == nil {
			set = set.Set(FieldMetadata, nil)
		} else {
			set = set.Set(FieldMetadata, *req.Metadata)
		}
	}
	if req.Status != nil {
		set = set.Set(FieldStatus, *req.Status)
	}
	return set.Set(FieldUpdatedAt, updatedAt)
}
