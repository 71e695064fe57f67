package seed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent"
)

// Document is the object form of a seed document.
type Document struct {
	Items []sitecontent.CreateItemRequest `json:"items"`
}

// Decode reads a seed document in either the array or the object form.
func Decode(r io.Reader) ([]sitecontent.CreateItemRequest, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read seed document: %w", err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("seed document is empty")
	}

	switch trimmed[0] {
	case '[':
		var items []sitecontent.CreateItemRequest
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode seed array: %w", err)
		}
		return items, nil
	case '{':
		var doc Document
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("decode seed document: %w", err)
		}
		if doc.Items == nil {
			return nil, errors.New(`seed document has no "items" array`)
		}
		return doc.Items, nil
	default:
		return nil, errors.New("seed document must be a JSON array or an object with an items array")
	}
}

// RequestFor turns a stored item back into the create request that would
// reproduce it. Server-owned fields are dropped.
func RequestFor(item *sitecontent.Item) sitecontent.CreateItemRequest {
	return sitecontent.CreateItemRequest{
		Type:     item.Type,
		Title:    item.Title,
		Slug:     item.Slug,
		Content:  item.Content,
		Metadata: item.Metadata,
		Status:   item.Status,
	}
}
