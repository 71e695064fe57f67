package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent"
)

// maxBodyBytes bounds request bodies, bulk seeds included.
const maxBodyBytes = 4 << 20

// ContentHandler handles HTTP requests for site content
type ContentHandler struct {
	service sitecontent.Service
	logger  *zap.Logger
}

// NewContentHandler creates a new content handler
func NewContentHandler(service sitecontent.Service, logger *zap.Logger) *ContentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentHandler{
		service: service,
		logger:  logger.Named("api"),
	}
}

// Routes returns the routes for content
func (h *ContentHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateItem)
	r.Get("/", h.ListItems)
	r.Post("/bulk", h.BulkCreateItems)
	r.Get("/slug/{slug}", h.GetItemBySlug)

	r.Get("/{id}", h.GetItem)
	r.Put("/{id}", h.UpdateItem)
	r.Delete("/{id}", h.DeleteItem)

	return r
}

// CreateItem creates a new item. Server-owned fields in the body are ignored.
func (h *ContentHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req sitecontent.CreateItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}

	item, err := h.service.CreateItem(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeData(w, r, http.StatusCreated, item)
}

// BulkCreateItems accepts a JSON array of create requests and reports which
// ones were rejected.
func (h *ContentHandler) BulkCreateItems(w http.ResponseWriter, r *http.Request) {
	var reqs []sitecontent.CreateItemRequest
	if err := decodeBody(w, r, &reqs); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}

	result, err := h.service.BulkCreateItems(r.Context(), reqs)
	if err != nil && result == nil {
		writeError(w, r, h.logger, err)
		return
	}

	created := result.Created()
	count := len(created)
	resp := SuccessResponse{Success: true, Data: created, Count: &count}
	for _, f := range result.Failed() {
		body := errorBody(f.Err)
		resp.Failures = append(resp.Failures, BulkFailure{
			Index:   f.Index,
			Error:   body.Error,
			Message: body.Message,
			Details: body.Details,
		})
	}

	writeJSON(w, r, http.StatusCreated, resp)
}

// ListItems lists items, optionally filtered by ?type= and ?status=
func (h *ContentHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	var req sitecontent.ListItemsRequest
	if v := r.URL.Query().Get("type"); v != "" {
		t := sitecontent.ContentType(v)
		req.Type = &t
	}
	if v := r.URL.Query().Get("status"); v != "" {
		s := sitecontent.ContentStatus(v)
		req.Status = &s
	}

	items, err := h.service.ListItems(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeList(w, r, items)
}

// GetItemBySlug finds an item by slug, optionally narrowed by ?type=
func (h *ContentHandler) GetItemBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var contentType *sitecontent.ContentType
	if v := r.URL.Query().Get("type"); v != "" {
		t := sitecontent.ContentType(v)
		contentType = &t
	}

	item, err := h.service.GetItemBySlug(r.Context(), slug, contentType)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeData(w, r, http.StatusOK, item)
}

// GetItem returns one item by id
func (h *ContentHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeData(w, r, http.StatusOK, item)
}

// UpdateItem applies a partial update. Supplying id, createdAt or updatedAt
// is rejected.
func (h *ContentHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req sitecontent.UpdateItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}

	item, err := h.service.UpdateItem(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeData(w, r, http.StatusOK, item)
}

// DeleteItem removes an item and returns the prior record
func (h *ContentHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, prior, err := h.service.DeleteItem(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if !deleted {
		writeError(w, r, h.logger, &sitecontent.ItemError{ID: id, Op: "delete", Err: sitecontent.ErrNotFound})
		return
	}

	writeData(w, r, http.StatusOK, DeleteResult{Deleted: true, Item: prior})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
