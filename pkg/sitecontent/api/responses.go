package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent"
)

// SuccessResponse is the envelope of every successful response
type SuccessResponse struct {
	Success  bool          `json:"success"`
	Data     any           `json:"data"`
	Count    *int          `json:"count,omitempty"`
	Failures []BulkFailure `json:"failures,omitempty"`
}

// ErrorResponse is the envelope of every failed response
type ErrorResponse struct {
	Success bool                     `json:"success"`
	Error   string                   `json:"error"`
	Message string                   `json:"message"`
	Details []sitecontent.FieldError `json:"details,omitempty"`
}

// BulkFailure reports one rejected input of a bulk create
type BulkFailure struct {
	Index   int                      `json:"index"`
	Error   string                   `json:"error"`
	Message string                   `json:"message"`
	Details []sitecontent.FieldError `json:"details,omitempty"`
}

// DeleteResult is the data of a successful delete
type DeleteResult struct {
	Deleted bool              `json:"deleted"`
	Item    *sitecontent.Item `json:"item"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func writeData(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSON(w, r, status, SuccessResponse{Success: true, Data: data})
}

func writeList(w http.ResponseWriter, r *http.Request, items []*sitecontent.Item) {
	count := len(items)
	writeJSON(w, r, http.StatusOK, SuccessResponse{Success: true, Data: items, Count: &count})
}

// statusFor maps an error category to its HTTP status
func statusFor(category sitecontent.ErrorCategory) int {
	switch category {
	case sitecontent.CategoryValidation:
		return http.StatusBadRequest
	case sitecontent.CategoryDuplicate:
		return http.StatusConflict
	case sitecontent.CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) ErrorResponse {
	category := sitecontent.Category(err)
	resp := ErrorResponse{Error: string(category), Message: err.Error()}

	var verr *sitecontent.ValidationError
	if errors.As(err, &verr) {
		resp.Message = "request validation failed"
		resp.Details = verr.Fields
	}
	if statusFor(category) == http.StatusInternalServerError {
		resp.Message = "the content store could not complete the request"
	}
	return resp
}

func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status := statusFor(sitecontent.Category(err))
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err))
	}

	writeJSON(w, r, status, errorBody(err))
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeJSON(w, r, http.StatusBadRequest, ErrorResponse{
		Error:   string(sitecontent.CategoryValidation),
		Message: message,
	})
}
