package sitecontent

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report json names so errors match what callers sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "content_type", func(fl validator.FieldLevel) bool {
		return ContentType(fl.Field().String()).IsValid()
	})
	mustRegister(v, "content_status", func(fl validator.FieldLevel) bool {
		return ContentStatus(fl.Field().String()).IsValid()
	})
	mustRegister(v, "timestamp", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.RFC3339Nano, fl.Field().String())
		return err == nil
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("sitecontent: register validation %q: %v", tag, err))
	}
}

// ValidateItem checks a complete record. An empty status is treated as the
// default status.
func ValidateItem(item Item) error {
	if item.Status == "" {
		item.Status = DefaultStatus
	}
	return structErrors(validate.Struct(item))
}

// ValidateCreate checks a create request.
func ValidateCreate(req CreateItemRequest) error {
	return structErrors(validate.Struct(req))
}

// ValidateUpdate checks a partial update. Every supplied field must be valid
// and the server-owned fields must be absent.
func ValidateUpdate(req UpdateItemRequest) error {
	verr := &ValidationError{}

	if req.ID != nil {
		verr.add("id", "is assigned by the server and cannot be updated")
	}
	if req.CreatedAt != nil {
		verr.add("createdAt", "is assigned by the server and cannot be updated")
	}
	if req.UpdatedAt != nil {
		verr.add("updatedAt", "is assigned by the server and cannot be updated")
	}
	if req.Type != nil {
		checkVar(verr, "type", string(*req.Type), "required,content_type")
	}
	if req.Title != nil {
		checkVar(verr, "title", *req.Title, "required")
	}
	if req.Slug != nil {
		checkVar(verr, "slug", *req.Slug, "required")
	}
	if req.Content != nil && *req.Content == nil {
		verr.add("content", "is required")
	}
	if req.Status != nil {
		checkVar(verr, "status", string(*req.Status), "required,content_status")
	}
	return verr.orNil()
}

func checkVar(verr *ValidationError, field string, value any, tag string) {
	err := validate.Var(value, tag)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.add(field, err.Error())
		return
	}
	for _, fe := range fieldErrs {
		verr.add(field, reasonFor(fe))
	}
}

func structErrors(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Fields: []FieldError{{Field: "", Reason: err.Error()}}}
	}
	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.add(fe.Field(), reasonFor(fe))
	}
	return verr.orNil()
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "content_type":
		return fmt.Sprintf("must be one of %s", joinValues(ContentTypes))
	case "content_status":
		return fmt.Sprintf("must be one of %s", joinValues(ContentStatuses))
	case "timestamp":
		return "must be an ISO-8601 timestamp"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
