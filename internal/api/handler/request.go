package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/Rrens/teamhub/internal/access"
	"github.com/Rrens/teamhub/internal/api/middleware"
	"github.com/Rrens/teamhub/internal/domain"
	"github.com/Rrens/teamhub/internal/pkg/apperr"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields under their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "eqfield":
		return "Password fields didn't match."
	case "min":
		return "Ensure this field has at least " + e.Param() + " elements."
	case "max":
		return "Ensure this field has no more than " + e.Param() + " characters."
	case "oneof":
		return fmt.Sprintf("\"%v\" is not a valid choice.", e.Value())
	case "gt":
		return "Ensure this value is greater than " + e.Param() + "."
	default:
		return "Validation failed on " + e.Tag() + "."
	}
}

// decode reads a JSON body into dst and validates it
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("invalid request body")
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return apperr.Validation(err.Error())
		}

		fieldErrs := make([]apperr.FieldError, 0, len(validationErrors))
		for _, e := range validationErrors {
			field := e.Field()
			// eqfield failures belong to the field being compared against
			if e.Tag() == "eqfield" {
				field = "password"
			}
			fieldErrs = append(fieldErrs, apperr.FieldError{Field: field, Message: fieldMessage(e)})
		}
		return apperr.Validation(fieldErrs[0].Message).WithFieldErrors(fieldErrs)
	}
	return nil
}

func principal(r *http.Request) (access.Principal, error) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		return access.Principal{}, apperr.Unauthorized("Authentication credentials were not provided.")
	}
	return p, nil
}

// pathUUID parses a UUID path parameter; a malformed one matches nothing
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.NotFound("")
	}
	return id, nil
}

func pageRequest(r *http.Request) domain.PageRequest {
	q := r.URL.Query()
	page := domain.PageRequest{}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		page.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil {
		page.Offset = offset
	}
	return page.Normalize()
}

func queryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.FieldValidation(name, "Enter a valid UUID.")
	}
	return &id, nil
}

func queryBool(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.FieldValidation(name, "Enter a valid boolean.")
	}
	return &v, nil
}

func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperr.FieldValidation(name, "Enter a whole number.")
	}
	return &v, nil
}
