package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mkrupp/publishing/internal/domain"
)

const (
	ReasonEmptyBody   = "The request body cannot be empty!"
	ReasonBodyTooBig  = "The request body is too large!"
	ReasonInvalidID   = "Validation failed (positive integer id is expected)"
	ReasonInvalidJSON = "The request body is not valid JSON!"
)

//nolint:gochecknoglobals
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// PathID parses the named path value as a positive integer id.
func PathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	if raw == "" || raw[0] < '0' || raw[0] > '9' {
		return 0, domain.NewReasonError(domain.ErrBadInput, ReasonInvalidID)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewReasonError(domain.ErrBadInput, ReasonInvalidID)
	}

	return id, nil
}

// DecodeJSON decodes the request body into dst and validates it against its
// `validate` struct tags. Empty, oversized, malformed or invalid bodies yield
// a domain.ErrBadInput reason error.
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBodySize int64, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError

		switch {
		case errors.Is(err, io.EOF):
			return domain.NewReasonError(domain.ErrBadInput, ReasonEmptyBody)
		case errors.As(err, &maxBytesErr):
			return domain.NewReasonError(domain.ErrBadInput, ReasonBodyTooBig)
		default:
			return errors.Join(domain.NewReasonError(domain.ErrBadInput, ReasonInvalidJSON), err)
		}
	}

	if dec.More() {
		return domain.NewReasonError(domain.ErrBadInput, ReasonInvalidJSON)
	}

	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}

	return nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate: %w", err)
	}

	messages := make([]string, 0, len(fieldErrs))

	for _, fieldErr := range fieldErrs {
		switch fieldErr.Tag() {
		case "required":
			messages = append(messages, fieldErr.Field()+" should not be empty")
		case "url":
			messages = append(messages, fieldErr.Field()+" must be a URL address")
		case "gt":
			messages = append(messages, fieldErr.Field()+" must be a positive number")
		default:
			messages = append(messages, fmt.Sprintf("%s failed on %s", fieldErr.Field(), fieldErr.Tag()))
		}
	}

	return domain.NewReasonError(domain.ErrBadInput, strings.Join(messages, ", "))
}
