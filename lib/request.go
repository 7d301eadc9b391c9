package lib

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var tableNumberRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,20}$`)

func init() {
	// Table numbers/codes as printed on the QR cards: short, no whitespace.
	_ = validate.RegisterValidation("alphanum_dash", func(fl validator.FieldLevel) bool {
		return tableNumberRe.MatchString(fl.Field().String())
	})
}

// ValidTableNumber reports whether s is an acceptable table code.
func ValidTableNumber(s string) bool {
	return tableNumberRe.MatchString(s)
}

// FieldError represents a clean validation error for APIs
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is a structured validation error
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// ExtractAndValidateBody extracts and validates the request body into the provided struct type T
func ExtractAndValidateBody[T any](r *http.Request) (*T, error) {
	defer r.Body.Close()

	var body T

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&body); err != nil {
		return nil, err
	}

	if err := validate.Struct(body); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return nil, mapValidationErrors(ve)
		}
		return nil, err
	}

	return &body, nil
}

func mapValidationErrors(errs validator.ValidationErrors) *ValidationError {
	out := &ValidationError{}

	for _, e := range errs {
		field := strings.ToLower(e.Field())

		var message string
		switch e.Tag() {
		case "required":
			message = "is required"
		case "email":
			message = "must be a valid email address"
		case "uuid4":
			message = "must be a valid UUID"
		case "alphanum_dash":
			message = "must be a short alphanumeric code"
		case "min":
			message = "must be at least " + e.Param()
		case "max":
			message = "must be at most " + e.Param()
		case "gte":
			message = "must be greater than or equal to " + e.Param()
		case "lte":
			message = "must be less than or equal to " + e.Param()
		case "gt":
			message = "must be greater than " + e.Param()
		case "oneof":
			message = "must be one of: " + e.Param()
		default:
			message = "is invalid"
		}

		out.Errors = append(out.Errors, FieldError{
			Field:   field,
			Message: message,
		})
	}

	return out
}
