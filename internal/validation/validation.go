package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/fx"
)

var Module = fx.Module("validation",
	fx.Provide(New),
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// New returns a validator that reports JSON field names and knows the
// platform-specific tags.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	_ = v.RegisterValidation("subdomain", func(fl validator.FieldLevel) bool {
		return subdomainPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("pastdate", func(fl validator.FieldLevel) bool {
		parsed, err := time.Parse(time.DateOnly, fl.Field().String())
		if err != nil {
			return false
		}
		return parsed.Before(time.Now().UTC())
	})

	return v
}

// Issue is a single field-level validation failure.
type Issue struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Issues flattens validator errors into field issues. Non-validator errors yield nil.
func Issues(err error) []Issue {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, Issue{
			Field:   fieldPath(fe),
			Code:    fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid url"
	case "subdomain":
		return "must contain lowercase letters, digits or hyphens"
	case "pastdate":
		return "must be a date in the past (YYYY-MM-DD)"
	case "iso3166_1_alpha2":
		return "must be an ISO 3166-1 alpha-2 country code"
	default:
		return "is invalid"
	}
}

// Error is a request rejected by schema or business-rule validation.
type Error struct {
	Message string
	Issues  []Issue
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation_error"
}

// Fail builds an Error for a single field.
func Fail(field, code, msg string) error {
	return &Error{Issues: []Issue{{Field: field, Code: code, Message: msg}}}
}

// Failf builds an Error that carries a request-level message.
func Failf(msg string) error {
	return &Error{Message: msg}
}

// Check validates s and converts validator errors into *Error.
func Check(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	if issues := Issues(err); issues != nil {
		return &Error{Issues: issues}
	}
	return err
}

// As extracts the issues from err when it is a validation failure.
func As(err error) (*Error, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr, true
	}
	if issues := Issues(err); issues != nil {
		return &Error{Issues: issues}, true
	}
	return nil, false
}
