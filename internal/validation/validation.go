// Package validation checks service inputs against their length and shape rules.
// Rules are declared with `validate` struct tags and reported as domain.ValidationError.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/prn-tf/theory-forum/internal/domain"
)

// =============================================================================
// Limits
// =============================================================================

// Input length limits, counted in characters.
const (
	TitleMinLen     = 5
	TitleMaxLen     = 200
	ContentMinLen   = 10
	ContentMaxLen   = 20000
	CommentMinLen   = 3
	CommentMaxLen   = 5000
	SecretMinLen    = 6
	SecretMaxBytes  = 72
	UsernameMinLen  = 3
	UsernameMaxLen  = 64
	MaxEvidenceURLs = 20
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	_ = validate.RegisterValidation("httpurl", validateHTTPURL)
	_ = validate.RegisterValidation("notblank", validateNotBlank)
	_ = validate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateHTTPURL accepts absolute http and https URLs with a host.
func validateHTTPURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// validateNotBlank rejects strings made only of whitespace.
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// validateMaxBytes bounds the UTF-8 encoded length of a string.
// bcrypt refuses inputs longer than 72 bytes.
func validateMaxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// =============================================================================
// Validation
// =============================================================================

// Struct validates s and returns the first rule violation as a *domain.ValidationError.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return toDomain(verrs[0])
	}
	return fmt.Errorf("validation: %w", err)
}

// toDomain converts a validator failure into a human-readable domain error.
func toDomain(fe validator.FieldError) *domain.ValidationError {
	field := fe.Field()
	isList := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array

	var msg string
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "notblank":
		msg = "must not be blank"
	case "min":
		if isList {
			msg = fmt.Sprintf("must contain at least %s items", fe.Param())
		} else {
			msg = fmt.Sprintf("must be at least %s characters", fe.Param())
		}
	case "max":
		if isList {
			msg = fmt.Sprintf("must contain at most %s items", fe.Param())
		} else {
			msg = fmt.Sprintf("must be at most %s characters", fe.Param())
		}
	case "maxbytes":
		msg = fmt.Sprintf("must be at most %s bytes", fe.Param())
	case "httpurl":
		msg = "must be an absolute http or https URL"
	case "oneof":
		msg = fmt.Sprintf("must be one of %s", fe.Param())
	case "gt":
		msg = fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		msg = fmt.Sprintf("failed the %q rule", fe.Tag())
	}
	return domain.NewValidationError(field, msg)
}

// Field validates a single value against tag and reports failures under name.
func Field(name string, value any, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		verr := toDomain(verrs[0])
		verr.Field = name
		return verr
	}
	return fmt.Errorf("validation: %w", err)
}
