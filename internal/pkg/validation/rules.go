package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/parivartan/hub/internal/pkg/apperrors"
)

// Validation rule patterns
var (
	// Email validation pattern
	EmailPattern = `^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`

	// Handle pattern: lowercase letters, digits, dot and underscore
	HandlePattern = `^[a-z0-9._]{3,30}$`

	// Password min length
	PasswordMinLength = 8
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	Email  *regexp.Regexp
	Handle *regexp.Regexp
}{
	Email:  regexp.MustCompile(EmailPattern),
	Handle: regexp.MustCompile(HandlePattern),
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	RegisterRules(v)
	return v
}

// RegisterRules adds the custom tags to v. gin's binding engine gets them
// through this too.
func RegisterRules(v *validator.Validate) {
	// notblank_trim rejects strings that are empty after trimming whitespace.
	_ = v.RegisterValidation("notblank_trim", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || CompiledPatterns.Handle.MatchString(s)
	})
}

// Validator exposes the shared instance so gin's binding can reuse the custom tags.
func Validator() *validator.Validate {
	return validate
}

// Struct validates a request struct and converts the first failure into a field validation error.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperrors.NewValidationError(fe.Field(), FormatFieldError(fe))
	}
	return apperrors.NewCustomError(apperrors.ErrValidationFailed, err.Error())
}

// FormatFieldError creates a human-readable validation error message
func FormatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank_trim":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "email":
		return e.Field() + " must be a valid email"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "handle":
		return e.Field() + " may only contain lowercase letters, digits, dots and underscores (3-30 chars)"
	default:
		return fmt.Sprintf("%s failed on %s", e.Field(), e.Tag())
	}
}

// RequireText trims the value and fails when nothing remains.
func RequireText(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", apperrors.NewValidationError(field, field+" is required")
	}
	return trimmed, nil
}

// RequirePositive fails for zero, negative and NaN amounts.
func RequirePositive(field string, value float64) error {
	if !(value > 0) {
		return apperrors.NewValidationError(field, field+" must be a positive number")
	}
	return nil
}

// ValidEmail reports whether the lowercased email matches EmailPattern.
func ValidEmail(email string) bool {
	return CompiledPatterns.Email.MatchString(strings.ToLower(strings.TrimSpace(email)))
}
