package validator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes bounds every JSON request body decoded by DecodeAndValidate.
const maxBodyBytes = 1 << 20

// MinPasswordLength is the shortest password the "password" tag accepts.
const MinPasswordLength = 8

// mobilePattern accepts an optional leading '+' followed by 7 to 15 digits.
var mobilePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names so error maps line up with request bodies.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return IsMobile(fl.Field().String())
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return PasswordProblem(fl.Field().String()) == ""
	})

	return v
}

// IsMobile reports whether s looks like a phone number of at most 15 digits.
func IsMobile(s string) bool {
	return mobilePattern.MatchString(s)
}

// IsEmail reports whether s is a syntactically valid email address.
func IsEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

// IsURL reports whether s is an absolute URL.
func IsURL(s string) bool {
	return validate.Var(s, "required,url") == nil
}

// PasswordProblem returns a human readable reason why the password is too weak,
// or the empty string when it is acceptable.
func PasswordProblem(password string) string {
	if len(password) < MinPasswordLength {
		return fmt.Sprintf("must be at least %d characters", MinPasswordLength)
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return "must contain at least one uppercase letter, one lowercase letter, and one digit"
	}
	return ""
}

// Validate validates a struct using go-playground/validator tags.
func Validate(s any) error {
	if err := validate.Struct(s); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return &ValidationError{Errors: validationErrors}
		}
		return err
	}
	return nil
}

// ValidationError wraps validator.ValidationErrors with a user-friendly message.
type ValidationError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	var msgs []string
	for _, err := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("field '%s' %s", err.Field(), msgForTag(err)))
	}
	return strings.Join(msgs, "; ")
}

// Fields returns a map of field names to error messages.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Errors))
	for _, err := range e.Errors {
		fields[err.Field()] = msgForTag(err)
	}
	return fields
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return fmt.Sprintf("is required when %s is not provided", toSnake(fe.Param()))
	case "excluded_with":
		return fmt.Sprintf("must not be combined with %s", toSnake(fe.Param()))
	case "email":
		return "must be a valid email address"
	case "mobile":
		return "must be a valid mobile number of at most 15 digits"
	case "password":
		return PasswordProblem(fmt.Sprint(fe.Value()))
	case "eqfield":
		return fmt.Sprintf("must match %s", toSnake(fe.Param()))
	case "nefield":
		return fmt.Sprintf("must differ from %s", toSnake(fe.Param()))
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "gtfield":
		return fmt.Sprintf("must be after %s", toSnake(fe.Param()))
	case "uuid":
		return "must be a valid UUID"
	case "url":
		return "must be a valid URL"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}

// toSnake turns a Go field name used as a tag parameter ("NewPassword") into
// the JSON spelling clients see ("new_password").
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DecodeAndValidate reads JSON from the request body, decodes it into dst,
// and validates it. The body is capped at 1 MiB.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return Validate(dst)
}
