// Package validation wraps go-playground/validator with the service's custom
// rules and turns failures into field-keyed validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	apperrors "github.com/spec-kit/lead-service/pkg/util/errorutil"
)

// MinLeadAge is the youngest age accepted for a lead.
const MinLeadAge = 16

// optional +55/0055 country code, optional area code, 8 or 9 digit subscriber number
var brazilianPhonePattern = regexp.MustCompile(`^(?:(?:\+|00)?(55)\s?)?(?:\(?([1-9][0-9])\)?\s?)?(?:((?:9\d|[2-9])\d{3})-?(\d{4}))$`)

// Validator checks `validate` struct tags. Besides the built-in tags it
// knows notblank, brphone, birthdate and min_age16.
type Validator struct {
	v *validator.Validate
}

// New builds a validator. now is the clock used by min_age16; nil means time.Now.
func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	must(v.RegisterValidation("notblank", validators.NotBlank))
	must(v.RegisterValidation("brphone", func(fl validator.FieldLevel) bool {
		return ValidBrazilianPhone(fl.Field().String())
	}))
	must(v.RegisterValidation("birthdate", func(fl validator.FieldLevel) bool {
		_, ok := ParseDate(fl.Field().String())
		return ok
	}))
	must(v.RegisterValidation("min_age16", func(fl validator.FieldLevel) bool {
		birth, ok := ParseDate(fl.Field().String())
		return ok && OldEnough(birth, now())
	}))
	return &Validator{v: v}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Struct validates s. Rule failures come back as a VALIDATION_FAILED
// DomainError with one message per field.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewInternalError(err)
	}

	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, seen := details[fe.Field()]; !seen {
			details[fe.Field()] = message(fe)
		}
	}
	return apperrors.NewValidationError("validation failed", details)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fe.Field() + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", fe.Field(), fe.Param())
	case "email":
		return "invalid email format"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "brphone":
		return "invalid Brazilian phone number format"
	case "birthdate":
		return "invalid date"
	case "min_age16":
		return fmt.Sprintf("the lead must be at least %d years old", MinLeadAge)
	}
	return fmt.Sprintf("%s failed the %s rule", fe.Field(), fe.Tag())
}

// ValidBrazilianPhone reports whether phone looks like a Brazilian number.
func ValidBrazilianPhone(phone string) bool {
	return brazilianPhonePattern.MatchString(strings.TrimSpace(phone))
}

// ParseDate accepts a calendar date or a full RFC 3339 timestamp.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.DateOnly, time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// OldEnough reports whether someone born on birth is at least MinLeadAge on today.
func OldEnough(birth, today time.Time) bool {
	cutoff := time.Date(today.Year()-MinLeadAge, today.Month(), today.Day(), 23, 59, 59, 0, time.UTC)
	return !birth.UTC().After(cutoff)
}
