// Package validation holds the shared validator instance and the form rules
// registered on it.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/ashendes/storefront/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvPattern    = regexp.MustCompile(`^\d{3,4}$`)
	zipPattern    = regexp.MustCompile(`^\d{5}$`)
	cardPattern   = regexp.MustCompile(`^\d{16}$`)
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the process-wide validator with the form rules registered
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New()
		mustRegister(v, "cardnumber", func(fl validator.FieldLevel) bool {
			return cardPattern.MatchString(strings.ReplaceAll(fl.Field().String(), " ", ""))
		})
		mustRegister(v, "expiry", func(fl validator.FieldLevel) bool {
			return expiryPattern.MatchString(fl.Field().String())
		})
		mustRegister(v, "cvv", func(fl validator.FieldLevel) bool {
			return cvvPattern.MatchString(fl.Field().String())
		})
		mustRegister(v, "zip5", func(fl validator.FieldLevel) bool {
			return zipPattern.MatchString(fl.Field().String())
		})
		instance = v
	})
	return instance
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// FieldErrors runs struct validation and returns the failing fields in
// declaration order. A nil slice means the struct is valid.
func FieldErrors(s interface{}) ([]validator.FieldError, error) {
	err := Validator().Struct(s)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, nil
	}
	return nil, err
}

// NewError builds a ValidationError
func NewError(field, message string) *models.ValidationError {
	return &models.ValidationError{Field: field, Message: message}
}
