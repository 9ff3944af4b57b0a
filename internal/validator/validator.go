package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
	"gitlab.com/timkado/api/clinic-case-service/pkg/utils"
)

var (
	validate *validator.Validate
	once     sync.Once

	phonePattern = regexp.MustCompile(`^[+0-9(). -]{7,20}$`)
)

// Get returns a singleton validator instance with the custom tags registered:
// phone, password and daydate.
func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New()

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return isStrongPassword(fl.Field().String())
		})
		_ = validate.RegisterValidation("daydate", func(fl validator.FieldLevel) bool {
			_, err := utils.ParseDayDate(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// Validate checks s against its `validate` tags. A failure is returned as an
// *apperrors.FieldError with one message per offending field.
func Validate(s interface{}) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %v", apperrors.ErrBadRequest, err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, fmt.Sprintf("%s %s", e.Field(), getErrorMessage(e)))
	}
	return apperrors.NewFieldError(messages...)
}

// isStrongPassword requires 8 to 64 characters with at least one letter and one digit.
func isStrongPassword(s string) bool {
	if len(s) < 8 || len(s) > 64 {
		return false
	}
	var letter, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "phone":
		return "must be a valid phone number"
	case "password":
		return "must be 8-64 characters and contain a letter and a digit"
	case "daydate":
		return "must be a valid date in DD-MM-YYYY or DD/MM/YYYY format"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters long", e.Param())
		}
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", e.Param())
		}
		return fmt.Sprintf("must not exceed %s", e.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "eqfield":
		return fmt.Sprintf("must match %s", e.Param())
	default:
		return fmt.Sprintf("failed the '%s' check", e.Tag())
	}
}
