package shared

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const passwordSpecials = `!@#$%^&*(),.?":{}|<>`

// NewValidator returns a validator reporting fields by their JSON names and
// understanding the strongpassword tag.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return PasswordProblem(fl.Field().String()) == ""
	})
	return v
}

// PasswordProblem returns the first password rule the value breaks, or "".
func PasswordProblem(pw string) string {
	if len(pw) < 8 {
		return "Password must be at least 8 characters long."
	}
	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
		if strings.ContainsRune(passwordSpecials, r) {
			special = true
		}
	}
	switch {
	case !upper:
		return "Password must contain at least one uppercase letter."
	case !lower:
		return "Password must contain at least one lowercase letter."
	case !digit:
		return "Password must contain at least one number."
	case !special:
		return "Password must contain at least one special character."
	}
	return ""
}

// ValidateStruct runs v over s and converts failures into a ValidationError.
func ValidateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return NewValidationError(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: This field is required.", fe.Field())
	case "email":
		return fmt.Sprintf("%s: Enter a valid email address.", fe.Field())
	case "strongpassword":
		return PasswordProblem(fmt.Sprint(fe.Value()))
	case "oneof":
		return fmt.Sprintf("%s: %q is not a valid choice.", fe.Field(), fmt.Sprint(fe.Value()))
	case "max":
		return fmt.Sprintf("%s: Ensure this field has no more than %s characters.", fe.Field(), fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s: Ensure this value is greater than %s.", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s: Date has wrong format. Use YYYY-MM-DD.", fe.Field())
	}
	return fmt.Sprintf("%s: Invalid value.", fe.Field())
}
