package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	phonePattern = regexp.MustCompile(`^\d{10}$`)
	emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)
)

// Validator checks request structs and turns failures into a single
// ValidationError listing every problem in field order.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	checks := []struct {
		tag string
		fn  validator.Func
	}{
		{"phone10", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		}},
		{"basicemail", func(fl validator.FieldLevel) bool {
			return emailPattern.MatchString(fl.Field().String())
		}},
		{"wholenumber", func(fl validator.FieldLevel) bool {
			_, err := strconv.Atoi(fl.Field().String())
			return err == nil
		}},
		{"positive", func(fl validator.FieldLevel) bool {
			value, err := strconv.Atoi(fl.Field().String())
			return err == nil && value > 0
		}},
		// bcrypt rejects passwords longer than 72 bytes.
		{"pwbytes", func(fl validator.FieldLevel) bool {
			return len(fl.Field().String()) <= maxPasswordBytes
		}},
	}
	for _, check := range checks {
		if err := validate.RegisterValidation(check.tag, check.fn); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", check.tag, err))
		}
	}

	return &Validator{validate: validate}
}

// Struct validates input. messages maps "field.tag" to the text reported
// for that failure.
func (v *Validator) Struct(input any, messages map[string]string) error {
	err := v.validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	problems := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		if message, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
			problems = append(problems, message)
			continue
		}
		problems = append(problems, fmt.Sprintf("%s is invalid", fe.Field()))
	}
	return NewValidationError(problems...)
}

// parseQuantity returns the positive integer in value or the problem with it.
func parseQuantity(value string) (int, string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, "Food quantity is required"
	}
	quantity, err := strconv.Atoi(value)
	if err != nil {
		return 0, "Food quantity must be a number"
	}
	if quantity <= 0 {
		return 0, "Food quantity must be greater than 0"
	}
	return quantity, ""
}
