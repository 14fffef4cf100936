// Package validation содержит проверки входных данных.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("phone", isPhoneNumber); err != nil {
		panic(fmt.Sprintf("register phone validation: %v", err))
	}
	return v
}

// isPhoneNumber допускает цифры, пробелы и символы +-().
func isPhoneNumber(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	digits := 0
	for _, ch := range s {
		switch {
		case unicode.IsDigit(ch):
			digits++
		case ch == ' ' || ch == '+' || ch == '-' || ch == '(' || ch == ')':
		default:
			return false
		}
	}
	return digits > 0
}

// Struct проверяет структуру по тегам validate и возвращает ошибку с
// перечнем нарушений в человекочитаемом виде.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, ", "))
}

func describe(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.ActualTag() {
	case "required":
		return fmt.Sprintf("field %s is a required field", field)
	case "email":
		return fmt.Sprintf("field %s must be a valid email address", field)
	case "max":
		return fmt.Sprintf("field %s must be at most %s characters long", field, fe.Param())
	case "phone":
		return fmt.Sprintf("field %s may contain only digits, spaces and +-()", field)
	default:
		return fmt.Sprintf("field %s is not valid", field)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
