package service

import (
	"errors"
	"fmt"

	customErrors "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/errors"
	"github.com/go-playground/validator/v10"
)

const msgValidation = "validation errors"

// invalidInput превращает ошибки валидатора в InvalidArgument с деталями по полям.
func invalidInput(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return customErrors.NewInvalidArgument(err.Error())
	}

	fields := make(customErrors.FieldErrors, len(verrs))
	for _, fe := range verrs {
		key, msg := describe(fe)
		if _, seen := fields[key]; !seen {
			fields[key] = msg
		}
	}
	return customErrors.NewInvalidFields(msgValidation, fields)
}

func describe(fe validator.FieldError) (string, string) {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		switch field {
		case "fullname":
			return field, "fullname should have minimum 1 characters"
		case "passwordConfirmation":
			return field, "password confirmation is required"
		}
		return field, field + " is required"
	case "email":
		return field, "your email is in invalid format"
	case "eqfield":
		return "password", "password and password confirmation is not match"
	case "max":
		return field, fmt.Sprintf("%s should have maximum %s characters", field, fe.Param())
	}
	return field, field + " is invalid"
}
