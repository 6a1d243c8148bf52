package dto

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type RegisterDTO struct {
	FullName             string `json:"fullname"             validate:"required,max=100"`
	Email                string `json:"email"                validate:"required,email,max=254"`
	Password             string `json:"password"             validate:"required,max=72"`
	PasswordConfirmation string `json:"passwordConfirmation" validate:"required,eqfield=Password"`
}

type LoginDTO struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// NewValidator возвращает валидатор, который называет поля по json-тегам,
// чтобы детали ошибок совпадали с ключами тела запроса.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
