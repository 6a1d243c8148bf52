package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInternal           = errors.New("internal error")
	ErrUnavailable        = errors.New("service unavailable")
	ErrNotFound           = errors.New("account not found")
	ErrInvalidCredentials = errors.New("email or password is incorrect")
	ErrAlreadyExists      = errors.New("this email already exists")
	ErrInvalidToken       = errors.New("invalid refresh token")
	ErrUnauthenticated    = errors.New("you must be logged in to access this resource")
	ErrForbidden          = errors.New("this action is only for user with admin access")
)

// FieldErrors describes which input fields failed validation.
type FieldErrors map[string]string

type invalidArgument struct {
	msg    string
	fields FieldErrors
}

func (e *invalidArgument) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidArgument, e.msg)
}

func (e *invalidArgument) Unwrap() error { return ErrInvalidArgument }

func NewInvalidArgument(msg string) error {
	return &invalidArgument{msg: msg}
}

func NewInvalidFields(msg string, fields FieldErrors) error {
	return &invalidArgument{msg: msg, fields: fields}
}

// Fields returns the per-field details attached to an invalid-argument error.
func Fields(err error) FieldErrors {
	var ia *invalidArgument
	if errors.As(err, &ia) {
		return ia.fields
	}
	return nil
}

// Message returns the client-facing text of an invalid-argument error.
func Message(err error) string {
	var ia *invalidArgument
	if errors.As(err, &ia) {
		return ia.msg
	}
	return err.Error()
}

type forbidden struct {
	roles []string
}

func (e *forbidden) Error() string {
	return fmt.Sprintf("this action is only for user with %s access", strings.Join(e.roles, " or "))
}

func (e *forbidden) Unwrap() error { return ErrForbidden }

// NewForbidden names the roles the action requires.
func NewForbidden(roles ...string) error {
	if len(roles) == 0 {
		return ErrForbidden
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = strings.ToLower(r)
	}
	return &forbidden{roles: names}
}

// ForbiddenMessage returns the client-facing text of a forbidden error.
func ForbiddenMessage(err error) string {
	var fb *forbidden
	if errors.As(err, &fb) {
		return fb.Error()
	}
	return ErrForbidden.Error()
}

func WrapInternal(err error, context string) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, context, err)
}

// WrapUnavailable marks err as a transient failure (store unreachable,
// deadline exceeded) that the client may retry.
func WrapUnavailable(err error, context string) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, context, err)
}

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}

func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}
