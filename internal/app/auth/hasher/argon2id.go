package hasher

import (
	"context"
	"errors"

	customErrors "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/errors"
	"github.com/alexedwards/argon2id"
)

var argonParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

type Argon2id struct {
	pepper string
}

func NewArgon2id(pepper string) *Argon2id {
	return &Argon2id{pepper: pepper}
}

func (a *Argon2id) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", customErrors.NewInvalidArgument("password cannot be empty")
	}
	return run(ctx, func() (string, error) {
		return argon2id.CreateHash(password+a.pepper, argonParams)
	})
}

func (a *Argon2id) Verify(ctx context.Context, password, hash string) (bool, error) {
	ok, err := run(ctx, func() (bool, error) {
		return argon2id.ComparePasswordAndHash(password+a.pepper, hash)
	})
	switch {
	case err == nil:
		return ok, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false, err
	default:
		return false, customErrors.WrapInternal(err, "argon2id verify")
	}
}
