// Package hasher implements one-way password hashing. Hash always uses the
// configured algorithm; Verify picks the algorithm from the stored hash, so
// switching PASSWORD_HASHER keeps existing accounts able to log in.
package hasher

import (
	"context"
	"strings"

	customErrors "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/infra/config"
)

type Hasher struct {
	active string
	bcrypt *Bcrypt
	argon  *Argon2id
}

func New(cfg *config.Config) *Hasher {
	active := cfg.PasswordHasher
	if active == "" {
		active = config.HasherBcrypt
	}
	return &Hasher{
		active: active,
		bcrypt: NewBcrypt(cfg.HashCost, cfg.PasswordPepper),
		argon:  NewArgon2id(cfg.PasswordPepper),
	}
}

func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if h.active == config.HasherArgon2id {
		return h.argon.Hash(ctx, password)
	}
	return h.bcrypt.Hash(ctx, password)
}

func (h *Hasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		return h.argon.Verify(ctx, password, hash)
	case isBcrypt(hash):
		return h.bcrypt.Verify(ctx, password, hash)
	default:
		return false, customErrors.WrapInternal(errUnknownHash, "Verify")
	}
}

// run выполняет CPU-тяжёлую операцию вне горутины вызывающего, чтобы
// отмена ctx возвращала управление сразу.
func run[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}
