package hasher

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"

	customErrors "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/errors"
	"golang.org/x/crypto/bcrypt"
)

var errUnknownHash = errors.New("unknown password hash format")

type Bcrypt struct {
	cost   int
	pepper []byte
}

func NewBcrypt(cost int, pepper string) *Bcrypt {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost, pepper: []byte(pepper)}
}

// prepare mixes the pepper in with HMAC so the input stays within bcrypt's
// 72 byte limit.
func (b *Bcrypt) prepare(password string) []byte {
	if len(b.pepper) == 0 {
		return []byte(password)
	}
	mac := hmac.New(sha256.New, b.pepper)
	mac.Write([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

func (b *Bcrypt) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", customErrors.NewInvalidArgument("password cannot be empty")
	}
	out, err := run(ctx, func() ([]byte, error) {
		return bcrypt.GenerateFromPassword(b.prepare(password), b.cost)
	})
	switch {
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		return "", customErrors.NewInvalidArgument("password is too long")
	case err != nil:
		return "", err
	}
	return string(out), nil
}

func (b *Bcrypt) Verify(ctx context.Context, password, hash string) (bool, error) {
	_, err := run(ctx, func() (struct{}, error) {
		return struct{}{}, bcrypt.CompareHashAndPassword([]byte(hash), b.prepare(password))
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false, err
	default:
		return false, customErrors.WrapInternal(err, "bcrypt verify")
	}
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}
