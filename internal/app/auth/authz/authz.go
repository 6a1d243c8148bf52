// Package authz проверяет access-токен и роль вызывающего. Access-токены
// проверяются только по подписи и сроку, хранилище не опрашивается.
package authz

import (
	"context"

	customErrors "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/jwt"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/model"
)

type Gate struct {
	codec jwt.TokenCodec
}

func NewGate(codec jwt.TokenCodec) *Gate {
	return &Gate{codec: codec}
}

func (g *Gate) Authenticate(rawToken string) (model.Identity, error) {
	if rawToken == "" {
		return model.Identity{}, customErrors.ErrUnauthenticated
	}
	identity, _, err := g.codec.Verify(rawToken)
	if err != nil {
		return model.Identity{}, customErrors.ErrUnauthenticated
	}
	return identity, nil
}

// Authorize пропускает identity, если её роль входит в roles.
// Пустой список ролей означает «любой вошедший пользователь».
func (g *Gate) Authorize(identity model.Identity, roles ...model.Role) error {
	if len(roles) == 0 {
		return nil
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		if identity.Role == r {
			return nil
		}
		names[i] = string(r)
	}
	return customErrors.NewForbidden(names...)
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, identity)
}

func IdentityFrom(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(ctxKey{}).(model.Identity)
	return identity, ok
}
