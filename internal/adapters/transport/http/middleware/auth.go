package middleware

import (
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/adapters/transport/http/response"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/app/auth/authz"
	customErrors "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/model"
	"github.com/gin-gonic/gin"
)

const (
	AccessTokenCookie = "accessToken"
	identityKey       = "identity"
)

// RequireLogin пропускает запрос только с валидным access-токеном в куке.
func RequireLogin(gate *authz.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, _ := c.Cookie(AccessTokenCookie)
		identity, err := gate.Authenticate(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Set(identityKey, identity)
		c.Request = c.Request.WithContext(authz.WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

// RequireRole ставится после RequireLogin.
func RequireRole(gate *authz.Gate, roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := Identity(c)
		if !ok {
			response.Error(c, customErrors.ErrUnauthenticated)
			return
		}
		if err := gate.Authorize(identity, roles...); err != nil {
			response.Error(c, err)
			return
		}
		c.Next()
	}
}

func Identity(c *gin.Context) (model.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return authz.IdentityFrom(c.Request.Context())
	}
	identity, ok := v.(model.Identity)
	return identity, ok
}
