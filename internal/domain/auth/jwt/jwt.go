package jwt

import (
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/model"
	"github.com/golang-jwt/jwt/v5"
	"time"
)

// Claims is the wire form of a session token. ID (jti) is a random nonce so
// that two tokens issued for the same identity in the same second differ.
type Claims struct {
	jwt.RegisteredClaims
	Email    string     `json:"email"`
	FullName string     `json:"fullname"`
	Role     model.Role `json:"role"`
}

type TokenCodec interface {
	Issue(identity model.Identity, ttl time.Duration) (token string, exp time.Time, err error)
	// Verify returns ErrInvalidToken for any malformed, tampered or expired token.
	Verify(token string) (identity model.Identity, exp time.Time, err error)
}
