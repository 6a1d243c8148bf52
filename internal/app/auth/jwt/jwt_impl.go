package jwt

import (
	customErrors "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/errors"
	jwt2 "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/jwt"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/model"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/infra/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"time"
)

type JwtUtilImpl struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
	now      func() time.Time
}

type Option func(*JwtUtilImpl)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(j *JwtUtilImpl) { j.now = now }
}

func NewJWTUtil(cfg *config.Config, opts ...Option) (*JwtUtilImpl, error) {
	if cfg.TokenSecret == "" {
		return nil, customErrors.NewInvalidArgument("token secret is empty")
	}

	j := &JwtUtilImpl{
		secret:   []byte(cfg.TokenSecret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		leeway:   cfg.TokenLeeway,
		now:      time.Now,
	}
	for _, o := range opts {
		o(j)
	}
	return j, nil
}

func (j *JwtUtilImpl) Issue(identity model.Identity, ttl time.Duration) (string, time.Time, error) {
	now := j.now()

	claims := jwt2.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.AccountID.String(),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Email:    identity.Email,
		FullName: identity.FullName,
		Role:     identity.Role,
	}
	if j.audience != "" {
		claims.Audience = jwt.ClaimStrings{j.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "sign token")
	}

	return signed, claims.ExpiresAt.Time, nil
}

func (j *JwtUtilImpl) Verify(raw string) (model.Identity, time.Time, error) {
	if raw == "" {
		return model.Identity{}, time.Time{}, customErrors.ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(j.now),
		jwt.WithLeeway(j.leeway),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}
	if j.audience != "" {
		opts = append(opts, jwt.WithAudience(j.audience))
	}

	token, err := jwt.ParseWithClaims(raw, &jwt2.Claims{}, func(t *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return model.Identity{}, time.Time{}, customErrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt2.Claims)
	if !ok {
		return model.Identity{}, time.Time{}, customErrors.ErrInvalidToken
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil || !claims.Role.Valid() {
		return model.Identity{}, time.Time{}, customErrors.ErrInvalidToken
	}

	return model.Identity{
		AccountID: uid,
		Email:     claims.Email,
		FullName:  claims.FullName,
		Role:      claims.Role,
	}, claims.ExpiresAt.Time, nil
}
