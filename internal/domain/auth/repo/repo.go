package repo

import (
	"context"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/model"
	"github.com/google/uuid"
)

// SessionStore is everything the auth core needs from persistence. Each call
// is atomic on its own; no transaction spans calls.
//
// Implementations return ErrNotFound / ErrAlreadyExists for the expected
// misses, ErrUnavailable when the backend cannot be reached, and ErrInternal
// for anything else.
type SessionStore interface {
	GetCredentialByEmail(ctx context.Context, email string) (model.Credential, error)

	GetAccountByID(ctx context.Context, id uuid.UUID) (model.AccountSummary, error)

	// CreateAccount stores the account together with its initial refresh token.
	CreateAccount(ctx context.Context, account model.Account) (model.AccountSummary, error)

	// SaveRefreshToken overwrites the stored token; last writer wins.
	SaveRefreshToken(ctx context.Context, accountID uuid.UUID, token string) error

	GetRefreshToken(ctx context.Context, accountID uuid.UUID) (string, error)

	Ping(ctx context.Context) error
}
