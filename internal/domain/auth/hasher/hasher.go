package hasher

import "context"

type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)

	// Verify returns (false, nil) for a wrong password and an error only when
	// the stored hash cannot be read or ctx is done.
	Verify(ctx context.Context, password, hash string) (bool, error)
}
