package redis

import (
	"context"
	"errors"
	"time"

	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/adapters/db/dberr"
	customErrors "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Раскладка ключей:
//
//	account:<id>            hash: id, email, full_name, role, password_hash, refresh_token, created_at
//	account:email:<email>   string: id
const (
	accountPrefix = "account:"
	emailPrefix   = "account:email:"
)

// createAccount резервирует email и записывает аккаунт одной атомарной операцией.
var createAccount = redis.NewScript(`
if redis.call('SETNX', KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[2],
  'id', ARGV[1], 'email', ARGV[2], 'full_name', ARGV[3], 'role', ARGV[4],
  'password_hash', ARGV[5], 'refresh_token', ARGV[6], 'created_at', ARGV[7])
return 1
`)

// saveRefreshToken перезаписывает токен только у существующего аккаунта.
var saveRefreshToken = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], 'refresh_token', ARGV[1])
return 1
`)

type RedisSessionStore struct {
	client redis.UniversalClient
}

func NewRedisSessionStore(client redis.UniversalClient) *RedisSessionStore {
	return &RedisSessionStore{
		client: client,
	}
}

func accountKey(id uuid.UUID) string { return accountPrefix + id.String() }

func emailKey(email string) string { return emailPrefix + email }

func (r *RedisSessionStore) CreateAccount(ctx context.Context, a model.Account) (model.AccountSummary, error) {
	created, err := createAccount.Run(ctx, r.client,
		[]string{emailKey(a.Email), accountKey(a.ID)},
		a.ID.String(), a.Email, a.FullName, string(a.Role),
		a.PasswordHash, a.RefreshToken, time.Now().UTC().Format(time.RFC3339Nano),
	).Int()
	if err != nil {
		return model.AccountSummary{}, wrap(err, "CreateAccount")
	}
	if created == 0 {
		return model.AccountSummary{}, customErrors.ErrAlreadyExists
	}
	return a.Summary(), nil
}

func (r *RedisSessionStore) GetCredentialByEmail(ctx context.Context, email string) (model.Credential, error) {
	rawID, err := r.client.Get(ctx, emailKey(email)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return model.Credential{}, customErrors.ErrNotFound
	case err != nil:
		return model.Credential{}, wrap(err, "GetCredentialByEmail")
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return model.Credential{}, customErrors.WrapInternal(err, "GetCredentialByEmail")
	}

	vals, err := r.client.HMGet(ctx, accountKey(id), "email", "full_name", "role", "password_hash").Result()
	if err != nil {
		return model.Credential{}, wrap(err, "GetCredentialByEmail")
	}
	if vals[0] == nil {
		return model.Credential{}, customErrors.ErrNotFound
	}

	return model.Credential{
		ID:           id,
		Email:        str(vals[0]),
		FullName:     str(vals[1]),
		Role:         model.Role(str(vals[2])),
		PasswordHash: str(vals[3]),
	}, nil
}

func (r *RedisSessionStore) GetAccountByID(ctx context.Context, id uuid.UUID) (model.AccountSummary, error) {
	vals, err := r.client.HMGet(ctx, accountKey(id), "email", "full_name", "role").Result()
	if err != nil {
		return model.AccountSummary{}, wrap(err, "GetAccountByID")
	}
	if vals[0] == nil {
		return model.AccountSummary{}, customErrors.ErrNotFound
	}
	return model.AccountSummary{
		ID:       id,
		Email:    str(vals[0]),
		FullName: str(vals[1]),
		Role:     model.Role(str(vals[2])),
	}, nil
}

func (r *RedisSessionStore) SaveRefreshToken(ctx context.Context, accountID uuid.UUID, token string) error {
	saved, err := saveRefreshToken.Run(ctx, r.client, []string{accountKey(accountID)}, token).Int()
	if err != nil {
		return wrap(err, "SaveRefreshToken")
	}
	if saved == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

func (r *RedisSessionStore) GetRefreshToken(ctx context.Context, accountID uuid.UUID) (string, error) {
	vals, err := r.client.HMGet(ctx, accountKey(accountID), "id", "refresh_token").Result()
	if err != nil {
		return "", wrap(err, "GetRefreshToken")
	}
	if vals[0] == nil {
		return "", customErrors.ErrNotFound
	}
	return str(vals[1]), nil
}

func (r *RedisSessionStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return wrap(err, "Ping")
	}
	return nil
}

func wrap(err error, op string) error {
	if errors.Is(err, redis.ErrClosed) {
		return customErrors.WrapUnavailable(err, op)
	}
	return dberr.Wrap(err, op)
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
