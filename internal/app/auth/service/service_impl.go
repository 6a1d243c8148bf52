package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"sync"

	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/adapters/transport/http/dto"
	customErrors "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/hasher"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/jwt"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/model"
	repo "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/repo"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/infra/config"
	lg "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/infra/log"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const msgRefreshUnavailable = "invalid request, refresh token unavailable"

type authService struct {
	store  repo.SessionStore
	hasher hasher.PasswordHasher
	codec  jwt.TokenCodec
	cfg    *config.Config
	v      *validator.Validate
	log    *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

type Service interface {
	Register(context.Context, dto.RegisterDTO) (model.Session, error)
	Login(context.Context, dto.LoginDTO) (model.Session, error)
	RefreshAccessToken(context.Context, dto.RefreshDTO) (model.Refreshed, error)
	Logout(ctx context.Context, accountID uuid.UUID) error
	GetAccount(ctx context.Context, id uuid.UUID) (model.AccountSummary, error)
}

func New(
	store repo.SessionStore,
	h hasher.PasswordHasher,
	codec jwt.TokenCodec,
	cfg *config.Config,
	v *validator.Validate,
	log *zap.Logger,
) Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &authService{
		store: store, hasher: h, codec: codec, cfg: cfg, v: v, log: log,
	}
}

func (a *authService) Register(ctx context.Context, in dto.RegisterDTO) (model.Session, error) {
	in.Email = normalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := a.v.Struct(in); err != nil {
		return model.Session{}, invalidInput(err)
	}

	passwordHash, err := a.hasher.Hash(ctx, in.Password)
	if err != nil {
		return model.Session{}, classify(err, "Register: hash")
	}

	account := model.Account{
		ID:           uuid.New(),
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: passwordHash,
		Role:         model.RoleUser,
	}

	// токены выпускаются до вставки, чтобы refresh попал в запись атомарно
	pair, err := a.issuePair(account.Summary().Identity())
	if err != nil {
		return model.Session{}, err
	}
	account.RefreshToken = pair.RefreshToken

	summary, err := a.store.CreateAccount(ctx, account)
	switch {
	case customErrors.IsAlreadyExists(err):
		return model.Session{}, customErrors.ErrAlreadyExists
	case err != nil:
		return model.Session{}, classify(err, "Register")
	}

	a.log.Info("account registered", zap.String("account_id", summary.ID.String()), lg.Email(summary.Email))
	return model.Session{Account: summary, Tokens: pair}, nil
}

func (a *authService) Login(ctx context.Context, in dto.LoginDTO) (model.Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := a.v.Struct(in); err != nil {
		return model.Session{}, invalidInput(err)
	}

	cred, err := a.store.GetCredentialByEmail(ctx, in.Email)
	switch {
	case customErrors.IsNotFound(err):
		// выравниваем время ответа с веткой неверного пароля
		a.verifyDummy(ctx, in.Password)
		a.log.Debug("login rejected", lg.Email(in.Email))
		return model.Session{}, customErrors.ErrInvalidCredentials
	case err != nil:
		return model.Session{}, classify(err, "Login")
	}

	ok, err := a.hasher.Verify(ctx, in.Password, cred.PasswordHash)
	if err != nil {
		return model.Session{}, classify(err, "Login: verify")
	}
	if !ok {
		a.log.Debug("login rejected", lg.Email(in.Email))
		return model.Session{}, customErrors.ErrInvalidCredentials
	}

	identity := cred.Identity()
	pair, err := a.issuePair(identity)
	if err != nil {
		return model.Session{}, err
	}

	// перезаписывает предыдущую сессию
	if err := a.store.SaveRefreshToken(ctx, identity.AccountID, pair.RefreshToken); err != nil {
		return model.Session{}, classify(err, "Login: save refresh")
	}

	return model.Session{Account: identity.Summary(), Tokens: pair}, nil
}

// RefreshAccessToken не ротирует refresh-токен: он остаётся действительным
// до следующего входа, выхода или истечения срока.
func (a *authService) RefreshAccessToken(ctx context.Context, in dto.RefreshDTO) (model.Refreshed, error) {
	if err := a.v.Struct(in); err != nil {
		return model.Refreshed{}, customErrors.NewInvalidArgument(msgRefreshUnavailable)
	}

	identity, refreshExp, err := a.codec.Verify(in.RefreshToken)
	if err != nil {
		return model.Refreshed{}, customErrors.ErrInvalidToken
	}

	stored, err := a.store.GetRefreshToken(ctx, identity.AccountID)
	switch {
	case customErrors.IsNotFound(err):
		return model.Refreshed{}, customErrors.ErrNotFound
	case err != nil:
		return model.Refreshed{}, classify(err, "RefreshAccessToken")
	}

	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(in.RefreshToken)) != 1 {
		return model.Refreshed{}, customErrors.ErrInvalidToken
	}

	access, _, err := a.codec.Issue(identity, a.cfg.AccessTokenTTL)
	if err != nil {
		return model.Refreshed{}, classify(err, "RefreshAccessToken: issue")
	}

	return model.Refreshed{
		Account:          identity.Summary(),
		AccessToken:      access,
		AccessTTL:        a.cfg.AccessTokenTTL,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (a *authService) Logout(ctx context.Context, accountID uuid.UUID) error {
	err := a.store.SaveRefreshToken(ctx, accountID, "")
	switch {
	case customErrors.IsNotFound(err):
		return customErrors.ErrNotFound
	case err != nil:
		return classify(err, "Logout")
	}
	a.log.Info("session closed", zap.String("account_id", accountID.String()))
	return nil
}

func (a *authService) GetAccount(ctx context.Context, id uuid.UUID) (model.AccountSummary, error) {
	account, err := a.store.GetAccountByID(ctx, id)
	switch {
	case customErrors.IsNotFound(err):
		return model.AccountSummary{}, customErrors.ErrNotFound
	case err != nil:
		return model.AccountSummary{}, classify(err, "GetAccount")
	}
	return account, nil
}

func (a *authService) issuePair(identity model.Identity) (model.TokenPair, error) {
	at, _, err := a.codec.Issue(identity, a.cfg.AccessTokenTTL)
	if err != nil {
		return model.TokenPair{}, classify(err, "issue access token")
	}
	rt, _, err := a.codec.Issue(identity, a.cfg.RefreshTokenTTL)
	if err != nil {
		return model.TokenPair{}, classify(err, "issue refresh token")
	}
	return model.TokenPair{
		AccessToken:  at,
		RefreshToken: rt,
		AccessTTL:    a.cfg.AccessTokenTTL,
		RefreshTTL:   a.cfg.RefreshTokenTTL,
	}, nil
}

func (a *authService) verifyDummy(ctx context.Context, password string) {
	a.dummyOnce.Do(func() {
		h, err := a.hasher.Hash(context.Background(), "dummy-password-for-timing")
		if err != nil {
			a.log.Warn("dummy hash unavailable", zap.Error(err))
			return
		}
		a.dummyHash = h
	})
	if a.dummyHash != "" {
		_, _ = a.hasher.Verify(ctx, password, a.dummyHash)
	}
}

// classify оставляет классифицированные ошибки как есть, отмену контекста
// считает недоступностью, всё прочее оборачивает во внутреннюю ошибку.
func classify(err error, op string) error {
	switch {
	case customErrors.IsUnavailable(err),
		customErrors.IsInternal(err),
		customErrors.IsInvalidArgument(err):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return customErrors.WrapUnavailable(err, op)
	default:
		return customErrors.WrapInternal(err, op)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
