package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/adapters/db/dberr"
	customErrors "github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/commerce-auth/internal/domain/auth/model"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type accountRow struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	FullName     string    `gorm:"not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"not null"`
	RefreshToken string    `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (accountRow) TableName() string { return "accounts" }

func (r accountRow) summary() model.AccountSummary {
	return model.AccountSummary{ID: r.ID, FullName: r.FullName, Email: r.Email, Role: model.Role(r.Role)}
}

type PostgresSessionStore struct {
	db *gorm.DB
}

func NewPostgresSessionStore(db *gorm.DB) *PostgresSessionStore {
	return &PostgresSessionStore{db: db}
}

func (p *PostgresSessionStore) CreateAccount(ctx context.Context, a model.Account) (model.AccountSummary, error) {
	row := accountRow{
		ID:           a.ID,
		Email:        a.Email,
		FullName:     a.FullName,
		PasswordHash: a.PasswordHash,
		Role:         string(a.Role),
		RefreshToken: a.RefreshToken,
	}
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return model.AccountSummary{}, customErrors.ErrAlreadyExists
		}
		return model.AccountSummary{}, dberr.Wrap(err, "CreateAccount")
	}
	return row.summary(), nil
}

func (p *PostgresSessionStore) GetCredentialByEmail(ctx context.Context, email string) (model.Credential, error) {
	var row accountRow
	res := p.db.WithContext(ctx).
		Select("id", "email", "full_name", "role", "password_hash").
		Where("email = ?", email).
		Take(&row)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Credential{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.Credential{}, dberr.Wrap(err, "GetCredentialByEmail")
	}

	return model.Credential{
		ID:           row.ID,
		Email:        row.Email,
		FullName:     row.FullName,
		Role:         model.Role(row.Role),
		PasswordHash: row.PasswordHash,
	}, nil
}

func (p *PostgresSessionStore) GetAccountByID(ctx context.Context, id uuid.UUID) (model.AccountSummary, error) {
	var row accountRow
	res := p.db.WithContext(ctx).
		Select("id", "email", "full_name", "role").
		Where("id = ?", id).
		Take(&row)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.AccountSummary{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.AccountSummary{}, dberr.Wrap(err, "GetAccountByID")
	}
	return row.summary(), nil
}

func (p *PostgresSessionStore) SaveRefreshToken(ctx context.Context, accountID uuid.UUID, token string) error {
	res := p.db.WithContext(ctx).
		Model(&accountRow{}).
		Where("id = ?", accountID).
		Update("refresh_token", token)
	if err := res.Error; err != nil {
		return dberr.Wrap(err, "SaveRefreshToken")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

func (p *PostgresSessionStore) GetRefreshToken(ctx context.Context, accountID uuid.UUID) (string, error) {
	var row accountRow
	res := p.db.WithContext(ctx).
		Select("refresh_token").
		Where("id = ?", accountID).
		Take(&row)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return "", customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return "", dberr.Wrap(err, "GetRefreshToken")
	}
	return row.RefreshToken, nil
}

func (p *PostgresSessionStore) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return dberr.Wrap(err, "Ping")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return dberr.Wrap(err, "Ping")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
