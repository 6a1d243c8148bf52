package model

import (
	"github.com/google/uuid"
	"time"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account is the stored identity + credential record. RefreshToken holds the
// only refresh token currently honoured for the account; empty means no session.
type Account struct {
	ID           uuid.UUID
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Credential is what login needs to check a password.
type Credential struct {
	ID           uuid.UUID
	Email        string
	FullName     string
	Role         Role
	PasswordHash string
}

type AccountSummary struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullname"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
}

// Identity is the claim set carried by session tokens.
type Identity struct {
	AccountID uuid.UUID
	Email     string
	FullName  string
	Role      Role
}

func (i Identity) Summary() AccountSummary {
	return AccountSummary{ID: i.AccountID, FullName: i.FullName, Email: i.Email, Role: i.Role}
}

func (c Credential) Identity() Identity {
	return Identity{AccountID: c.ID, Email: c.Email, FullName: c.FullName, Role: c.Role}
}

func (s AccountSummary) Identity() Identity {
	return Identity{AccountID: s.ID, Email: s.Email, FullName: s.FullName, Role: s.Role}
}

func (a Account) Summary() AccountSummary {
	return AccountSummary{ID: a.ID, FullName: a.FullName, Email: a.Email, Role: a.Role}
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// Session is returned by register and login.
type Session struct {
	Account AccountSummary
	Tokens  TokenPair
}

// Refreshed is returned by a refresh: a new access token only.
// RefreshExpiresAt is the expiry of the presented, unrotated refresh token.
type Refreshed struct {
	Account          AccountSummary
	AccessToken      string
	AccessTTL        time.Duration
	RefreshExpiresAt time.Time
}
