package identity

import (
	"context"
	"time"
)

// Repository persists users, one-time login codes, and session tokens.
// Codes and tokens are stored hashed; the raw values never touch disk.
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)

	SaveLoginCode(ctx context.Context, codeHash, userID string, expiresAt time.Time) error
	// ConsumeLoginCode atomically redeems an unexpired, unconsumed code and
	// returns the user id it was issued for.
	ConsumeLoginCode(ctx context.Context, codeHash string, now time.Time) (string, error)

	SaveSession(ctx context.Context, tokenHash, userID string, createdAt time.Time) error
	ResolveSession(ctx context.Context, tokenHash string) (string, error)
	DeleteSession(ctx context.Context, tokenHash string) error
}

// MagicLinkSender delivers a sign-in code to an email address out of band.
type MagicLinkSender interface {
	SendMagicLink(email, code string) error
}
