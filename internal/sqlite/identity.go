package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skerrin/studylog/internal/domain/identity"
	"github.com/skerrin/studylog/internal/repository"
)

// IdentityRepository implements identity.Repository for SQLite.
type IdentityRepository struct {
	db *DB
}

// NewIdentityRepository creates a new IdentityRepository
func NewIdentityRepository(db *DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// CreateUser stores a new user row.
func (r *IdentityRepository) CreateUser(ctx context.Context, u *identity.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, created_at) VALUES (?, ?, ?)`,
		u.ID, u.Email, u.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return repository.ErrInvalidInput
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail looks a user up by email address.
func (r *IdentityRepository) GetUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	var u identity.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetUser looks a user up by id.
func (r *IdentityRepository) GetUser(ctx context.Context, id string) (*identity.User, error) {
	var u identity.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// SaveLoginCode stores a hashed one-time login code.
func (r *IdentityRepository) SaveLoginCode(ctx context.Context, codeHash, userID string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO login_codes (code_hash, user_id, expires_at) VALUES (?, ?, ?)`,
		codeHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to save login code: %w", err)
	}
	return nil
}

// ConsumeLoginCode atomically redeems an unexpired, unconsumed code and
// returns the user id it was issued for.
func (r *IdentityRepository) ConsumeLoginCode(ctx context.Context, codeHash string, now time.Time) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var userID string
	err = tx.QueryRowContext(ctx,
		`SELECT user_id FROM login_codes
		 WHERE code_hash = ? AND consumed_at IS NULL AND expires_at > ?`,
		codeHash, now).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up login code: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE login_codes SET consumed_at = ? WHERE code_hash = ?`,
		now, codeHash); err != nil {
		return "", fmt.Errorf("failed to consume login code: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return userID, nil
}

// SaveSession stores a hashed session token.
func (r *IdentityRepository) SaveSession(ctx context.Context, tokenHash, userID string, createdAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token_hash, user_id, created_at) VALUES (?, ?, ?)`,
		tokenHash, userID, createdAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// ResolveSession returns the user id for a session token hash and refreshes
// its last_used timestamp.
func (r *IdentityRepository) ResolveSession(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM sessions WHERE token_hash = ?`, tokenHash).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve session: %w", err)
	}

	_, _ = r.db.ExecContext(ctx,
		`UPDATE sessions SET last_used = ? WHERE token_hash = ?`,
		time.Now(), tokenHash)

	return userID, nil
}

// DeleteSession revokes a session token.
func (r *IdentityRepository) DeleteSession(ctx context.Context, tokenHash string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE token_hash = ?`, tokenHash)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
