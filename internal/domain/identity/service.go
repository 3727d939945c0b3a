package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skerrin/studylog/internal/repository"
)

// codeTTL bounds how long a magic-link code stays redeemable.
const codeTTL = 15 * time.Minute

// Service is the passwordless identity provider: sign-in initiation by email,
// code redemption into bearer session tokens, token resolution, and sign-out
// notifications for listeners holding per-principal state.
type Service struct {
	repo   Repository
	sender MagicLinkSender
	logger *slog.Logger

	mu         sync.Mutex
	signOutFns []func(userID string)
}

// NewService creates a new identity service.
func NewService(repo Repository, sender MagicLinkSender, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, sender: sender, logger: logger}
}

// SignIn initiates passwordless sign-in for an email address, creating the
// account on first use. The code is delivered out of band; only its hash is
// stored.
func (s *Service) SignIn(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		user = &User{
			ID:        uuid.NewString(),
			Email:     email,
			CreatedAt: time.Now(),
		}
		if err := s.repo.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("loading user: %w", err)
	}

	code, err := randomToken()
	if err != nil {
		return fmt.Errorf("generating login code: %w", err)
	}

	expiresAt := time.Now().Add(codeTTL)
	if err := s.repo.SaveLoginCode(ctx, HashToken(code), user.ID, expiresAt); err != nil {
		return fmt.Errorf("saving login code: %w", err)
	}

	if err := s.sender.SendMagicLink(email, code); err != nil {
		return fmt.Errorf("sending magic link: %w", err)
	}

	s.logger.Info("sign-in initiated", "email", email)
	return nil
}

// Redeem exchanges a one-time login code for a bearer session token.
func (s *Service) Redeem(ctx context.Context, code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ErrCodeExpired
	}

	userID, err := s.repo.ConsumeLoginCode(ctx, HashToken(code), time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrCodeExpired
		}
		return "", fmt.Errorf("consuming login code: %w", err)
	}

	token, err := randomToken()
	if err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	if err := s.repo.SaveSession(ctx, HashToken(token), userID, time.Now()); err != nil {
		return "", fmt.Errorf("saving session: %w", err)
	}

	return token, nil
}

// Resolve returns the principal for a session token, or ErrNoPrincipal.
func (s *Service) Resolve(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrNoPrincipal
	}

	userID, err := s.repo.ResolveSession(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoPrincipal
		}
		return nil, fmt.Errorf("resolving session: %w", err)
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoPrincipal
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	return &Principal{UserID: user.ID, Email: user.Email}, nil
}

// SignOut revokes a session token and notifies subscribers so any state
// scoped to the principal can be discarded.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	userID, err := s.repo.ResolveSession(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("resolving session: %w", err)
	}

	if err := s.repo.DeleteSession(ctx, HashToken(token)); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("deleting session: %w", err)
	}

	s.mu.Lock()
	fns := append([]func(string){}, s.signOutFns...)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(userID)
	}

	return nil
}

// OnSignOut registers a callback invoked with the user id on every sign-out.
func (s *Service) OnSignOut(fn func(userID string)) {
	s.mu.Lock()
	s.signOutFns = append(s.signOutFns, fn)
	s.mu.Unlock()
}

// HashToken returns the hex SHA-256 digest used to store codes and tokens.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
