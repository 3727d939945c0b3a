package mocks

import (
	"context"
	"time"

	"github.com/skerrin/studylog/internal/domain/identity"
	"github.com/skerrin/studylog/internal/domain/lesson"
	"github.com/stretchr/testify/mock"
)

// LessonRepository is a mock for lesson.Repository.
type LessonRepository struct {
	mock.Mock
}

func (m *LessonRepository) ListByOwner(ctx context.Context, ownerID string) ([]lesson.Lesson, error) {
	args := m.Called(ctx, ownerID)
	if list, ok := args.Get(0).([]lesson.Lesson); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *LessonRepository) Get(ctx context.Context, ownerID, id string) (*lesson.Lesson, error) {
	args := m.Called(ctx, ownerID, id)
	if l, ok := args.Get(0).(*lesson.Lesson); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *LessonRepository) Insert(ctx context.Context, ownerID string, l *lesson.Lesson) (*lesson.Lesson, error) {
	args := m.Called(ctx, ownerID, l)
	if stored, ok := args.Get(0).(*lesson.Lesson); ok {
		return stored, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *LessonRepository) Update(ctx context.Context, ownerID string, l *lesson.Lesson) (*lesson.Lesson, error) {
	args := m.Called(ctx, ownerID, l)
	if stored, ok := args.Get(0).(*lesson.Lesson); ok {
		return stored, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *LessonRepository) Delete(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *LessonRepository) BulkInsert(ctx context.Context, ownerID string, ls []lesson.Lesson) ([]lesson.Lesson, error) {
	args := m.Called(ctx, ownerID, ls)
	if stored, ok := args.Get(0).([]lesson.Lesson); ok {
		return stored, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *LessonRepository) DueCounts(ctx context.Context, now time.Time) ([]lesson.DueCount, error) {
	args := m.Called(ctx, now)
	if counts, ok := args.Get(0).([]lesson.DueCount); ok {
		return counts, args.Error(1)
	}
	return nil, args.Error(1)
}

// IdentityRepository is a mock for identity.Repository.
type IdentityRepository struct {
	mock.Mock
}

func (m *IdentityRepository) CreateUser(ctx context.Context, u *identity.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *IdentityRepository) GetUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*identity.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IdentityRepository) GetUser(ctx context.Context, id string) (*identity.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*identity.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IdentityRepository) SaveLoginCode(ctx context.Context, codeHash, userID string, expiresAt time.Time) error {
	args := m.Called(ctx, codeHash, userID, expiresAt)
	return args.Error(0)
}

func (m *IdentityRepository) ConsumeLoginCode(ctx context.Context, codeHash string, now time.Time) (string, error) {
	args := m.Called(ctx, codeHash, now)
	return args.String(0), args.Error(1)
}

func (m *IdentityRepository) SaveSession(ctx context.Context, tokenHash, userID string, createdAt time.Time) error {
	args := m.Called(ctx, tokenHash, userID, createdAt)
	return args.Error(0)
}

func (m *IdentityRepository) ResolveSession(ctx context.Context, tokenHash string) (string, error) {
	args := m.Called(ctx, tokenHash)
	return args.String(0), args.Error(1)
}

func (m *IdentityRepository) DeleteSession(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}
