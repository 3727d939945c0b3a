package lesson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skerrin/studylog/internal/repository"
)

// Service handles lesson business logic. It is the sync boundary between the
// owner-scoped views and the authoritative repository: every mutation goes to
// the repository first, and only the returned row is applied to the view.
// On failure the view keeps its last-known-good contents.
type Service struct {
	repo   Repository
	views  *Cache
	logger *slog.Logger
}

// NewService creates a new lesson service.
func NewService(repo Repository, views *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if views == nil {
		views = NewCache()
	}
	return &Service{repo: repo, views: views, logger: logger}
}

// CreateRequest describes a lesson creation request.
type CreateRequest struct {
	Title        string
	Course       *string
	Status       Status
	Priority     int
	Tags         []string
	Notes        *string
	EstimateMins *int
	ActualMins   *int
	UnlockAt     *time.Time
}

// EditRequest describes a partial lesson edit. Nil fields are left unchanged.
type EditRequest struct {
	ID           string
	Title        *string
	Course       *string
	Status       *Status
	Priority     *int
	Tags         []string
	Notes        *string
	EstimateMins *int
	ActualMins   *int
	UnlockAt     *time.Time
}

// Create stores a new lesson for the owner. The proposal's id and timestamps
// may be superseded by the repository; the stored row is returned and applied
// to the owner's view.
func (s *Service) Create(ctx context.Context, ownerID string, req CreateRequest) (*Lesson, error) {
	if err := ValidateCreateInput(req); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = StatusTodo
	}
	priority := 3
	if req.Priority != 0 {
		priority = ClampPriority(req.Priority)
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	now := time.Now()
	proposal := &Lesson{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Title:        strings.TrimSpace(req.Title),
		Course:       req.Course,
		Status:       status,
		Priority:     priority,
		Tags:         tags,
		Notes:        req.Notes,
		EstimateMins: req.EstimateMins,
		ActualMins:   req.ActualMins,
		UnlockAt:     req.UnlockAt,
		ReviewLevel:  0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	stored, err := s.repo.Insert(ctx, ownerID, proposal)
	if err != nil {
		return nil, fmt.Errorf("creating lesson: %w", err)
	}

	s.views.For(ownerID).InsertOne(*stored)
	return stored, nil
}

// Edit applies a partial update and returns the stored row.
func (s *Service) Edit(ctx context.Context, ownerID string, req EditRequest) (*Lesson, error) {
	if req.ID == "" {
		return nil, ErrInvalidInput
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, ErrInvalidInput
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, ErrInvalidInput
	}

	current, err := s.load(ctx, ownerID, req.ID)
	if err != nil {
		return nil, err
	}

	updated := *current
	if req.Title != nil {
		updated.Title = strings.TrimSpace(*req.Title)
	}
	if req.Course != nil {
		updated.Course = req.Course
	}
	if req.Status != nil {
		updated.Status = *req.Status
	}
	if req.Priority != nil {
		updated.Priority = ClampPriority(*req.Priority)
	}
	if req.Tags != nil {
		updated.Tags = req.Tags
	}
	if req.Notes != nil {
		updated.Notes = req.Notes
	}
	if req.EstimateMins != nil {
		updated.EstimateMins = req.EstimateMins
	}
	if req.ActualMins != nil {
		updated.ActualMins = req.ActualMins
	}
	if req.UnlockAt != nil {
		updated.UnlockAt = req.UnlockAt
	}

	return s.applyUpdate(ctx, ownerID, &updated)
}

// Review records a review event: the review level advances by one and the
// next review time comes from the interval table.
func (s *Service) Review(ctx context.Context, ownerID, id string) (*Lesson, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}

	current, err := s.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	level := current.ReviewLevel
	if level < 0 {
		level = 0
	}
	newLevel, nextAt := NextReview(level, now)

	updated := *current
	updated.LastReviewedAt = &now
	updated.ReviewLevel = newLevel
	updated.NextReviewAt = &nextAt

	return s.applyUpdate(ctx, ownerID, &updated)
}

// Delete removes a lesson permanently.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if id == "" {
		return ErrInvalidInput
	}

	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrLessonNotFound
		}
		return fmt.Errorf("deleting lesson: %w", err)
	}

	s.views.For(ownerID).RemoveOne(id)
	return nil
}

// Get returns a lesson by id.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*Lesson, error) {
	return s.load(ctx, ownerID, id)
}

// Refresh reloads the owner's view from the repository and returns the full
// collection, ordered most-recently-updated first.
func (s *Service) Refresh(ctx context.Context, ownerID string) ([]Lesson, error) {
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing lessons: %w", err)
	}
	s.views.For(ownerID).ReplaceAll(rows)
	return rows, nil
}

// Select applies the display filter and sort to the owner's current view.
func (s *Service) Select(ownerID string, f Filter, showFuture bool, key SortKey) []Lesson {
	items := s.views.For(ownerID).Snapshot()
	return Select(items, f, showFuture, key, time.Now())
}

// Tags returns the tag universe over the owner's full collection.
func (s *Service) Tags(ownerID string) []string {
	return TagUniverse(s.views.For(ownerID).Snapshot())
}

// Stats returns completion stats over the owner's full collection.
func (s *Service) Stats(ownerID string) Stats {
	return ComputeStats(s.views.For(ownerID).Snapshot())
}

// Import parses a JSON import payload and stores its lessons. The payload
// must be a top-level array or a wrapper object with an "items" or "lessons"
// array; anything else rejects the import with no effect.
func (s *Service) Import(ctx context.Context, ownerID string, payload []byte) (int, error) {
	raws, err := decodeImportPayload(payload)
	if err != nil {
		return 0, err
	}
	return s.ImportRecords(ctx, ownerID, raws)
}

// ImportRecords normalizes loose records and bulk-inserts them. If the bulk
// insert fails the whole import failed; if the subsequent refresh fails, a
// PartialImportError reports how many rows were stored.
func (s *Service) ImportRecords(ctx context.Context, ownerID string, raws []map[string]any) (int, error) {
	if len(raws) == 0 {
		return 0, ErrEmptyImport
	}

	now := time.Now()
	proposals := make([]Lesson, 0, len(raws))
	for i, raw := range raws {
		l := Normalize(raw, i, now)
		if !l.Status.Valid() {
			s.logger.Warn("coercing unrecognized import status",
				"status", l.Status, "lesson", l.Title)
			l.Status = StatusTodo
		}
		proposals = append(proposals, l)
	}

	inserted, err := s.repo.BulkInsert(ctx, ownerID, proposals)
	if err != nil {
		return 0, fmt.Errorf("importing lessons: %w", err)
	}

	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Warn("import refresh failed; view may be stale", "error", err)
		return len(inserted), &PartialImportError{Inserted: len(inserted), Err: err}
	}
	s.views.For(ownerID).ReplaceAll(rows)

	return len(inserted), nil
}

// Export returns the owner's full collection as indented JSON with canonical
// field names. Re-importing the result reproduces equivalent records.
func (s *Service) Export(ctx context.Context, ownerID string) ([]byte, error) {
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("exporting lessons: %w", err)
	}
	s.views.For(ownerID).ReplaceAll(rows)

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	return data, nil
}

func (s *Service) load(ctx context.Context, ownerID, id string) (*Lesson, error) {
	l, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("loading lesson: %w", err)
	}
	return l, nil
}

func (s *Service) applyUpdate(ctx context.Context, ownerID string, l *Lesson) (*Lesson, error) {
	stored, err := s.repo.Update(ctx, ownerID, l)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("updating lesson: %w", err)
	}

	if !s.views.For(ownerID).ApplyUpdate(*stored) {
		s.logger.Warn("updated lesson missing from view", "lesson_id", stored.ID)
	}
	return stored, nil
}

// decodeImportPayload accepts a top-level array of loose records or a wrapper
// object exposing one under "items" or "lessons". Non-object elements become
// empty records rather than failing the batch.
func decodeImportPayload(payload []byte) ([]map[string]any, error) {
	var parsed any
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}

	var arr []any
	switch p := parsed.(type) {
	case []any:
		arr = p
	case map[string]any:
		for _, key := range []string{"items", "lessons"} {
			if v, ok := p[key].([]any); ok {
				arr = v
				break
			}
		}
		if arr == nil {
			return nil, ErrMalformedImport
		}
	default:
		return nil, ErrMalformedImport
	}

	if len(arr) == 0 {
		return nil, ErrEmptyImport
	}

	raws := make([]map[string]any, 0, len(arr))
	for _, el := range arr {
		if m, ok := el.(map[string]any); ok {
			raws = append(raws, m)
		} else {
			raws = append(raws, map[string]any{})
		}
	}
	return raws, nil
}
