package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/skerrin/studylog/internal/domain/lesson"
	"github.com/skerrin/studylog/internal/repository"
)

// LessonRepository implements lesson.Repository for SQLite. It is the
// authoritative store: updated_at is assigned here on every insert and
// update, and the returned rows are the record of truth.
type LessonRepository struct {
	db *DB
}

// NewLessonRepository creates a new LessonRepository
func NewLessonRepository(db *DB) *LessonRepository {
	return &LessonRepository{db: db}
}

const lessonColumns = `
	id, owner_id, title, course, status, priority, tags, notes,
	estimate_mins, actual_mins, unlock_at, last_reviewed_at,
	review_level, next_review_at, created_at, updated_at
`

// ListByOwner returns all lessons for an owner, most recently updated first.
func (r *LessonRepository) ListByOwner(ctx context.Context, ownerID string) ([]lesson.Lesson, error) {
	query := `SELECT ` + lessonColumns + `
		FROM lessons
		WHERE owner_id = ?
		ORDER BY updated_at DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	defer rows.Close()

	out := []lesson.Lesson{}
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lesson rows: %w", err)
	}

	return out, nil
}

// Get retrieves a lesson by id, scoped to the owner.
func (r *LessonRepository) Get(ctx context.Context, ownerID, id string) (*lesson.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = ? AND owner_id = ?`

	row := r.db.QueryRowContext(ctx, query, id, ownerID)
	l, err := scanLesson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Insert stores a new lesson and returns the stored row. The proposal's
// created_at is honored when set; updated_at is always assigned here.
func (r *LessonRepository) Insert(ctx context.Context, ownerID string, l *lesson.Lesson) (*lesson.Lesson, error) {
	stored := *l
	now := time.Now()
	stored.OwnerID = ownerID
	stored.UpdatedAt = now
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}

	if err := r.exec(ctx, r.db.DB, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// Update rewrites a lesson row and returns the stored row. The caller's
// updated_at is discarded and reassigned here.
func (r *LessonRepository) Update(ctx context.Context, ownerID string, l *lesson.Lesson) (*lesson.Lesson, error) {
	stored := *l
	stored.OwnerID = ownerID
	stored.UpdatedAt = time.Now()

	tags, err := json.Marshal(stored.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `
		UPDATE lessons
		SET title = ?, course = ?, status = ?, priority = ?, tags = ?,
		    notes = ?, estimate_mins = ?, actual_mins = ?, unlock_at = ?,
		    last_reviewed_at = ?, review_level = ?, next_review_at = ?,
		    updated_at = ?
		WHERE id = ? AND owner_id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		stored.Title,
		stored.Course,
		stored.Status,
		stored.Priority,
		string(tags),
		stored.Notes,
		stored.EstimateMins,
		stored.ActualMins,
		stored.UnlockAt,
		stored.LastReviewedAt,
		stored.ReviewLevel,
		stored.NextReviewAt,
		stored.UpdatedAt,
		stored.ID,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, repository.ErrNotFound
	}

	return &stored, nil
}

// Delete removes a lesson permanently.
func (r *LessonRepository) Delete(ctx context.Context, ownerID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM lessons WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
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

// BulkInsert stores a batch of lessons in one transaction. All rows share a
// single updated_at instant; proposed created_at values are honored.
func (r *LessonRepository) BulkInsert(ctx context.Context, ownerID string, ls []lesson.Lesson) ([]lesson.Lesson, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	stored := make([]lesson.Lesson, 0, len(ls))
	for i := range ls {
		row := ls[i]
		row.OwnerID = ownerID
		row.UpdatedAt = now
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		if err := r.exec(ctx, tx, &row); err != nil {
			return nil, err
		}
		stored = append(stored, row)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit bulk insert: %w", err)
	}

	return stored, nil
}

// DueCounts returns per-owner counts of lessons with a review due at or
// before now.
func (r *LessonRepository) DueCounts(ctx context.Context, now time.Time) ([]lesson.DueCount, error) {
	query := `
		SELECT owner_id, COUNT(*)
		FROM lessons
		WHERE next_review_at IS NOT NULL AND next_review_at <= ?
		GROUP BY owner_id
	`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to count due lessons: %w", err)
	}
	defer rows.Close()

	var counts []lesson.DueCount
	for rows.Next() {
		var dc lesson.DueCount
		if err := rows.Scan(&dc.OwnerID, &dc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan due count: %w", err)
		}
		counts = append(counts, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due counts: %w", err)
	}

	return counts, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *LessonRepository) exec(ctx context.Context, db execer, l *lesson.Lesson) error {
	tags, err := json.Marshal(l.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `
		INSERT INTO lessons (` + lessonColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = db.ExecContext(ctx, query,
		l.ID,
		l.OwnerID,
		l.Title,
		l.Course,
		l.Status,
		l.Priority,
		string(tags),
		l.Notes,
		l.EstimateMins,
		l.ActualMins,
		l.UnlockAt,
		l.LastReviewedAt,
		l.ReviewLevel,
		l.NextReviewAt,
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert lesson: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLesson(row rowScanner) (*lesson.Lesson, error) {
	var (
		l            lesson.Lesson
		course       sql.NullString
		notes        sql.NullString
		estimateMins sql.NullInt64
		actualMins   sql.NullInt64
		unlockAt     sql.NullTime
		lastReviewed sql.NullTime
		nextReview   sql.NullTime
		tags         string
	)

	err := row.Scan(
		&l.ID,
		&l.OwnerID,
		&l.Title,
		&course,
		&l.Status,
		&l.Priority,
		&tags,
		&notes,
		&estimateMins,
		&actualMins,
		&unlockAt,
		&lastReviewed,
		&l.ReviewLevel,
		&nextReview,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan lesson: %w", err)
	}

	if err := json.Unmarshal([]byte(tags), &l.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	if l.Tags == nil {
		l.Tags = []string{}
	}

	l.Course = nullString(course)
	l.Notes = nullString(notes)
	l.EstimateMins = nullInt(estimateMins)
	l.ActualMins = nullInt(actualMins)
	l.UnlockAt = nullTime(unlockAt)
	l.LastReviewedAt = nullTime(lastReviewed)
	l.NextReviewAt = nullTime(nextReview)

	return &l, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
