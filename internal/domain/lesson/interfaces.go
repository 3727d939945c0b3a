package lesson

import (
	"context"
	"time"
)

// Repository is the authoritative owner-scoped lesson store. Every returned
// row is the stored record of truth: inserts and updates assign updated_at
// server-side, and callers must apply the returned rows rather than their own
// proposals.
type Repository interface {
	// ListByOwner returns all lessons for an owner ordered by updated_at
	// descending.
	ListByOwner(ctx context.Context, ownerID string) ([]Lesson, error)
	Get(ctx context.Context, ownerID, id string) (*Lesson, error)
	Insert(ctx context.Context, ownerID string, l *Lesson) (*Lesson, error)
	Update(ctx context.Context, ownerID string, l *Lesson) (*Lesson, error)
	Delete(ctx context.Context, ownerID, id string) error
	// BulkInsert stores a batch of lessons; returned row order is
	// unspecified.
	BulkInsert(ctx context.Context, ownerID string, ls []Lesson) ([]Lesson, error)
	// DueCounts returns, per owner, how many lessons have a review due at
	// or before now.
	DueCounts(ctx context.Context, now time.Time) ([]DueCount, error)
}

// DueCount is the number of lessons due for review for one owner.
type DueCount struct {
	OwnerID string
	Count   int
}
