package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/skerrin/studylog/internal/domain/lesson"
	"github.com/skerrin/studylog/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestLessonRepository_InsertGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertUser(t, db, "u1", "a@example.com")

	repo := NewLessonRepository(db)
	course := "Math 201"
	notes := "chapter 3"
	stored, err := repo.Insert(ctx, "u1", &lesson.Lesson{
		ID:       "l1",
		Title:    "Linear Algebra",
		Course:   &course,
		Status:   lesson.StatusDoing,
		Priority: 4,
		Tags:     []string{"math", "proofs"},
		Notes:    &notes,
	})
	require.NoError(t, err)
	require.Equal(t, "u1", stored.OwnerID)
	require.False(t, stored.UpdatedAt.IsZero())
	require.False(t, stored.CreatedAt.IsZero())

	loaded, err := repo.Get(ctx, "u1", "l1")
	require.NoError(t, err)
	require.Equal(t, "Linear Algebra", loaded.Title)
	require.Equal(t, &course, loaded.Course)
	require.Equal(t, lesson.StatusDoing, loaded.Status)
	require.Equal(t, []string{"math", "proofs"}, loaded.Tags)
	require.Equal(t, &notes, loaded.Notes)
	require.Nil(t, loaded.NextReviewAt)
}

func TestLessonRepository_Insert_HonorsProposedCreatedAt(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertUser(t, db, "u1", "a@example.com")

	repo := NewLessonRepository(db)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	stored, err := repo.Insert(ctx, "u1", &lesson.Lesson{
		ID:        "l1",
		Title:     "Imported",
		Status:    lesson.StatusTodo,
		Tags:      []string{},
		CreatedAt: created,
	})
	require.NoError(t, err)
	require.Equal(t, created, stored.CreatedAt.UTC())
	require.NotEqual(t, created, stored.UpdatedAt.UTC())
}

func TestLessonRepository_Get_NotFound(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertUser(t, db, "u1", "a@example.com")

	repo := NewLessonRepository(db)
	_, err := repo.Get(ctx, "u1", "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLessonRepository_OwnerIsolation(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertUser(t, db, "u1", "a@example.com")
	insertUser(t, db, "u2", "b@example.com")

	repo := NewLessonRepository(db)
	_, err := repo.Insert(ctx, "u1", &lesson.Lesson{
		ID: "l1", Title: "Mine", Status: lesson.StatusTodo, Tags: []string{},
	})
	require.NoError(t, err)

	_, err = repo.Get(ctx, "u2", "l1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	rows, err := repo.ListByOwner(ctx, "u2")
	require.NoError(t, err)
	require.Empty(t, rows)

	err = repo.Delete(ctx, "u2", "l1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLessonRepository_ListByOwner_OrdersByUpdatedDesc(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertUser(t, db, "u1", "a@example.com")

	repo := NewLessonRepository(db)
	for _, id := range []string{"l1", "l2", "l3"} {
		_, err := repo.Insert(ctx, "u1", &lesson.Lesson{
			ID: id, Title: id, Status: lesson.StatusTodo, Tags: []string{},
		})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	// Touch l1 so it becomes the most recently updated.
	l1, err := repo.Get(ctx, "u1", "l1")
	require.NoError(t, err)
	l1.Title = "touched"
	_, err = repo.Update(ctx, "u1", l1)
	require.NoError(t, err)

	rows, err := repo.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "l1", rows[0].ID)
}

func TestLessonRepository_Update_ReassignsUpdatedAt(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertUser(t, db, "u1", "a@example.com")

	repo := NewLessonRepository(db)
	stored, err := repo.Insert(ctx, "u1", &lesson.Lesson{
		ID: "l1", Title: "Before", Status: lesson.StatusTodo, Tags: []string{},
	})
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)
	stored.Title = "After"
	updated, err := repo.Update(ctx, "u1", stored)
	require.NoError(t, err)
	require.Equal(t, "After", updated.Title)
	require.True(t, updated.UpdatedAt.After(stored.CreatedAt))

	loaded, err := repo.Get(ctx, "u1", "l1")
	require.NoError(t, err)
	require.Equal(t, "After", loaded.Title)
}

func TestLessonRepository_Update_NotFound(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertUser(t, db, "u1", "a@example.com")

	repo := NewLessonRepository(db)
	_, err := repo.Update(ctx, "u1", &lesson.Lesson{
		ID: "ghost", Title: "x", Status: lesson.StatusTodo, Tags: []string{},
	})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLessonRepository_Delete(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertUser(t, db, "u1", "a@example.com")

	repo := NewLessonRepository(db)
	_, err := repo.Insert(ctx, "u1", &lesson.Lesson{
		ID: "l1", Title: "x", Status: lesson.StatusTodo, Tags: []string{},
	})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "u1", "l1"))
	_, err = repo.Get(ctx, "u1", "l1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLessonRepository_BulkInsert(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertUser(t, db, "u1", "a@example.com")

	repo := NewLessonRepository(db)
	stored, err := repo.BulkInsert(ctx, "u1", []lesson.Lesson{
		{ID: "l1", Title: "A", Status: lesson.StatusTodo, Tags: []string{}},
		{ID: "l2", Title: "B", Status: lesson.StatusDone, Tags: []string{"t"}},
	})
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.Equal(t, stored[0].UpdatedAt, stored[1].UpdatedAt, "batch shares one updated_at")

	rows, err := repo.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestLessonRepository_BulkInsert_RollsBackOnFailure(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertUser(t, db, "u1", "a@example.com")

	repo := NewLessonRepository(db)
	_, err := repo.BulkInsert(ctx, "u1", []lesson.Lesson{
		{ID: "l1", Title: "A", Status: lesson.StatusTodo, Tags: []string{}},
		{ID: "l1", Title: "Duplicate", Status: lesson.StatusTodo, Tags: []string{}},
	})
	require.Error(t, err)

	rows, err := repo.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, rows, "failed batch must not leave partial rows")
}

func TestLessonRepository_DueCounts(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertUser(t, db, "u1", "a@example.com")
	insertUser(t, db, "u2", "b@example.com")

	repo := NewLessonRepository(db)
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	mk := func(owner, id string, due *time.Time) {
		_, err := repo.Insert(ctx, owner, &lesson.Lesson{
			ID: id, Title: id, Status: lesson.StatusTodo, Tags: []string{},
			NextReviewAt: due,
		})
		require.NoError(t, err)
	}
	mk("u1", "l1", &past)
	mk("u1", "l2", &past)
	mk("u1", "l3", &future)
	mk("u2", "l4", nil)

	counts, err := repo.DueCounts(ctx, now)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	require.Equal(t, lesson.DueCount{OwnerID: "u1", Count: 2}, counts[0])
}
