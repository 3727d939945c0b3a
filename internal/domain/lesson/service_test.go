package lesson_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skerrin/studylog/internal/domain/lesson"
	"github.com/skerrin/studylog/internal/repository"
	"github.com/skerrin/studylog/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const ownerID = "owner1"

func TestLessonService_Create(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.LessonRepository{}

	repo.On("Insert", ctx, ownerID, mock.Anything).Run(func(args mock.Arguments) {
		proposal := args.Get(2).(*lesson.Lesson)
		require.NotEmpty(t, proposal.ID)
		require.Equal(t, "Linear Algebra", proposal.Title)
		require.Equal(t, lesson.StatusTodo, proposal.Status)
		require.Equal(t, 3, proposal.Priority)
		require.Equal(t, 0, proposal.ReviewLevel)
	}).Return(&lesson.Lesson{ID: "l1", OwnerID: ownerID, Title: "Linear Algebra", Status: lesson.StatusTodo, Priority: 3}, nil)

	svc := lesson.NewService(repo, nil, nil)
	stored, err := svc.Create(ctx, ownerID, lesson.CreateRequest{Title: "  Linear Algebra  "})
	require.NoError(t, err)
	require.Equal(t, "l1", stored.ID)

	// The confirmed row lands in the owner's view.
	require.Equal(t, []string{"l1"}, ids(svc.Select(ownerID, lesson.Filter{}, true, lesson.SortUpdated)))
}

func TestLessonService_Create_RejectsBlankTitle(t *testing.T) {
	svc := lesson.NewService(&mocks.LessonRepository{}, nil, nil)

	_, err := svc.Create(context.Background(), ownerID, lesson.CreateRequest{Title: "   "})
	require.ErrorIs(t, err, lesson.ErrInvalidInput)
}

func TestLessonService_Create_ClampsPriority(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.LessonRepository{}
	repo.On("Insert", ctx, ownerID, mock.MatchedBy(func(l *lesson.Lesson) bool {
		return l.Priority == 5
	})).Return(&lesson.Lesson{ID: "l1", Priority: 5}, nil)

	svc := lesson.NewService(repo, nil, nil)
	_, err := svc.Create(ctx, ownerID, lesson.CreateRequest{Title: "x", Priority: 99})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestLessonService_Create_ViewUntouchedOnFailure(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.LessonRepository{}
	repo.On("Insert", ctx, ownerID, mock.Anything).Return(nil, errors.New("disk full"))

	svc := lesson.NewService(repo, nil, nil)
	_, err := svc.Create(ctx, ownerID, lesson.CreateRequest{Title: "x"})
	require.Error(t, err)
	require.Empty(t, svc.Select(ownerID, lesson.Filter{}, true, lesson.SortUpdated))
}

func TestLessonService_Edit_AppliesOnlyProvidedFields(t *testing.T) {
	ctx := context.Background()
	course := "Math 201"
	current := &lesson.Lesson{
		ID: "l1", OwnerID: ownerID, Title: "Old", Course: &course,
		Status: lesson.StatusTodo, Priority: 2, Tags: []string{"math"},
	}

	repo := &mocks.LessonRepository{}
	repo.On("Get", ctx, ownerID, "l1").Return(current, nil)
	repo.On("Update", ctx, ownerID, mock.MatchedBy(func(l *lesson.Lesson) bool {
		return l.Title == "New" && l.Status == lesson.StatusDoing &&
			l.Priority == 2 && l.Course == &course
	})).Return(&lesson.Lesson{ID: "l1", Title: "New", Status: lesson.StatusDoing, Priority: 2}, nil)

	svc := lesson.NewService(repo, nil, nil)
	title := "New"
	status := lesson.StatusDoing
	stored, err := svc.Edit(ctx, ownerID, lesson.EditRequest{ID: "l1", Title: &title, Status: &status})
	require.NoError(t, err)
	require.Equal(t, "New", stored.Title)
	repo.AssertExpectations(t)
}

func TestLessonService_Edit_UnknownLesson(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.LessonRepository{}
	repo.On("Get", ctx, ownerID, "nope").Return(nil, repository.ErrNotFound)

	svc := lesson.NewService(repo, nil, nil)
	title := "x"
	_, err := svc.Edit(ctx, ownerID, lesson.EditRequest{ID: "nope", Title: &title})
	require.ErrorIs(t, err, lesson.ErrLessonNotFound)
}

func TestLessonService_Edit_RejectsInvalidStatus(t *testing.T) {
	svc := lesson.NewService(&mocks.LessonRepository{}, nil, nil)

	status := lesson.Status("Archived")
	_, err := svc.Edit(context.Background(), ownerID, lesson.EditRequest{ID: "l1", Status: &status})
	require.ErrorIs(t, err, lesson.ErrInvalidInput)
}

func TestLessonService_Review_SchedulesNextReview(t *testing.T) {
	ctx := context.Background()
	current := &lesson.Lesson{ID: "l1", OwnerID: ownerID, Title: "x", ReviewLevel: 1}

	repo := &mocks.LessonRepository{}
	repo.On("Get", ctx, ownerID, "l1").Return(current, nil)
	repo.On("Update", ctx, ownerID, mock.Anything).Run(func(args mock.Arguments) {
		updated := args.Get(2).(*lesson.Lesson)
		require.Equal(t, 2, updated.ReviewLevel)
		require.NotNil(t, updated.LastReviewedAt)
		require.NotNil(t, updated.NextReviewAt)
		require.Equal(t, updated.LastReviewedAt.Add(2*24*time.Hour), *updated.NextReviewAt)
	}).Return(&lesson.Lesson{ID: "l1", ReviewLevel: 2}, nil)

	svc := lesson.NewService(repo, nil, nil)
	stored, err := svc.Review(ctx, ownerID, "l1")
	require.NoError(t, err)
	require.Equal(t, 2, stored.ReviewLevel)
}

func TestLessonService_Delete_RemovesFromView(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.LessonRepository{}
	repo.On("ListByOwner", ctx, ownerID).Return([]lesson.Lesson{{ID: "l1"}, {ID: "l2"}}, nil)
	repo.On("Delete", ctx, ownerID, "l1").Return(nil)

	svc := lesson.NewService(repo, nil, nil)
	_, err := svc.Refresh(ctx, ownerID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, ownerID, "l1"))
	require.Equal(t, []string{"l2"}, ids(svc.Select(ownerID, lesson.Filter{}, true, lesson.SortUpdated)))
}

func TestLessonService_Import_WrapperObject(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.LessonRepository{}
	repo.On("BulkInsert", ctx, ownerID, mock.MatchedBy(func(ls []lesson.Lesson) bool {
		return len(ls) == 1 && ls[0].Title == "X" && ls[0].Status == lesson.StatusTodo
	})).Return([]lesson.Lesson{{ID: "l1", Title: "X"}}, nil)
	repo.On("ListByOwner", ctx, ownerID).Return([]lesson.Lesson{{ID: "l1", Title: "X"}}, nil)

	svc := lesson.NewService(repo, nil, nil)
	count, err := svc.Import(ctx, ownerID, []byte(`{"lessons":[{"name":"X"}]}`))
	require.NoError(t, err)
	require.Equal(t, 1, count)
	repo.AssertExpectations(t)
}

func TestLessonService_Import_CoercesUnknownStatus(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.LessonRepository{}
	repo.On("BulkInsert", ctx, ownerID, mock.MatchedBy(func(ls []lesson.Lesson) bool {
		return len(ls) == 1 && ls[0].Status == lesson.StatusTodo
	})).Return([]lesson.Lesson{{ID: "l1"}}, nil)
	repo.On("ListByOwner", ctx, ownerID).Return([]lesson.Lesson{{ID: "l1"}}, nil)

	svc := lesson.NewService(repo, nil, nil)
	_, err := svc.Import(ctx, ownerID, []byte(`[{"title":"X","status":"Archived"}]`))
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestLessonService_Import_Malformed(t *testing.T) {
	svc := lesson.NewService(&mocks.LessonRepository{}, nil, nil)

	_, err := svc.Import(context.Background(), ownerID, []byte(`"just a string"`))
	require.ErrorIs(t, err, lesson.ErrMalformedImport)

	_, err = svc.Import(context.Background(), ownerID, []byte(`{"wrong":"shape"}`))
	require.ErrorIs(t, err, lesson.ErrMalformedImport)

	_, err = svc.Import(context.Background(), ownerID, []byte(`not json`))
	require.ErrorIs(t, err, lesson.ErrMalformedImport)
}

func TestLessonService_Import_Empty(t *testing.T) {
	svc := lesson.NewService(&mocks.LessonRepository{}, nil, nil)

	_, err := svc.Import(context.Background(), ownerID, []byte(`[]`))
	require.ErrorIs(t, err, lesson.ErrEmptyImport)
}

func TestLessonService_Import_BulkFailureLeavesViewAlone(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.LessonRepository{}
	repo.On("BulkInsert", ctx, ownerID, mock.Anything).Return(nil, errors.New("constraint violation"))

	svc := lesson.NewService(repo, nil, nil)
	_, err := svc.Import(ctx, ownerID, []byte(`[{"title":"X"}]`))
	require.Error(t, err)
	require.Empty(t, svc.Select(ownerID, lesson.Filter{}, true, lesson.SortUpdated))
}

func TestLessonService_Import_PartialWhenRefreshFails(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.LessonRepository{}
	repo.On("BulkInsert", ctx, ownerID, mock.Anything).Return([]lesson.Lesson{{ID: "l1"}, {ID: "l2"}}, nil)
	repo.On("ListByOwner", ctx, ownerID).Return(nil, errors.New("connection lost"))

	svc := lesson.NewService(repo, nil, nil)
	count, err := svc.Import(ctx, ownerID, []byte(`[{"title":"A"},{"title":"B"}]`))
	require.Equal(t, 2, count)

	var partial *lesson.PartialImportError
	require.ErrorAs(t, err, &partial)
	require.Equal(t, 2, partial.Inserted)
}

func TestLessonService_Export_RoundTripsThroughImport(t *testing.T) {
	ctx := context.Background()
	course := "Math 201"
	rows := []lesson.Lesson{{
		ID: "l1", OwnerID: ownerID, Title: "Linear Algebra", Course: &course,
		Status: lesson.StatusDoing, Priority: 4, Tags: []string{"math"},
	}}

	repo := &mocks.LessonRepository{}
	repo.On("ListByOwner", ctx, ownerID).Return(rows, nil)

	svc := lesson.NewService(repo, nil, nil)
	data, err := svc.Export(ctx, ownerID)
	require.NoError(t, err)

	repo2 := &mocks.LessonRepository{}
	repo2.On("BulkInsert", ctx, ownerID, mock.MatchedBy(func(ls []lesson.Lesson) bool {
		return len(ls) == 1 && ls[0].ID == "l1" && ls[0].Title == "Linear Algebra" &&
			ls[0].Status == lesson.StatusDoing && ls[0].Priority == 4
	})).Return(rows, nil)
	repo2.On("ListByOwner", ctx, ownerID).Return(rows, nil)

	svc2 := lesson.NewService(repo2, nil, nil)
	count, err := svc2.Import(ctx, ownerID, data)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	repo2.AssertExpectations(t)
}
