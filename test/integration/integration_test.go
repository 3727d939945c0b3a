package integration_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/skerrin/studylog/internal/domain/identity"
	"github.com/skerrin/studylog/internal/domain/lesson"
	"github.com/skerrin/studylog/internal/sqlite"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db *sqlite.DB

	identitySvc *identity.Service
	lessonSvc   *lesson.Service
	views       *lesson.Cache
	sender      *captureSender
}

type captureSender struct {
	lastCode string
}

func (c *captureSender) SendMagicLink(email, code string) error {
	c.lastCode = code
	return nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })

	sender := &captureSender{}
	identitySvc := identity.NewService(sqlite.NewIdentityRepository(db), sender, nil)

	views := lesson.NewCache()
	identitySvc.OnSignOut(views.Discard)
	lessonSvc := lesson.NewService(sqlite.NewLessonRepository(db), views, nil)

	return &testEnv{
		db:          db,
		identitySvc: identitySvc,
		lessonSvc:   lessonSvc,
		views:       views,
		sender:      sender,
	}
}

// signUp runs the full passwordless flow and returns the owner id and token.
func (env *testEnv) signUp(t *testing.T, email string) (ownerID, token string) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, env.identitySvc.SignIn(ctx, email))
	token, err := env.identitySvc.Redeem(ctx, env.sender.lastCode)
	require.NoError(t, err)

	p, err := env.identitySvc.Resolve(ctx, token)
	require.NoError(t, err)
	return p.UserID, token
}

func TestLessonLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ownerID, _ := env.signUp(t, "ada@example.com")

	course := "Math 201"
	created, err := env.lessonSvc.Create(ctx, ownerID, lesson.CreateRequest{
		Title:    "Linear Algebra",
		Course:   &course,
		Priority: 4,
		Tags:     []string{"math"},
	})
	require.NoError(t, err)

	status := lesson.StatusDoing
	edited, err := env.lessonSvc.Edit(ctx, ownerID, lesson.EditRequest{
		ID:     created.ID,
		Status: &status,
	})
	require.NoError(t, err)
	require.Equal(t, lesson.StatusDoing, edited.Status)

	reviewed, err := env.lessonSvc.Review(ctx, ownerID, created.ID)
	require.NoError(t, err)
	require.Equal(t, 1, reviewed.ReviewLevel)
	require.WithinDuration(t,
		time.Now().Add(24*time.Hour), *reviewed.NextReviewAt, 5*time.Second)

	// Second review two days out from the first.
	reviewed, err = env.lessonSvc.Review(ctx, ownerID, created.ID)
	require.NoError(t, err)
	require.Equal(t, 2, reviewed.ReviewLevel)
	require.WithinDuration(t,
		time.Now().Add(2*24*time.Hour), *reviewed.NextReviewAt, 5*time.Second)

	require.NoError(t, env.lessonSvc.Delete(ctx, ownerID, created.ID))
	_, err = env.lessonSvc.Get(ctx, ownerID, created.ID)
	require.ErrorIs(t, err, lesson.ErrLessonNotFound)
}

func TestImportExportRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ownerID, _ := env.signUp(t, "ada@example.com")

	payload := []byte(`{"items":[
		{"name":"One","tags":"math, basics","priority":"2"},
		{"title":"Two","status":"Done","course_name":"CS 101"}
	]}`)
	count, err := env.lessonSvc.Import(ctx, ownerID, payload)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	data, err := env.lessonSvc.Export(ctx, ownerID)
	require.NoError(t, err)

	// Re-import into a second account; records survive the round trip.
	otherID, _ := env.signUp(t, "bob@example.com")
	_, err = env.lessonSvc.Import(ctx, otherID, data)
	require.Error(t, err, "ids collide with the first owner's rows")

	rows, err := env.lessonSvc.Refresh(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	titles := []string{rows[0].Title, rows[1].Title}
	require.ElementsMatch(t, []string{"One", "Two"}, titles)
}

func TestViewDiscardedOnSignOut(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ownerID, token := env.signUp(t, "ada@example.com")

	_, err := env.lessonSvc.Create(ctx, ownerID, lesson.CreateRequest{Title: "x"})
	require.NoError(t, err)
	require.Equal(t, 1, env.views.For(ownerID).Len())

	require.NoError(t, env.identitySvc.SignOut(ctx, token))
	require.Zero(t, env.views.For(ownerID).Len())

	// The authoritative rows are untouched; a fresh load restores them.
	rows, err := env.lessonSvc.Refresh(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestOwnerScoping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	adaID, _ := env.signUp(t, "ada@example.com")
	bobID, _ := env.signUp(t, "bob@example.com")

	created, err := env.lessonSvc.Create(ctx, adaID, lesson.CreateRequest{Title: "Private"})
	require.NoError(t, err)

	_, err = env.lessonSvc.Get(ctx, bobID, created.ID)
	require.ErrorIs(t, err, lesson.ErrLessonNotFound)

	rows, err := env.lessonSvc.Refresh(ctx, bobID)
	require.NoError(t, err)
	require.Empty(t, rows)
}
