// Package testserver provides an in-memory HTTP server harness for tests.
package testserver

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/skerrin/studylog/internal/domain/identity"
	"github.com/skerrin/studylog/internal/domain/lesson"
	"github.com/skerrin/studylog/internal/sqlite"
	"github.com/skerrin/studylog/internal/transport"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Identity *identity.Service
	Lessons  *lesson.Service
	Sender   *CodeCapture
}

// SentCode is a magic-link code captured instead of delivered.
type SentCode struct {
	Email string
	Code  string
}

// CodeCapture records magic-link codes so tests can redeem them.
type CodeCapture struct {
	Codes []SentCode
}

func (c *CodeCapture) SendMagicLink(email, code string) error {
	c.Codes = append(c.Codes, SentCode{Email: email, Code: code})
	return nil
}

// Last returns the most recently issued code.
func (c *CodeCapture) Last() SentCode {
	if len(c.Codes) == 0 {
		return SentCode{}
	}
	return c.Codes[len(c.Codes)-1]
}

// New builds a fully wired server backed by an in-memory database. The
// database is shared across connections for the lifetime of the test.
func New(t *testing.T) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	lessonRepo := sqlite.NewLessonRepository(db)
	identityRepo := sqlite.NewIdentityRepository(db)

	sender := &CodeCapture{}
	identitySvc := identity.NewService(identityRepo, sender, nil)

	views := lesson.NewCache()
	identitySvc.OnSignOut(views.Discard)
	lessonSvc := lesson.NewService(lessonRepo, views, nil)

	handlers := transport.NewHandlers(lessonSvc, identitySvc, nil)
	server := httptest.NewServer(transport.NewRouter(handlers, transport.AuthMiddleware(identitySvc)))

	ts := &TestServer{
		Server:   server,
		DB:       db,
		Identity: identitySvc,
		Lessons:  lessonSvc,
		Sender:   sender,
	}

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// NewUser creates an account with an active session and returns the owner id
// and bearer token, bypassing the magic-link exchange.
func (ts *TestServer) NewUser(t *testing.T, email string) (ownerID, token string) {
	t.Helper()

	ownerID = uuid.NewString()
	token = uuid.NewString()

	_, err := ts.DB.Exec(
		`INSERT INTO users (id, email, created_at) VALUES (?, ?, ?)`,
		ownerID, email, time.Now(),
	)
	require.NoError(t, err)

	_, err = ts.DB.Exec(
		`INSERT INTO sessions (token_hash, user_id, created_at, last_used) VALUES (?, ?, ?, ?)`,
		identity.HashToken(token), ownerID, time.Now(), time.Now(),
	)
	require.NoError(t, err)

	return ownerID, token
}
