package transport

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/skerrin/studylog/internal/domain/identity"
	"github.com/skerrin/studylog/internal/domain/lesson"
	"github.com/skerrin/studylog/internal/importer"
)

// Handlers wires the dashboard HTTP API to the domain services.
type Handlers struct {
	lessons  *lesson.Service
	identity *identity.Service
	logger   *slog.Logger
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(lessons *lesson.Service, identitySvc *identity.Service, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{lessons: lessons, identity: identitySvc, logger: logger}
}

type signInRequest struct {
	Email string `json:"email"`
}

// SignIn initiates passwordless sign-in. The response is 202 regardless of
// whether the account exists, to avoid account enumeration.
func (h *Handlers) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, lesson.ErrInvalidInput)
		return
	}

	if err := h.identity.SignIn(r.Context(), req.Email); err != nil {
		if errors.Is(err, identity.ErrInvalidEmail) {
			writeError(w, err)
			return
		}
		h.logger.Error("sign-in failed", "error", err)
	}
	w.WriteHeader(http.StatusAccepted)
}

type redeemRequest struct {
	Code string `json:"code"`
}

type redeemResponse struct {
	Token string `json:"token"`
}

// Redeem exchanges a magic-link code for a session token.
func (h *Handlers) Redeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, lesson.ErrInvalidInput)
		return
	}

	token, err := h.identity.Redeem(r.Context(), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redeemResponse{Token: token})
}

// SignOut revokes the caller's session token.
func (h *Handlers) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.identity.SignOut(r.Context(), bearerToken(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List refreshes the owner's view and returns the filtered, sorted subset.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	if _, err := h.lessons.Refresh(r.Context(), p.UserID); err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	filter := lesson.Filter{
		Query:       q.Get("q"),
		Status:      q.Get("status"),
		Tag:         q.Get("tag"),
		OverdueOnly: q.Get("overdue") == "true",
	}
	showFuture := q.Get("show_future") != "false"
	sortKey := lesson.SortKey(q.Get("sort"))
	if sortKey == "" {
		sortKey = lesson.SortUpdated
	}

	writeJSON(w, http.StatusOK, h.lessons.Select(p.UserID, filter, showFuture, sortKey))
}

type lessonRequest struct {
	Title        *string    `json:"title"`
	Course       *string    `json:"course"`
	Status       *string    `json:"status"`
	Priority     *int       `json:"priority"`
	Tags         []string   `json:"tags"`
	Notes        *string    `json:"notes"`
	EstimateMins *int       `json:"estimateMins"`
	ActualMins   *int       `json:"actualMins"`
	UnlockAt     *time.Time `json:"unlockAt"`
}

// Create adds a new lesson for the authenticated owner.
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	var req lessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, lesson.ErrInvalidInput)
		return
	}

	create := lesson.CreateRequest{
		Course:       req.Course,
		Tags:         req.Tags,
		Notes:        req.Notes,
		EstimateMins: req.EstimateMins,
		ActualMins:   req.ActualMins,
		UnlockAt:     req.UnlockAt,
	}
	if req.Title != nil {
		create.Title = *req.Title
	}
	if req.Status != nil {
		create.Status = lesson.Status(*req.Status)
	}
	if req.Priority != nil {
		create.Priority = *req.Priority
	}

	stored, err := h.lessons.Create(r.Context(), p.UserID, create)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

// Get returns a single lesson.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	stored, err := h.lessons.Get(r.Context(), p.UserID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// Edit applies a partial update to a lesson.
func (h *Handlers) Edit(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	var req lessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, lesson.ErrInvalidInput)
		return
	}

	edit := lesson.EditRequest{
		ID:           mux.Vars(r)["id"],
		Title:        req.Title,
		Course:       req.Course,
		Priority:     req.Priority,
		Tags:         req.Tags,
		Notes:        req.Notes,
		EstimateMins: req.EstimateMins,
		ActualMins:   req.ActualMins,
		UnlockAt:     req.UnlockAt,
	}
	if req.Status != nil {
		status := lesson.Status(*req.Status)
		edit.Status = &status
	}

	stored, err := h.lessons.Edit(r.Context(), p.UserID, edit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// Review records a review event and returns the rescheduled lesson.
func (h *Handlers) Review(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	stored, err := h.lessons.Review(r.Context(), p.UserID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// Delete removes a lesson permanently.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	if err := h.lessons.Delete(r.Context(), p.UserID, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Tags returns the tag universe over the owner's full collection.
func (h *Handlers) Tags(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	if _, err := h.lessons.Refresh(r.Context(), p.UserID); err != nil {
		writeError(w, err)
		return
	}
	tags := h.lessons.Tags(p.UserID)
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, tags)
}

// Stats returns completion stats over the owner's full collection.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	if _, err := h.lessons.Refresh(r.Context(), p.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.lessons.Stats(p.UserID))
}

// Export streams the owner's collection as a downloadable JSON file.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	data, err := h.lessons.Export(r.Context(), p.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="studylog-export.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type importResponse struct {
	Imported int  `json:"imported"`
	Stale    bool `json:"stale"`
}

// Import accepts a JSON payload (raw array or items/lessons wrapper) or an
// uploaded spreadsheet and bulk-inserts the normalized lessons.
func (h *Handlers) Import(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	var (
		count int
		err   error
	)
	if isSpreadsheet(r.Header.Get("Content-Type")) {
		var raws []map[string]any
		raws, err = importer.Rows(r.Body)
		if err != nil {
			writeError(w, err)
			return
		}
		count, err = h.lessons.ImportRecords(r.Context(), p.UserID, raws)
	} else {
		var payload []byte
		payload, err = io.ReadAll(r.Body)
		if err != nil {
			writeError(w, lesson.ErrMalformedImport)
			return
		}
		count, err = h.lessons.Import(r.Context(), p.UserID, payload)
	}

	if err != nil {
		var partial *lesson.PartialImportError
		if errors.As(err, &partial) {
			writeJSON(w, http.StatusOK, importResponse{Imported: partial.Inserted, Stale: true})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, importResponse{Imported: count})
}

func isSpreadsheet(contentType string) bool {
	return strings.Contains(contentType, "spreadsheetml") ||
		strings.Contains(contentType, "vnd.ms-excel")
}
