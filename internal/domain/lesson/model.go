package lesson

import "time"

// Status represents the workflow state of a lesson
type Status string

const (
	StatusTodo    Status = "Todo"
	StatusDoing   Status = "Doing"
	StatusDone    Status = "Done"
	StatusBlocked Status = "Blocked"
)

// Valid reports whether s is one of the recognized workflow states.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusDoing, StatusDone, StatusBlocked:
		return true
	}
	return false
}

// Statuses lists all workflow states in display order.
func Statuses() []Status {
	return []Status{StatusTodo, StatusDoing, StatusDone, StatusBlocked}
}

// Lesson represents a single tracked learning item. JSON field names are the
// canonical export names; imports additionally accept snake_case equivalents
// (see Normalize).
type Lesson struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"ownerId"`
	Title          string     `json:"title"`
	Course         *string    `json:"course,omitempty"`
	Status         Status     `json:"status"`
	Priority       int        `json:"priority"`
	Tags           []string   `json:"tags"`
	Notes          *string    `json:"notes,omitempty"`
	EstimateMins   *int       `json:"estimateMins,omitempty"`
	ActualMins     *int       `json:"actualMins,omitempty"`
	UnlockAt       *time.Time `json:"unlockAt,omitempty"`
	LastReviewedAt *time.Time `json:"lastReviewedAt,omitempty"`
	ReviewLevel    int        `json:"reviewLevel"`
	NextReviewAt   *time.Time `json:"nextReviewAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Locked reports whether the lesson is gated behind a future unlock time.
func (l *Lesson) Locked(now time.Time) bool {
	return l.UnlockAt != nil && l.UnlockAt.After(now)
}

// DueForReview reports whether the lesson has a review due at or before now.
func (l *Lesson) DueForReview(now time.Time) bool {
	return l.NextReviewAt != nil && !l.NextReviewAt.After(now)
}

// Stats summarizes completion progress across a collection.
type Stats struct {
	Total int `json:"total"`
	Done  int `json:"done"`
	Pct   int `json:"pct"`
}

// ComputeStats derives completion stats from the full collection.
func ComputeStats(items []Lesson) Stats {
	st := Stats{Total: len(items)}
	for i := range items {
		if items[i].Status == StatusDone {
			st.Done++
		}
	}
	if st.Total > 0 {
		st.Pct = int(float64(st.Done)/float64(st.Total)*100 + 0.5)
	}
	return st
}
