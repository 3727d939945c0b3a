package lesson

import (
	"sort"
	"strings"
	"time"
)

// SortKey selects the display ordering of a lesson collection.
type SortKey string

const (
	SortUpdated  SortKey = "updated"
	SortPriority SortKey = "priority"
	SortStatus   SortKey = "status"
	SortTitle    SortKey = "title"
)

// StatusAll is the sentinel filter value matching every status.
const StatusAll = "All"

// Filter describes the display filter for a lesson collection. All clauses
// are AND-combined.
type Filter struct {
	// Query is a case-insensitive substring matched against title or course.
	Query string
	// Status matches exactly unless empty or StatusAll.
	Status string
	// Tag requires exact tag membership unless empty.
	Tag string
	// OverdueOnly keeps only lessons with a review due at or before now.
	OverdueOnly bool
}

// Matches reports whether a single lesson passes the filter at instant now.
func (f Filter) Matches(l *Lesson, now time.Time) bool {
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		inTitle := strings.Contains(strings.ToLower(l.Title), q)
		inCourse := l.Course != nil && strings.Contains(strings.ToLower(*l.Course), q)
		if !inTitle && !inCourse {
			return false
		}
	}

	if f.Status != "" && f.Status != StatusAll && string(l.Status) != f.Status {
		return false
	}

	if f.Tag != "" {
		found := false
		for _, t := range l.Tags {
			if t == f.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.OverdueOnly && !l.DueForReview(now) {
		return false
	}

	return true
}

// Select returns the filtered, sorted subset of items for display. It is
// pure: items is never modified. When showFuture is false, lessons locked
// behind a future unlock time are excluded regardless of other clauses.
// Sorting is stable; ties keep their prior relative order.
func Select(items []Lesson, f Filter, showFuture bool, key SortKey, now time.Time) []Lesson {
	out := make([]Lesson, 0, len(items))
	for i := range items {
		l := &items[i]
		if !showFuture && l.Locked(now) {
			continue
		}
		if f.Matches(l, now) {
			out = append(out, *l)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		switch key {
		case SortPriority:
			return out[i].Priority > out[j].Priority
		case SortStatus:
			return out[i].Status < out[j].Status
		case SortTitle:
			return out[i].Title < out[j].Title
		default:
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
	})

	return out
}

// TagUniverse returns the distinct tags across the full collection in
// first-seen order.
func TagUniverse(items []Lesson) []string {
	seen := make(map[string]struct{})
	var out []string
	for i := range items {
		for _, t := range items[i].Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
