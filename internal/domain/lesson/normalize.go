package lesson

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Normalize converts one loosely-structured external record into a canonical
// lesson proposal. It tolerates missing and renamed fields and never fails:
// malformed rows become best-effort lessons. pos is the record's position in
// the import batch, used for synthesized titles; now is the batch timestamp
// applied to records without their own.
//
// Status values pass through without enum validation; the consuming service
// decides what to do with unrecognized ones.
func Normalize(raw map[string]any, pos int, now time.Time) Lesson {
	l := Lesson{
		ID:          stringVal(raw, "id"),
		Status:      StatusTodo,
		Priority:    3,
		ReviewLevel: 0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}

	if v, ok := pick(raw, "title", "name"); ok {
		l.Title = coerceString(v)
	} else {
		l.Title = fmt.Sprintf("Imported %d", pos+1)
	}

	l.Course = optString(raw, "course", "courseName", "course_name")

	if v, ok := pick(raw, "status"); ok {
		l.Status = Status(coerceString(v))
	}

	if v, ok := pick(raw, "priority"); ok {
		if n, ok := coerceInt(v); ok {
			l.Priority = n
		}
	}

	l.Tags = coerceTags(raw["tags"])
	l.Notes = optString(raw, "notes")
	l.EstimateMins = optInt(raw, "estimateMins", "estimate_mins")
	l.ActualMins = optInt(raw, "actualMins", "actual_mins")
	l.UnlockAt = optTime(raw, "unlockAt", "unlock_at")
	l.LastReviewedAt = optTime(raw, "lastReviewedAt", "last_reviewed_at")
	l.NextReviewAt = optTime(raw, "nextReviewAt", "next_review_at")

	if v, ok := pick(raw, "reviewLevel", "review_level"); ok {
		if n, ok := coerceInt(v); ok && n >= 0 {
			l.ReviewLevel = n
		}
	}

	if t := optTime(raw, "createdAt", "created_at"); t != nil {
		l.CreatedAt = *t
	}
	if t := optTime(raw, "updatedAt", "updated_at"); t != nil {
		l.UpdatedAt = *t
	}

	return l
}

// pick returns the first non-absent, non-nil value among keys.
func pick(raw map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringVal(raw map[string]any, keys ...string) string {
	if v, ok := pick(raw, keys...); ok {
		return coerceString(v)
	}
	return ""
}

func optString(raw map[string]any, keys ...string) *string {
	if v, ok := pick(raw, keys...); ok {
		s := coerceString(v)
		return &s
	}
	return nil
}

func optInt(raw map[string]any, keys ...string) *int {
	if v, ok := pick(raw, keys...); ok {
		if n, ok := coerceInt(v); ok {
			return &n
		}
	}
	return nil
}

// optTime parses RFC 3339 timestamps. Unparseable values are treated as
// absent rather than failing the record.
func optTime(raw map[string]any, keys ...string) *time.Time {
	v, ok := pick(raw, keys...)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case time.Time:
		return &t
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return &parsed
		}
	}
	return nil
}

func coerceString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func coerceInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return int(parsed), true
		}
	}
	return 0, false
}

// coerceTags accepts either an ordered sequence or a single comma-separated
// string. Elements are trimmed and empties dropped; duplicates are kept.
func coerceTags(v any) []string {
	switch tags := v.(type) {
	case []any:
		out := make([]string, 0, len(tags))
		for _, t := range tags {
			out = append(out, coerceString(t))
		}
		return out
	case []string:
		return append([]string(nil), tags...)
	case nil:
		return []string{}
	default:
		out := []string{}
		for _, part := range strings.Split(coerceString(tags), ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}
}
