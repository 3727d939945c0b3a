package lesson

import "strings"

// ValidateCreateInput validates fields required to create a lesson.
func ValidateCreateInput(req CreateRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return ErrInvalidInput
	}
	if req.Status != "" && !req.Status.Valid() {
		return ErrInvalidInput
	}
	return nil
}

// ClampPriority forces p into the valid 1-5 range.
func ClampPriority(p int) int {
	if p < 1 {
		return 1
	}
	if p > 5 {
		return 5
	}
	return p
}
