package lesson

import (
	"errors"
	"fmt"
)

var (
	// ErrLessonNotFound indicates the lesson doesn't exist for this owner.
	ErrLessonNotFound = errors.New("lesson not found")
	// ErrInvalidInput indicates invalid input for lesson operations.
	ErrInvalidInput = errors.New("invalid lesson input")
	// ErrMalformedImport indicates the import payload is not a recognizable
	// lesson collection.
	ErrMalformedImport = errors.New("import payload is not a lesson collection")
	// ErrEmptyImport indicates the import payload contained no lessons.
	ErrEmptyImport = errors.New("no lessons found in import payload")
)

// PartialImportError reports an import whose bulk insert succeeded but whose
// subsequent refresh listing failed. The displayed collection may be stale
// until the next reload.
type PartialImportError struct {
	Inserted int
	Err      error
}

func (e *PartialImportError) Error() string {
	return fmt.Sprintf("imported %d lesson(s) but refresh failed: %v", e.Inserted, e.Err)
}

func (e *PartialImportError) Unwrap() error { return e.Err }
