package documents

import "errors"

// Sentinel errors returned by Registry and Service methods.
var (
	// ErrNotFound indicates no document exists with the given ID.
	ErrNotFound = errors.New("documents: document not found")

	// ErrInvalidFilename indicates a filename failed sanitization.
	ErrInvalidFilename = errors.New("documents: invalid filename")

	// ErrInvalidCourseCode indicates a course code failed validation.
	ErrInvalidCourseCode = errors.New("documents: invalid course code")
)
