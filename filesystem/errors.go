package filesystem

import "errors"

// Query operations never return these; they surface as false/zero results.
// Construction and structural mutation wrap them with context, so compare
// with errors.Is.
var (
	ErrNotFound      = errors.New("no such node")
	ErrDuplicateName = errors.New("name already exists")
	ErrNotDir        = errors.New("not a directory")
	ErrNotFile       = errors.New("not a file")
	ErrNoRoot        = errors.New("no root registered")
	// ErrInvalidPath covers malformed URLs and names. Queries treat it exactly
	// like ErrNotFound.
	ErrInvalidPath = errors.New("invalid path")
)
