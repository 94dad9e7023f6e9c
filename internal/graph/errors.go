package graph

import "errors"

// Error kinds returned by Service. Callers match them with errors.Is; the
// wrapped message says what exactly was wrong. Anything else is a failure
// of the datastore or blob store.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidParent   = errors.New("invalid parent")
	ErrCycleDetected   = errors.New("cycle detected")
	ErrGranteeNotFound = errors.New("grantee not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotTrashed      = errors.New("not in trash")
)
