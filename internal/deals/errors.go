package deals

import "errors"

// Error classes. Call sites wrap these with context via xerrors so the
// transport layer can map a failure to a status code with errors.Is while
// the log line keeps the specifics.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	ErrBadRequest = errors.New("bad request")
)
