package fs

import "errors"

// Sentinel errors providers wrap so the organizer can classify failures
// without depending on provider internals.
var (
	ErrNotFound     = errors.New("not found")
	ErrAccessDenied = errors.New("access denied")
)

// IsNotFound reports whether err wraps ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAccessDenied reports whether err wraps ErrAccessDenied
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}
