package session

import "github.com/sipward/sipsession/internal/errorutil"

// Common errors.
const (
	ErrInvalidArgument = errorutil.ErrInvalidArgument
)

// Session errors.
const (
	// ErrAlreadySent is returned when a message session is sent twice.
	ErrAlreadySent Error = "message already sent"
	// ErrNotPublished is returned when ending a publication that is not active.
	ErrNotPublished Error = "nothing is currently published"
	// ErrNoEntityTag is returned on a body-less publication refresh
	// when no entity tag from a previous publish is held.
	ErrNoEntityTag Error = "cannot refresh publication without entity tag"
)

// Error represents a session error.
// See [errorutil.Error].
type Error = errorutil.Error

// NewInvalidArgumentError creates a new error with [ErrInvalidArgument] or
// wraps provided error with [ErrInvalidArgument].
func NewInvalidArgumentError(args ...any) error {
	return errorutil.NewInvalidArgumentError(args...) //errtrace:skip
}
