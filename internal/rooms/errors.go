package rooms

import "errors"

// Error kinds. Every error returned by the Store unwraps to one of these.
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAuthorization = errors.New("not authorized")
)

// Error carries the message shown to the client that caused it.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Messages sent back in error{message}.
const (
	msgRoomAndUserRequired = "Room ID and user ID are required"
	msgRoomExists          = "Room already exists"
	msgRoomMissing         = "Room does not exist"
	msgHostOnly            = "Only the host can end the room"
	msgMissingFields       = "Missing required fields"
	msgRoomNotFound        = "Room not found"
	msgPullRequestNotFound = "Pull request not found"
	msgOwnerOnly           = "Only room owner can review pull requests"
)
