package structures

import (
	"errors"
	"fmt"
)

// Error kinds. Every store failure unwraps to exactly one of these.
var (
	ErrAuth   = errors.New("authentication failed")
	ErrLoad   = errors.New("failed to load videos")
	ErrUpload = errors.New("failed to upload video")
	ErrUpdate = errors.New("failed to update video")
	ErrDelete = errors.New("failed to delete video")
)

// Preconditions checked locally before any request is issued.
var (
	ErrNotAuthenticated = errors.New("not signed in")
	ErrNotOwned         = errors.New("video is not in your videos")
)

// Error classifies a failed operation.
type Error struct {
	Kind error  // one of ErrAuth, ErrLoad, ErrUpload, ErrUpdate, ErrDelete
	Op   string // operation name, e.g. "createVideo"
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap classifies err under kind. An error already carrying the same kind is
// returned unchanged.
func Wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) && se.Kind == kind {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// UserMessage returns the single notification shown to the user for err.
// Auth failures never leak server detail.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotAuthenticated):
		return "Please sign in first"
	case opOf(err) == "updateName":
		// Renames carry no credentials
		return "Could not update name"
	case errors.Is(err, ErrAuth):
		return "Invalid credentials"
	case errors.Is(err, ErrNotOwned):
		return "You can only edit your own videos"
	case errors.Is(err, ErrLoad):
		return "Error while loading videos"
	case errors.Is(err, ErrUpload):
		return "Failed to upload video, try again"
	case errors.Is(err, ErrUpdate):
		return "Error updating video"
	case errors.Is(err, ErrDelete):
		return "Error deleting video"
	default:
		return "Something went wrong"
	}
}

func opOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Op
	}
	return ""
}
