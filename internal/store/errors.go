package store

import "errors"

// User-facing error kinds. The chat adapter renders these as command
// failures with explanatory text; they never crash the process.
var (
	// ErrDuplicateName is returned when creating a list whose name already
	// exists in the guild (case-insensitive compare).
	ErrDuplicateName = errors.New("a list with that name already exists")

	// ErrListNotFound is returned when no list with the given name exists
	// in the guild.
	ErrListNotFound = errors.New("list not found")

	// ErrItemNotFound is returned when an item position is outside the
	// list's current range.
	ErrItemNotFound = errors.New("item not found")

	// ErrNotAuthorized is returned when a delete is requested by someone
	// other than the list's creator.
	ErrNotAuthorized = errors.New("only the list creator can do that")
)

// IsUserError returns true if the error is one of the user-facing kinds,
// as opposed to an internal storage failure.
func IsUserError(err error) bool {
	return errors.Is(err, ErrDuplicateName) ||
		errors.Is(err, ErrListNotFound) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrNotAuthorized)
}
