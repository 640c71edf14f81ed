package catalog

import "errors"

var (
	// ErrDuplicate means a manga with the same (title, language) pair
	// already exists.
	ErrDuplicate = errors.New("manga already exists")

	// ErrNotFound means the requested manga id is not in the store.
	ErrNotFound = errors.New("manga not found")

	// ErrInvalidRating means a star rating outside the 1-5 range.
	ErrInvalidRating = errors.New("star rating must be between 1 and 5")
)
