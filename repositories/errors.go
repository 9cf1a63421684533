package repositories

import "errors"

// ErrNotFound is returned when a lookup matches no row or file. Callers
// translate it into their own taxonomy; it never carries transport details.
var ErrNotFound = errors.New("record not found")
