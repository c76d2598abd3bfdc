package database

import "errors"

// Sentinel errors let handlers distinguish domain misses and invariant
// violations from storage failures.
var (
	// ErrNotFound means the requested row does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate means a uniqueness constraint was violated
	// (duplicate membership, duplicate token)
	ErrDuplicate = errors.New("duplicate record")
)
