package contract

import "errors"

var (
	// ErrVersionConflict is returned when a chat changed since it was loaded.
	ErrVersionConflict = errors.New("chat was modified concurrently")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)
