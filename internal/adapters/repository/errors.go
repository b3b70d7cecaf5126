package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrOpen     = errors.New("open repository failed")
	ErrNotFound = errors.New("record not found")
)
