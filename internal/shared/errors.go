package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Storage errors
	ErrAuthFailed         = fmt.Errorf("authentication failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Song errors
	ErrSongNotFound  = fmt.Errorf("song not found")
	ErrDuplicateSong = fmt.Errorf("song already present")
	ErrNotModified   = fmt.Errorf("song found, but nothing updated")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
