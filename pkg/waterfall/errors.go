// ABOUTME: Error values returned by the waterfall engine
// ABOUTME: Sentinels for load state plus a typed validation error
package waterfall

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotFound is returned by Load when the path is not a readable regular file
	ErrFileNotFound = errors.New("file not found")

	// ErrNotLoaded is returned by queries on an engine with no source
	ErrNotLoaded = errors.New("no file loaded")
)

// ValidationError reports a rejected setting. The engine state is left
// unchanged when one is returned.
type ValidationError struct {
	Setting string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Setting, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(setting string, err error) *ValidationError {
	return &ValidationError{Setting: setting, Message: err.Error(), Err: err}
}
