package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrNoReader is returned when an upload has no readable body.
	ErrNoReader = errors.New("no file handle")
	// ErrFileTooLarge is returned when an upload exceeds the size ceiling.
	ErrFileTooLarge = errors.New("file exceeds upload limit")
)

// FileReadError reports that an uploaded file could not be read. Malformed
// rows never produce an error.
type FileReadError struct {
	Name string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("failed to read file %q: %v", e.Name, e.Err)
}

func (e *FileReadError) Unwrap() error {
	return e.Err
}
