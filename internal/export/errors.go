package export

import (
	"errors"
	"fmt"
)

// ErrClosed is returned when attempting to use a closed [Renderer].
var ErrClosed = errors.New("export: renderer is closed")

// Error reports a failed export.
type Error struct {
	Format Format
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("export %s: %v", e.Format, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
