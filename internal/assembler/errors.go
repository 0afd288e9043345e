package assembler

import (
	"errors"
	"fmt"

	"github.com/vk/ocrbridge/internal/config"
)

var (
	// ErrInvalidArgument marks a request rejected before any side effect:
	// a blank required field, a path outside its root, a missing directory or
	// an empty dataset.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnavailable marks a request for a job kind whose configuration
	// could not be loaded.
	ErrUnavailable = config.ErrUnavailable
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
