package profile

import (
	"errors"
	"fmt"
)

// ErrCorruptProfile marks persisted tables that are inconsistent or unreadable
var ErrCorruptProfile = errors.New("corrupt profile")

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptProfile, fmt.Sprintf(format, args...))
}

// InvariantViolation is the panic value raised when a per-tag table is
// indexed beyond its bounds, meaning it was not resized with the vocabulary.
type InvariantViolation struct {
	TagID uint32
	Size  int
}

func (e InvariantViolation) Error() string {
	return fmt.Sprintf("tag id %d out of range for table of size %d", e.TagID, e.Size)
}
