package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Adapters translate them: invalid input and unauthorized
// become client errors, not found hides records of other users too, and
// temporary marks an upstream outage worth retrying later.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTemporary    = errors.New("temporary failure")
)

var kinds = []error{ErrInvalidInput, ErrUnauthorized, ErrNotFound, ErrTemporary}

// WrapError tags err with kind and the failing operation. The result
// matches both kind and err under errors.Is.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// KindOf returns the first error kind err carries, nil for untagged errors.
func KindOf(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

var (
	errOnlyImages = errors.New("only image files are allowed")
	errTooLarge   = errors.New("image exceeds 10MB limit")
)
