package customs

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by every component. Wrap them (see Wrap) so callers
// can classify failures with errors.Is.
//
//   - ErrInvalidInput: malformed creation request, nothing was created
//   - ErrNotFound: an operation referenced an unknown id
//   - ErrConflict: the operation collides with in-flight work
//   - ErrDuplicate: an id is already present (a kind of conflict)
//   - ErrStaleCompletion: a completion arrived after the declaration moved on
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrDuplicate       = fmt.Errorf("%w: duplicate", ErrConflict)
	ErrStaleCompletion = errors.New("stale completion")
	ErrClosed          = errors.New("closed")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		if err == nil {
			return errors.New(detail)
		}
		return fmt.Errorf("%s: %w", detail, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short classification for logs and metric labels.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrStaleCompletion):
		return "stale_completion"
	case errors.Is(err, ErrClosed):
		return "closed"
	default:
		return "internal"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "customs failure"
	}
	return strings.Join(parts, ": ")
}
