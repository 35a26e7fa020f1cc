package canvas

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStageNotReady is returned when an action runs before its upstream stage exists.
var ErrStageNotReady = errors.New("stage not ready")

// IsStageNotReady returns true if the error is or wraps ErrStageNotReady.
func IsStageNotReady(err error) bool {
	return errors.Is(err, ErrStageNotReady)
}

// ValidationError reports input the founder can fix: missing required
// fields or text too large to embed in a prompt.
type ValidationError struct {
	Missing []Field
	Reason  string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		names := make([]string, len(e.Missing))
		for i, f := range e.Missing {
			names[i] = f.String()
		}
		return fmt.Sprintf("required fields missing: %s", strings.Join(names, ", "))
	}
	return "invalid input: " + e.Reason
}

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
