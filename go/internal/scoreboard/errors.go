package scoreboard

import (
	"errors"
	"fmt"
)

// ErrValidationRejected is returned when a command names an unknown team,
// display mode or colour element. The command leaves the state untouched.
var ErrValidationRejected = errors.New("validation rejected")

func rejectf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidationRejected}, args...)...)
}
