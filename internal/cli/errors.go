package cli

import (
	"errors"
	"fmt"
)

// ExitError carries the process exit code out of a command.
//
// Commands print their own diagnostics through the [output.Printer] and then
// return an ExitError, so cobra stays silent and [Run] can map the failure to
// an exit status without calling os.Exit inside a command. Tests assert on the
// code with [IsExitError].
type ExitError struct {
	Code int
}

// Error matches the os/exec wording, e.g. "exit status 1".
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewExitError returns an [ExitError] for code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

// IsExitError reports whether err is, or wraps, an [ExitError] and returns
// its code.
func IsExitError(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
