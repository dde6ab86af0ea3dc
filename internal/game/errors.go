// internal/game/errors.go
package game

import "fmt"

// ValidationError marks an action rejected without touching session state.
// Handlers translate it into an ERROR message with unlockAction set, so the
// client may release its pending-action lock and retry.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

func validationErrorf(format string, args ...interface{}) error {
	return ValidationError(fmt.Sprintf(format, args...))
}
