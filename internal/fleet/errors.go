package fleet

import (
	"errors"
	"fmt"
)

// ErrUnknownShip is returned by GetShip for an IMO that is not tracked in mock mode.
var ErrUnknownShip = errors.New("unknown ship")

// UnavailableError means no ship request in the batch succeeded.
type UnavailableError struct {
	Attempted int
	Err       error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("fleet unavailable: all %d ship requests failed: %v", e.Attempted, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// UserMessage is the text shown on the full-page error panel.
func (e *UnavailableError) UserMessage() string {
	return "Live ship data is unavailable. Check your connection or switch to mock mode."
}
