package attach

import (
	"errors"
	"fmt"
)

// ErrRejectedInput is wrapped by Consumer errors that reject the given
// payload representation, as opposed to the asset itself.
var ErrRejectedInput = errors.New("input representation rejected")

// ConsumerRejectedError is returned when the consumer rejected every payload
// representation.
type ConsumerRejectedError struct {
	Asset string
	Err   error
}

func (e *ConsumerRejectedError) Error() string {
	return fmt.Sprintf("failed attaching %s: %s", e.Asset, e.Err)
}

func (e *ConsumerRejectedError) Unwrap() error {
	return e.Err
}
