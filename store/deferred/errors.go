package deferred

import "fmt"

// StoreUnavailableError is returned for every operation on a store whose
// backend failed to open.
type StoreUnavailableError struct {
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("asset store is unavailable: %s", e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}
