package codec

import "fmt"

// CorruptDataError is returned when a stored payload can't be decoded.
type CorruptDataError struct {
	Algorithm Algorithm
	Err       error
}

func (e *CorruptDataError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("corrupt %s data", e.Algorithm)
	}
	return fmt.Sprintf("corrupt %s data: %s", e.Algorithm, e.Err)
}

func (e *CorruptDataError) Unwrap() error {
	return e.Err
}
