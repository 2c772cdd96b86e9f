package source

import "fmt"

// DecodeError is returned when input couldn't be interpreted as binary data.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("could not load the processed file '%s': %s", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
