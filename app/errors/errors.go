package errors

// WithCause is implemented by errors that wrap a lower-level cause.
type WithCause interface{ Cause() error }

// WithHint is implemented by errors that suggest a fix to the user.
type WithHint interface{ Hint() string }

// Runtime is an error shown to the CLI user.
type Runtime struct {
	msg   string
	cause error
	hint  string
}

// NewRuntimeError returns a Runtime error.
func NewRuntimeError(msg string, cause error, hint string) Runtime {
	return Runtime{msg: msg, cause: cause, hint: hint}
}

func (e Runtime) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e Runtime) Cause() error {
	return e.cause
}

func (e Runtime) Unwrap() error {
	return e.cause
}

func (e Runtime) Hint() string {
	return e.hint
}
