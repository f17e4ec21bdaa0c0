package app

import "errors"

// ExitError carries the process exit code out of a run. A nil Err means the failure was
// already reported.
type ExitError struct {
	Code int
	Err  error
}

func (e ExitError) Error() string {
	if e.Err == nil {
		return "exit"
	}
	return e.Err.Error()
}

func (e ExitError) Unwrap() error {
	return e.Err
}

func Exit(code int) error {
	return ExitError{Code: code}
}

func ExitWithError(code int, err error) error {
	return ExitError{Code: code, Err: err}
}

// AsExitError finds an ExitError anywhere in err's chain.
func AsExitError(err error) (ExitError, bool) {
	var ee ExitError
	if err == nil || !errors.As(err, &ee) {
		return ExitError{}, false
	}
	return ee, true
}
