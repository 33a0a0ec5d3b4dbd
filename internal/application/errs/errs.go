package errs

import "fmt"

type ValidationError struct {
	Msg string
}

func (t ValidationError) Error() string {
	return t.Msg
}

type RetryableError struct {
	Err error
}

func (t RetryableError) Error() string {
	return fmt.Sprintf("retryable error: %v", t.Err)
}

func (t RetryableError) Unwrap() error {
	return t.Err
}
