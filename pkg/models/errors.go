package models

import "fmt"

// ParseError reports a model buffer the loader could not decode.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErrorf(format, msg string, args ...any) *ParseError {
	return &ParseError{Format: format, Err: fmt.Errorf(msg, args...)}
}
