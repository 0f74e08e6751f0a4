package presenter

import (
	"errors"
	"fmt"
)

// ErrSuperseded reports a load whose results were discarded because a
// newer LoadScene call started before it finished.
var ErrSuperseded = errors.New("load superseded by a newer one")

// ErrDisposed reports an operation on a disposed presenter.
var ErrDisposed = errors.New("presenter disposed")

// FetchError reports a non-success HTTP status while fetching a model
// file.
type FetchError struct {
	URL    string
	Status int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
}
