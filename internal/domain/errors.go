package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrIncompleteSelection is returned when a cycle is started without a repository or a full date range.
	ErrIncompleteSelection = errors.New("incomplete selection")
	// ErrUnknownRepository is returned for a repository outside the configured set.
	ErrUnknownRepository = errors.New("unknown repository")
	// ErrInvalidRange is returned for unparsable dates or, when validation is enabled, from > to.
	ErrInvalidRange = errors.New("invalid date range")
	// ErrSuperseded is returned by a cycle that was cancelled by a reset or a newer cycle.
	ErrSuperseded = errors.New("fetch cycle superseded")
)

// NetworkError is a failed or timed out request to the search API.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedResponseError is a response that is missing expected fields or
// carries values that cannot be correct.
type MalformedResponseError struct {
	Op    string
	Field string
	Err   error
}

func (e *MalformedResponseError) Error() string {
	msg := fmt.Sprintf("malformed response during %s", e.Op)
	if e.Field != "" {
		msg += fmt.Sprintf(": field %q", e.Field)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// StallError is returned when pagination cannot reach the expected number of records.
// Timeout is set when the bound on waiting was hit, and zero when every page
// completed but the record count still differs from the expected total.
type StallError struct {
	Expected int
	Received int
	Timeout  time.Duration
}

func (e *StallError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("pagination stalled: received %d of %d pull requests within %s", e.Received, e.Expected, e.Timeout)
	}
	return fmt.Sprintf("pagination stalled: received %d of %d pull requests after all pages completed", e.Received, e.Expected)
}
