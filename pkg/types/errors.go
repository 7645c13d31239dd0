package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the search engine. Channel-local conditions
// (ErrIndexUnavailable, ErrTransportFailure) are carried as per-channel
// markers and never abort a whole search; ErrMalformedDate aborts query
// construction before any scan starts.
var (
	// ErrMalformedDate reports an unparseable after/before date string.
	ErrMalformedDate = errors.New("malformed date")

	// ErrIndexUnavailable reports a corrupt or missing persisted index for
	// one channel. The channel contributes zero records for the search.
	ErrIndexUnavailable = errors.New("channel index unavailable")

	// ErrTransportFailure reports a history fetch failure on the live path.
	// The channel's partial results gathered so far are still returned.
	ErrTransportFailure = errors.New("history fetch failed")

	// ErrNoMoreResults signals that a continuation search produced nothing.
	// Distinct from an empty first page, which is a plain empty bundle.
	ErrNoMoreResults = errors.New("no more results")
)

// MalformedDateError carries the input string that failed to parse, so
// callers can echo it back to the user. It unwraps to ErrMalformedDate.
type MalformedDateError struct {
	Input string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("%v: %q", ErrMalformedDate, e.Input)
}

func (e *MalformedDateError) Unwrap() error { return ErrMalformedDate }
