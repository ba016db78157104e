package slots

import "errors"

var (
	// ErrMalformedTimestamp means a stored booking row carries a start or
	// end string that is not ISO-8601 parseable. The row is corrupted data;
	// skipping it would under-count conflicts, so generation aborts.
	ErrMalformedTimestamp = errors.New("malformed timestamp")

	// ErrStoreUnavailable means the booking store could not be read. The
	// generation call fails as a whole; offering slots against an assumed
	// empty calendar could double-book.
	ErrStoreUnavailable = errors.New("booking store unavailable")
)
