package stream

import "errors"

var (
	// ErrUpstreamUnavailable indicates the origin could not be reached or did not
	// produce response headers. Nothing has been sent to the caller yet.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrInvalidRange indicates a syntactically malformed Range header.
	ErrInvalidRange = errors.New("invalid range header")
	// ErrObjectNotFound is returned by origins that report missing objects as errors
	// rather than as an HTTP status.
	ErrObjectNotFound = errors.New("object not found")
	// ErrRangeNotSatisfiable is returned by origins that report unsatisfiable
	// ranges as errors rather than as an HTTP status.
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
)

// UpstreamError wraps a pre-stream origin failure. It matches both
// ErrUpstreamUnavailable and the underlying cause.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstreamUnavailable, e.Err}
}

// RangeNotSatisfiableError carries the object size, when the origin knows it,
// so the 416 response can say "bytes */<size>". Size is negative when unknown.
type RangeNotSatisfiableError struct {
	Key  string
	Size int64
}

func (e *RangeNotSatisfiableError) Error() string {
	return e.Key + ": " + ErrRangeNotSatisfiable.Error()
}

func (e *RangeNotSatisfiableError) Is(target error) bool {
	return target == ErrRangeNotSatisfiable
}
