package osv

import "errors"

// Error taxonomy for the remote tool boundary. Callers match with errors.Is;
// anything wrapping ErrTransport or ErrService is recorded per query and the
// batch continues, while ErrNotFound on an ID lookup is an empty result.
var (
	// ErrTransport: the tool server could not be reached (connect, timeout,
	// broken session).
	ErrTransport = errors.New("osv: transport failure")

	// ErrService: the server responded but the payload was malformed, empty,
	// or a tool-level error.
	ErrService = errors.New("osv: unusable service response")

	// ErrNotFound: a vulnerability-ID lookup matched nothing.
	ErrNotFound = errors.New("osv: vulnerability not found")
)
