package assistant

import "errors"

var (
	// ErrInvalidRequest reports a client-caused problem such as an empty message.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnknownFunction is returned when the model names a function the
	// dispatcher does not implement.
	ErrUnknownFunction = errors.New("unknown function")

	// ErrUpstreamModel is returned when the model call fails or its function
	// arguments cannot be used.
	ErrUpstreamModel = errors.New("upstream model error")
)
