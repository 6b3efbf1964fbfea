package service

import "errors"

var (
	// ErrNoImages means generation was invoked with an empty media set.
	// Rejected before any I/O.
	ErrNoImages = errors.New("generation: no images supplied")

	// ErrSuperseded means a newer generation call started while this one was
	// in flight. The stale call refuses to resolve so its result can never
	// overwrite the newer one.
	ErrSuperseded = errors.New("generation: superseded by a newer call")
)
