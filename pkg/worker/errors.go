package worker

import "errors"

var (
	// ErrNilProcessor is raised when a pool is created without a processor.
	ErrNilProcessor = errors.New("worker pool processor must not be nil")
	// ErrPoolNotStarted is returned when work is submitted before Start.
	ErrPoolNotStarted = errors.New("worker pool not started")
	// ErrPoolStopped is returned when work is submitted after Stop.
	ErrPoolStopped = errors.New("worker pool stopped")
	// ErrPoolAlreadyStarted is returned on a second Start.
	ErrPoolAlreadyStarted = errors.New("worker pool already started")
	// ErrQueueFull is returned when the work queue is at capacity.
	ErrQueueFull = errors.New("worker pool queue full")
	// ErrStopTimeout is returned when workers do not drain in time.
	ErrStopTimeout = errors.New("worker pool stop timed out")
)
