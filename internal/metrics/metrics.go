// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory.
type Recorder interface {
	// User management metrics
	IncUserCreated()
	IncUserUpdated()
	IncUserDeleted()

	// Authentication metrics
	IncLoginSucceeded()
	IncLoginFailed()

	// HTTP metrics; route is the matched route pattern, not the raw path.
	ObserveRequest(method, route string, status int, duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
