package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersCreated           uint64
	UsersUpdated           uint64
	UsersDeleted           uint64
	LoginsSucceeded        uint64
	LoginsFailed           uint64
	RequestCount           uint64
	RequestDurationTotalNs int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	usersCreated           uint64
	usersUpdated           uint64
	usersDeleted           uint64
	loginsSucceeded        uint64
	loginsFailed           uint64
	requestCount           uint64
	requestDurationTotalNs int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersCreated:           atomic.LoadUint64(&m.usersCreated),
		UsersUpdated:           atomic.LoadUint64(&m.usersUpdated),
		UsersDeleted:           atomic.LoadUint64(&m.usersDeleted),
		LoginsSucceeded:        atomic.LoadUint64(&m.loginsSucceeded),
		LoginsFailed:           atomic.LoadUint64(&m.loginsFailed),
		RequestCount:           atomic.LoadUint64(&m.requestCount),
		RequestDurationTotalNs: atomic.LoadInt64(&m.requestDurationTotalNs),
	}
}

// IncUserCreated increments user created counter.
func (m *InMemoryRecorder) IncUserCreated() {
	atomic.AddUint64(&m.usersCreated, 1)
}

// IncUserUpdated increments user updated counter.
func (m *InMemoryRecorder) IncUserUpdated() {
	atomic.AddUint64(&m.usersUpdated, 1)
}

// IncUserDeleted increments user deleted counter.
func (m *InMemoryRecorder) IncUserDeleted() {
	atomic.AddUint64(&m.usersDeleted, 1)
}

// IncLoginSucceeded increments successful login counter.
func (m *InMemoryRecorder) IncLoginSucceeded() {
	atomic.AddUint64(&m.loginsSucceeded, 1)
}

// IncLoginFailed increments failed login counter.
func (m *InMemoryRecorder) IncLoginFailed() {
	atomic.AddUint64(&m.loginsFailed, 1)
}

// ObserveRequest records one handled HTTP request.
func (m *InMemoryRecorder) ObserveRequest(method, route string, status int, duration time.Duration) {
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddInt64(&m.requestDurationTotalNs, duration.Nanoseconds())
}
