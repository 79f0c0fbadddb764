package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

var (
	_ Recorder    = (*NoopRecorder)(nil)
	_ Recorder    = (*InMemoryRecorder)(nil)
	_ Recorder    = (*PrometheusRecorder)(nil)
	_ Snapshotter = (*InMemoryRecorder)(nil)
)

func TestInMemoryRecorder(t *testing.T) {
	m := NewInMemory()

	m.IncUserCreated()
	m.IncUserCreated()
	m.IncUserUpdated()
	m.IncUserDeleted()
	m.IncLoginSucceeded()
	m.IncLoginFailed()
	m.IncLoginFailed()
	m.ObserveRequest(http.MethodGet, "/api/users", http.StatusOK, 3*time.Millisecond)

	got := m.Snapshot()
	want := Snapshot{
		UsersCreated:           2,
		UsersUpdated:           1,
		UsersDeleted:           1,
		LoginsSucceeded:        1,
		LoginsFailed:           2,
		RequestCount:           1,
		RequestDurationTotalNs: (3 * time.Millisecond).Nanoseconds(),
	}
	if got != want {
		t.Fatalf("Snapshot() = %+v, want %+v", got, want)
	}
}

func TestPrometheusRecorderCounters(t *testing.T) {
	p := NewPrometheus()

	p.IncUserCreated()
	p.IncUserCreated()
	p.IncUserDeleted()
	p.IncLoginSucceeded()
	p.IncLoginFailed()
	p.ObserveRequest(http.MethodGet, "/api/users/{id}", http.StatusNotFound, 10*time.Millisecond)

	if got := testutil.ToFloat64(p.userEvents.WithLabelValues("created")); got != 2 {
		t.Errorf("created = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.userEvents.WithLabelValues("deleted")); got != 1 {
		t.Errorf("deleted = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.logins.WithLabelValues("failure")); got != 1 {
		t.Errorf("login failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.httpRequests.WithLabelValues("GET", "/api/users/{id}", "404")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
}

func TestPrometheusHandlerExposesMetrics(t *testing.T) {
	p := NewPrometheus()
	p.IncUserCreated()

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `userdesk_users_mutations_total{op="created"} 1`) {
		t.Errorf("exposition missing user counter:\n%s", body)
	}
}
