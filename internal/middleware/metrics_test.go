package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type routeRecorder struct {
	mu     sync.Mutex
	routes []string
	status []int
}

func (r *routeRecorder) IncUserCreated()    {}
func (r *routeRecorder) IncUserUpdated()    {}
func (r *routeRecorder) IncUserDeleted()    {}
func (r *routeRecorder) IncLoginSucceeded() {}
func (r *routeRecorder) IncLoginFailed()    {}

func (r *routeRecorder) ObserveRequest(method, route string, status int, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, method+" "+route)
	r.status = append(r.status, status)
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	t.Parallel()

	rec := &routeRecorder{}
	r := chi.NewRouter()
	r.Use(Metrics(rec))
	r.Get("/api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/users/"+id, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	want := []string{"GET /api/users/{id}", "GET /api/users/{id}", "GET unmatched"}
	if len(rec.routes) != len(want) {
		t.Fatalf("routes = %v, want %v", rec.routes, want)
	}
	for i := range want {
		if rec.routes[i] != want[i] {
			t.Errorf("routes[%d] = %q, want %q", i, rec.routes[i], want[i])
		}
	}
	if rec.status[0] != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.status[0])
	}
}
