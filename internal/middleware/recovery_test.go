package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecoverer(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestID(Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("database exploded: password=hunter2")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != "INTERNAL_ERROR" || body.Error != msgInternal {
		t.Errorf("body = %+v", body)
	}
	if strings.Contains(rec.Body.String(), "hunter2") {
		t.Error("panic value must not leak into the response")
	}

	logOutput := buf.String()
	if !strings.Contains(logOutput, "panic recovered") {
		t.Error("panic should be logged")
	}
	if !strings.Contains(logOutput, rec.Header().Get(RequestIDHeader)) {
		t.Error("panic log should carry the request id")
	}
}
