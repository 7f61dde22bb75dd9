package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type recordedRequest struct {
	method, route string
	status        int
}

type fakeRecorder struct{ calls []recordedRequest }

func (f *fakeRecorder) Record(method, route string, status int, _ time.Duration) {
	f.calls = append(f.calls, recordedRequest{method, route, status})
}

func TestLoggerRecordsRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	recorder := &fakeRecorder{}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger, recorder))
	r.Get("/scores/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/scores/42", nil))

	if len(recorder.calls) != 1 {
		t.Fatalf("expected one recorded request, got %d", len(recorder.calls))
	}
	if got := recorder.calls[0]; got.route != "/scores/{id}" || got.status != http.StatusNotFound {
		t.Fatalf("unexpected recording %+v", got)
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON log line: %v (%s)", err, buf.String())
	}
	if line["path"] != "/scores/42" || line["requestId"] == "" || line["status"] != float64(http.StatusNotFound) {
		t.Fatalf("unexpected log line %v", line)
	}
}
