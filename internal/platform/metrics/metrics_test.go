package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCountsRequestsByRoute(t *testing.T) {
	c := New()
	c.Record(http.MethodGet, "/api/v1/scores", http.StatusOK, 20*time.Millisecond)
	c.Record(http.MethodGet, "/api/v1/scores", http.StatusOK, 30*time.Millisecond)
	c.Record(http.MethodPost, "", http.StatusTooManyRequests, time.Millisecond)

	if got := testutil.ToFloat64(c.requests.WithLabelValues(http.MethodGet, "/api/v1/scores", "200")); got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}
	if got := testutil.ToFloat64(c.requests.WithLabelValues(http.MethodPost, "unmatched", "429")); got != 1 {
		t.Fatalf("expected unmatched route label, got %v", got)
	}
	if got := testutil.ToFloat64(c.rateLimited); got != 1 {
		t.Fatalf("expected 1 rate limited request, got %v", got)
	}
}

func TestHandlerExposesDomainCounters(t *testing.T) {
	c := New()
	c.ObserveRecompute("computed")
	c.ObserveJob("final_score_recompute", "completed")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		`scorecard_final_scores_recomputes_total{outcome="computed"} 1`,
		`scorecard_jobs_runs_total{status="completed",type="final_score_recompute"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics output", want)
		}
	}
}
