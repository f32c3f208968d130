package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

func TestWorkerMetricsCountsStagesAndItems(t *testing.T) {
	m := NewWorkerMetrics("worker")

	m.StartItem()
	m.ObserveStage(domain.StageBackgroundRemoval, domain.StageError, time.Second)
	m.ObserveStage(domain.StageCategorization, domain.StageCompleted, time.Second)
	m.FinishItem(2*time.Second, nil)
	m.StartItem()
	m.FinishItem(time.Second, errors.New("store down"))

	if got := testutil.ToFloat64(m.stageTotal.WithLabelValues("worker", "backgroundRemoval", "error")); got != 1 {
		t.Fatalf("expected 1 failed background removal, got %v", got)
	}
	if got := testutil.ToFloat64(m.processTotal.WithLabelValues("worker", "error")); got != 1 {
		t.Fatalf("expected 1 failed task, got %v", got)
	}
	if got := testutil.ToFloat64(m.processInFlight); got != 0 {
		t.Fatalf("expected no in-flight tasks, got %v", got)
	}
}

func TestHTTPMetricsUseRoutePattern(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler { return m.Middleware("api", next) })
	r.Get("/api/clothing/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/clothing/"+id, nil))
	}
	if got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", "GET", "/api/clothing/{id}", "404")); got != 2 {
		t.Fatalf("expected ids collapsed into one series, got %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "closet_http_requests_total") {
		t.Fatalf("expected exposition to include request counter")
	}
}

func TestHTTPMetricsHandlerIncludesWorkerRegistry(t *testing.T) {
	httpMetrics := NewHTTPServerMetrics("api")
	worker := NewWorkerMetrics("api")
	httpMetrics.Include(worker.Registry())
	worker.ObserveStage(domain.StageCategorization, domain.StageCompleted, time.Millisecond)

	rec := httptest.NewRecorder()
	httpMetrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "closet_pipeline_stage_total") {
		t.Fatalf("expected worker series in combined exposition")
	}
}

func TestWorkerMetricsObservesUpstream(t *testing.T) {
	m := NewWorkerMetrics("worker")

	m.ObserveRetry("fal.status")
	m.ObserveRetry("fal.status")
	m.ObserveBreakerState("openai.chat", true)

	if got := testutil.ToFloat64(m.upstreamRetries.WithLabelValues("worker", "fal.status")); got != 2 {
		t.Fatalf("expected 2 retries, got %v", got)
	}
	if got := testutil.ToFloat64(m.breakerOpen.WithLabelValues("worker", "openai.chat")); got != 1 {
		t.Fatalf("expected open breaker, got %v", got)
	}
	m.ObserveBreakerState("openai.chat", false)
	if got := testutil.ToFloat64(m.breakerOpen.WithLabelValues("worker", "openai.chat")); got != 0 {
		t.Fatalf("expected closed breaker, got %v", got)
	}
}
