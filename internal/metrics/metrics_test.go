package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareLabelsByPattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/performance/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := Middleware(mux)

	for _, id := range []string{"1", "2", "3"} {
		req := httptest.NewRequest(http.MethodDelete, "/api/performance/"+id, nil)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodDelete, "DELETE /api/performance/{id}", "404"))
	if got != 3 {
		t.Fatalf("expected 3 requests under one series, got %v", got)
	}
}

func TestMiddlewareUnmatchedRoute(t *testing.T) {
	h := Middleware(http.NewServeMux())
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")); got != 1 {
		t.Fatalf("expected unmatched series, got %v", got)
	}
}

func TestObserveIngest(t *testing.T) {
	ObserveIngest("bu_metrics", "done", 4, 1)
	ObserveIngest("bu_metrics", "rejected", 0, 0)
	if got := testutil.ToFloat64(ingestRowsTotal.WithLabelValues("bu_metrics", "committed")); got != 4 {
		t.Fatalf("committed rows = %v", got)
	}
	if got := testutil.ToFloat64(ingestRunsTotal.WithLabelValues("bu_metrics", "rejected")); got != 1 {
		t.Fatalf("rejected runs = %v", got)
	}
}

func TestHandlerExposesSeries(t *testing.T) {
	ObserveLogin("success")
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `dashboard_login_attempts_total{outcome="success"}`) {
		t.Fatalf("login counter missing from exposition")
	}
}
