package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Delete("/api/v1/documents/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"1", "2", "3"} {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+id, http.NoBody)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("DELETE", "/api/v1/documents/{id}", "404"))
	if got != 3 {
		t.Errorf("requests_total = %f, want 3", got)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected duration observations")
	}
}

func TestMiddleware_ImplicitOK(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/api/v1/search", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", http.NoBody)
	r.ServeHTTP(httptest.NewRecorder(), req)

	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/api/v1/search", "200")); v < 1 {
		t.Errorf("expected 200 to be recorded, got %f", v)
	}
}

func TestMiddleware_SkipsScrapes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/metrics", "200")); v != 0 {
		t.Errorf("scrapes must not be counted, got %f", v)
	}
}

func TestNormalizePath(t *testing.T) {
	if got := normalizePath(""); got != "unknown" {
		t.Errorf("normalizePath(\"\") = %q", got)
	}
	if got := normalizePath("/health"); got != "/health" {
		t.Errorf("normalizePath(/health) = %q", got)
	}
}

func TestRegister_Idempotent(t *testing.T) {
	RegisterEmbeddingMetrics()
	RegisterEmbeddingMetrics()
	RegisterSearchMetrics()
	RegisterSearchMetrics()

	FusionDroppedTotal.WithLabelValues("below_min_score").Add(2)
	if v := testutil.ToFloat64(FusionDroppedTotal.WithLabelValues("below_min_score")); v < 2 {
		t.Errorf("fusion_dropped_total = %f", v)
	}
}
