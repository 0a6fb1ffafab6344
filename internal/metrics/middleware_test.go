package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Route("/index/{ix}", func(r chi.Router) {
		r.Post("/query", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok"))
		})
		r.Get("/documents/{id}", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		r.Delete("/documents/{id}", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func serve(r http.Handler, method, path string) int {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(method, path, http.NoBody))
	return rr.Code
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := newRouter()
	counter := httpRequestsTotal.WithLabelValues("POST", "/index/{ix}/query", "200")
	before := testutil.ToFloat64(counter)

	serve(r, "POST", "/index/news/query")
	serve(r, "POST", "/index/archive/query")

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("requests for /index/{ix}/query = %v, want 2", got)
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := newRouter()
	tests := []struct {
		method, path, route, status string
	}{
		{"GET", "/index/news/documents/d1", "/index/{ix}/documents/{id}", "404"},
		{"DELETE", "/index/news/documents/d1", "/index/{ix}/documents/{id}", "204"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			counter := httpRequestsTotal.WithLabelValues(tc.method, tc.route, tc.status)
			before := testutil.ToFloat64(counter)

			serve(r, tc.method, tc.path)

			if got := testutil.ToFloat64(counter) - before; got != 1 {
				t.Errorf("requests{%s %s %s} grew by %v, want 1", tc.method, tc.route, tc.status, got)
			}
		})
	}
}

func TestMiddleware_UnmatchedRoute(t *testing.T) {
	r := newRouter()
	counter := httpRequestsTotal.WithLabelValues("GET", unmatchedRoute, "404")
	before := testutil.ToFloat64(counter)

	serve(r, "GET", "/wp-admin/setup.php")
	serve(r, "GET", "/.env")

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("unmatched requests grew by %v, want 2", got)
	}
}

func TestMiddleware_InFlightReturnsToZero(t *testing.T) {
	r := newRouter()
	serve(r, "POST", "/index/news/query")
	if got := testutil.ToFloat64(httpRequestsInFlight); got != 0 {
		t.Errorf("in flight = %v after request, want 0", got)
	}
}

func TestMetricsHandler_ExposesHTTPMetrics(t *testing.T) {
	r := newRouter()
	serve(r, "POST", "/index/news/query")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, name := range []string{"docsearch_http_requests_total", "docsearch_http_requests_in_flight"} {
		if !strings.Contains(body, name) {
			t.Errorf("expected %s in metrics output", name)
		}
	}
}
