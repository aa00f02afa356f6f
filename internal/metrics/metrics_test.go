package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("scrape status = %d", w.Code)
	}
	body, _ := io.ReadAll(w.Result().Body)
	return string(body)
}

func TestInstrument_RecordsRouteAndStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	h := c.Instrument("DELETE /del/{reg}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/del/999", nil))

	body := scrape(t, reg)
	want := `students_api_http_requests_total{route="DELETE /del/{reg}",status="404"} 1`
	if !strings.Contains(body, want) {
		t.Errorf("scrape output missing %q:\n%s", want, body)
	}
	if !strings.Contains(body, "students_api_http_request_duration_seconds_count") {
		t.Error("latency histogram missing")
	}
}

func TestInstrument_ImplicitOK(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	h := c.Instrument("GET /", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if body := scrape(t, reg); !strings.Contains(body, `route="GET /",status="200"`) {
		t.Errorf("expected status 200 sample:\n%s", body)
	}
}

func TestRecordAuthFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuthFailure("expired")
	c.RecordAuthFailure("expired")

	if body := scrape(t, reg); !strings.Contains(body, `students_api_auth_failures_total{reason="expired"} 2`) {
		t.Errorf("auth failure counter missing:\n%s", body)
	}
}
