package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserve(t *testing.T) {
	m := New()
	m.Observe("clean", time.Now(), nil)
	m.Observe("clean", time.Now(), errors.New("boom"))
	m.Observe("clean", time.Now(), nil)

	if got := testutil.ToFloat64(m.operations.WithLabelValues("clean", OutcomeOK)); got != 2 {
		t.Errorf("ok count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("clean", OutcomeError)); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
}

func TestTrack(t *testing.T) {
	m := New()
	done := m.Track()
	if got := testutil.ToFloat64(m.inFlight); got != 1 {
		t.Fatalf("in flight = %v, want 1", got)
	}
	done()
	if got := testutil.ToFloat64(m.inFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.Observe("preview", time.Now(), nil)
	m.AddRows("preview", 10)
	m.Rejected()
	m.Track()()
}

func TestHandler(t *testing.T) {
	m := New()
	m.AddRows("summary", 42)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `horisation_rows_processed_total{operation="summary"} 42`) {
		t.Errorf("rows counter missing from exposition:\n%s", rec.Body.String())
	}
}
