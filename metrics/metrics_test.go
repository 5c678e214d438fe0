package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jrife/tokenbook/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	m := metrics.New(nil)

	m.ObserveOutcall(metrics.OutcomeOK)
	m.ObserveOutcall(metrics.OutcomeOK)
	m.ObserveOutcall(metrics.OutcomeDisagreed)
	m.ObserveCycles(90_000_000)
	m.ObserveUpdate("save", "ok")

	if v := testutil.ToFloat64(m.OutcallCounter(metrics.OutcomeOK)); v != 2 {
		t.Fatalf("expected 2 ok outcalls, got %f", v)
	}

	if v := testutil.ToFloat64(m.OutcallCounter(metrics.OutcomeDisagreed)); v != 1 {
		t.Fatalf("expected 1 disagreement, got %f", v)
	}

	if v := testutil.ToFloat64(m.CyclesCounter()); v != 90_000_000 {
		t.Fatalf("expected 90000000 cycles, got %f", v)
	}

	if v := testutil.ToFloat64(m.UpdateCounter("save", "ok")); v != 1 {
		t.Fatalf("expected 1 update, got %f", v)
	}

	recorder := httptest.NewRecorder()
	m.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(recorder.Body)

	if !strings.Contains(string(body), "tokenbook_outcalls_total") {
		t.Fatalf("expected exposition to contain tokenbook_outcalls_total, got %s", body)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *metrics.Metrics

	m.ObserveOutcall(metrics.OutcomeOK)
	m.ObserveCycles(1)
	m.ObserveUpdate("save", "ok")

	if m.Handler() == nil {
		t.Fatalf("expected a handler")
	}
}
