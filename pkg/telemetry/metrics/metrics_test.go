package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"veridian-hq/lattice/pkg/compliance"
	"veridian-hq/lattice/pkg/inference"
)

func TestCollectorObserveResult(t *testing.T) {
	c := NewCollector(nil)

	c.ObserveResult(compliance.MethodKeyword, compliance.LevelFullyCompliant, 5*time.Millisecond)
	c.ObserveResult(compliance.MethodKeyword, compliance.LevelFullyCompliant, 5*time.Millisecond)
	c.ObserveResult(compliance.MethodSemantic, compliance.LevelNonCompliant, time.Second)

	got := testutil.ToFloat64(c.evaluationsTotal.WithLabelValues("keyword", "fully_compliant"))
	if got != 2 {
		t.Errorf("keyword/fully_compliant = %v, want 2", got)
	}
	got = testutil.ToFloat64(c.evaluationsTotal.WithLabelValues("semantic", "non_compliant"))
	if got != 1 {
		t.Errorf("semantic/non_compliant = %v, want 1", got)
	}
}

func TestCollectorObserveCall(t *testing.T) {
	c := NewCollector(nil)

	c.ObserveCall("", 1, 100*time.Millisecond)
	c.ObserveCall(inference.KindNetwork, 4, time.Second)

	if got := testutil.ToFloat64(c.inferenceCallsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("success calls = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.inferenceCallsTotal.WithLabelValues("network")); got != 1 {
		t.Errorf("network calls = %v, want 1", got)
	}
}

func TestCollectorCircuitState(t *testing.T) {
	c := NewCollector(nil)

	c.ObserveCircuitState(inference.StateOpen)
	if got := testutil.ToFloat64(c.circuitState); got != 2 {
		t.Errorf("circuit state = %v, want 2 for open", got)
	}
	c.ObserveCircuitState(inference.StateClosed)
	if got := testutil.ToFloat64(c.circuitState); got != 0 {
		t.Errorf("circuit state = %v, want 0 for closed", got)
	}
}

func TestCollectorHandler(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(registry)
	c.SetCatalogSize(12)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "lattice_catalog_requirements 12") {
		t.Errorf("exposition missing catalog gauge:\n%s", body)
	}
}
