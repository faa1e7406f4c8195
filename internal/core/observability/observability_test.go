package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsExposed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordRequest("/querybuilder.v1.QueryEditor/Open", "OK", 0.002)
	m.RecordMutation("add_rule", true)
	m.RecordMutation("add_rule", false)
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.SessionRejected()
	m.Notifications.Add(3)

	rec := httptest.NewRecorder()
	NewServer("127.0.0.1", 0, reg).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, MetricsPath, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`querybuilder_requests_total{code="OK",method="/querybuilder.v1.QueryEditor/Open"} 1`,
		`querybuilder_mutations_total{applied="true",op="add_rule"} 1`,
		`querybuilder_mutations_total{applied="false",op="add_rule"} 1`,
		`querybuilder_active_sessions 1`,
		`querybuilder_sessions_total{event="rejected"} 1`,
		`querybuilder_notifications_total 3`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestServerStopWithoutStart(t *testing.T) {
	if err := NewServer("127.0.0.1", 0, nil).Stop(t.Context()); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}
