package metrics

import (
	"testing"
)

// Global metrics instance (reused across enabled tests to avoid Prometheus registry conflicts)
var globalMetrics *Metrics

func init() {
	globalMetrics = New(true)
}

func TestMetricsEnabled(t *testing.T) {
	if globalMetrics == nil {
		t.Fatal("metrics should not be nil")
	}
}

func TestMetricsDisabled(t *testing.T) {
	m := New(false)

	if m == nil {
		t.Fatal("metrics should not be nil (noop)")
	}

	// These should not panic even though they're noop
	m.RecordRequest("GET", 0.01)
	m.RecordRequestFailure("SERVER_ERROR")
	m.RecordRetry()
	m.RecordAuthEvent("login", "success")
	m.SetSessionActive(true)
}

func TestRecordRequest(t *testing.T) {
	// Should not panic
	globalMetrics.RecordRequest("GET", 0.001)
	globalMetrics.RecordRequest("POST", 0.2)
}

func TestRecordRequestFailure(t *testing.T) {
	// Should not panic
	globalMetrics.RecordRequestFailure("NETWORK_ERROR")
	globalMetrics.RecordRequestFailure("UNAUTHENTICATED")
}

func TestRecordAuthEvent(t *testing.T) {
	// Should not panic
	globalMetrics.RecordAuthEvent("login", "failure")
	globalMetrics.RecordAuthEvent("logout", "success")
}

func TestSetSessionActive(t *testing.T) {
	globalMetrics.SetSessionActive(true)
	globalMetrics.SetSessionActive(false)
}
