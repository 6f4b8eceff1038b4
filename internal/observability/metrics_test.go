package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.IncDelivered()
	m.IncQueued("offline")
	m.IncQueued("Error")
	m.IncRetried("success")
	m.IncEvicted()
	m.ObserveSendDuration(120 * time.Millisecond)
	m.SetQueueDepth(3)
	m.IncEventCaptured("accepted")

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(recorder, request)

	if recorder.Code != 200 {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}

	body := recorder.Body.String()
	for _, want := range []string{
		"notify_agent_payloads_delivered_total 1",
		`notify_agent_payloads_queued_total{reason="offline"} 1`,
		`notify_agent_payloads_queued_total{reason="error"} 1`,
		`notify_agent_retries_total{outcome="success"} 1`,
		"notify_agent_payloads_evicted_total 1",
		"notify_agent_queue_depth 3",
		`notify_agent_events_captured_total{decision="accepted"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestMetricsNilReceiverSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.IncDelivered()
	m.IncQueued("offline")
	m.IncRetried("failure")
	m.IncEvicted()
	m.ObserveSendDuration(time.Second)
	m.SetQueueDepth(1)
	m.IncEventCaptured("rejected")
}
