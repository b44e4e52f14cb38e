package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerExposesEveryCounter(t *testing.T) {
	m := New()
	m.AnchorsReceivedTotal.Inc()
	m.FinalityEventsTotal.Add(3)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, name := range []string{
		"anchors_received_total",
		"anchors_verified_total",
		"invalid_envelopes_total",
		"lrucache_evictions_total",
		"finality_events_total",
		"gossipsub_rejects_total",
	} {
		if !strings.Contains(body, name) {
			t.Fatalf("metrics output missing %s", name)
		}
	}
}
