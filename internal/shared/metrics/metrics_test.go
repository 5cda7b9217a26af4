package metrics

import (
	"strings"
	"testing"
)

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	var cumulative uint64
	for i := range snap.buckets {
		cumulative += snap.counts[i]
	}
	if cumulative != 2 || snap.count != 3 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestRenderIncludesCounters(t *testing.T) {
	IncClaims()
	IncClaimConflicts()
	ObserveAnnotationTimeSpent(45)

	text := Render()
	for _, name := range []string{
		"document_claims_total",
		"document_claim_conflicts_total",
		"annotations_submitted_total",
		`annotation_time_spent_seconds_bucket{le="60"}`,
	} {
		if !strings.Contains(text, name) {
			t.Fatalf("expected %s in output:\n%s", name, text)
		}
	}
}

func TestRenderIncludesWorkerCounters(t *testing.T) {
	before := eventsDroppedTotal.Load()
	IncEventsReceived()
	IncEventsDropped()
	IncStatusRepairs()

	if eventsDroppedTotal.Load() != before+1 {
		t.Fatalf("dropped counter did not advance")
	}
	text := Render()
	for _, name := range []string{
		"worker_events_received_total",
		"worker_events_dropped_total",
		"document_status_repairs_total",
	} {
		if !strings.Contains(text, name) {
			t.Fatalf("expected %s in output", name)
		}
	}
}
