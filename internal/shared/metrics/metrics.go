package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	documentsCreatedTotal     atomic.Uint64
	annotationsSubmittedTotal atomic.Uint64
	assignmentsTotal          atomic.Uint64
	claimsTotal               atomic.Uint64
	claimConflictsTotal       atomic.Uint64
	statsFallbacksTotal       atomic.Uint64
	eventsReceivedTotal       atomic.Uint64
	eventsProcessedTotal      atomic.Uint64
	eventsFailedTotal         atomic.Uint64
	eventsDroppedTotal        atomic.Uint64
	statusRepairsTotal        atomic.Uint64
	panicsTotal               atomic.Uint64

	annotationTimeSpent = newHistogram([]float64{30, 60, 120, 300, 600, 1200, 1800, 3600})
)

// IncDocumentsCreated increments the created-documents counter.
func IncDocumentsCreated() {
	documentsCreatedTotal.Add(1)
}

// IncAnnotationsSubmitted increments the submissions counter.
func IncAnnotationsSubmitted() {
	annotationsSubmittedTotal.Add(1)
}

// IncAssignments increments the admin-assignment counter.
func IncAssignments() {
	assignmentsTotal.Add(1)
}

// IncClaims increments the successful-claim counter.
func IncClaims() {
	claimsTotal.Add(1)
}

// IncClaimConflicts increments the lost-claim counter.
func IncClaimConflicts() {
	claimConflictsTotal.Add(1)
}

// IncStatsFallbacks counts rollups that degraded to an empty result.
func IncStatsFallbacks() {
	statsFallbacksTotal.Add(1)
}

// Worker counters.
func IncEventsReceived()  { eventsReceivedTotal.Add(1) }
func IncEventsProcessed() { eventsProcessedTotal.Add(1) }
func IncEventsFailed()    { eventsFailedTotal.Add(1) }

// IncEventsDropped counts unprocessable events deleted from the queue.
func IncEventsDropped() { eventsDroppedTotal.Add(1) }

// IncStatusRepairs counts documents whose stored status disagreed with a recompute.
func IncStatusRepairs() { statusRepairsTotal.Add(1) }

// IncPanics counts handler panics caught by the recovery middleware.
func IncPanics() { panicsTotal.Add(1) }

// ObserveAnnotationTimeSpent records the time_spent of one submission in seconds.
func ObserveAnnotationTimeSpent(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	annotationTimeSpent.Observe(seconds)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "documents_created_total", "Total documents created", documentsCreatedTotal.Load())
	writeCounter(&buf, "annotations_submitted_total", "Total annotation submissions", annotationsSubmittedTotal.Load())
	writeCounter(&buf, "document_assignments_total", "Total admin assignments", assignmentsTotal.Load())
	writeCounter(&buf, "document_claims_total", "Total successful claims", claimsTotal.Load())
	writeCounter(&buf, "document_claim_conflicts_total", "Total claims rejected because the document was taken", claimConflictsTotal.Load())
	writeCounter(&buf, "stats_fallbacks_total", "Total stats rollups that degraded to empty", statsFallbacksTotal.Load())
	writeCounter(&buf, "worker_events_received_total", "Total events received by the worker", eventsReceivedTotal.Load())
	writeCounter(&buf, "worker_events_processed_total", "Total events processed by the worker", eventsProcessedTotal.Load())
	writeCounter(&buf, "worker_events_failed_total", "Total events that failed processing", eventsFailedTotal.Load())
	writeCounter(&buf, "worker_events_dropped_total", "Total unprocessable events deleted", eventsDroppedTotal.Load())
	writeCounter(&buf, "document_status_repairs_total", "Total document statuses corrected by reconciliation", statusRepairsTotal.Load())
	writeCounter(&buf, "http_panics_total", "Total recovered handler panics", panicsTotal.Load())
	writeHistogram(&buf, "annotation_time_spent_seconds", "Time spent per annotation submission", annotationTimeSpent.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe records value in the first bucket whose bound covers it; Render accumulates.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
