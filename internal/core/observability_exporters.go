package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"initiative/pkg/domain"
)

var expvarSeq uint64

// OperationStats aggregates observations of one service operation.
type OperationStats struct {
	Count    int64            `json:"count"`
	TotalMS  float64          `json:"total_ms"`
	MaxMS    float64          `json:"max_ms"`
	Outcomes map[string]int64 `json:"outcomes"`
}

// ExpvarMetricsSnapshot is a point-in-time copy of an ExpvarMetricsRecorder.
// Failures totals every non-ok outcome across operations.
type ExpvarMetricsSnapshot struct {
	Operations map[string]OperationStats `json:"operations"`
	Failures   map[string]int64          `json:"failures"`
	RecordedAt time.Time                 `json:"recorded_at"`
}

// ExpvarMetricsRecorder publishes per-operation outcome counts and latency
// under a single expvar entry.
type ExpvarMetricsRecorder struct {
	name     string
	mu       sync.Mutex
	ops      map[string]*OperationStats
	failures map[string]int64
}

// NewExpvarMetricsRecorder publishes a recorder under name, or under a
// generated initiative_service_metrics_N name when name is empty.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("initiative_service_metrics_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	rec := &ExpvarMetricsRecorder{
		name:     name,
		ops:      make(map[string]*OperationStats),
		failures: make(map[string]int64),
	}
	expvar.Publish(name, expvar.Func(func() any { return rec.Snapshot() }))
	return rec
}

// Name returns the expvar key.
func (r *ExpvarMetricsRecorder) Name() string {
	return r.name
}

// Snapshot copies the aggregated stats.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := ExpvarMetricsSnapshot{
		Operations: make(map[string]OperationStats, len(r.ops)),
		Failures:   make(map[string]int64, len(r.failures)),
		RecordedAt: time.Now().UTC(),
	}
	for op, stats := range r.ops {
		cpy := *stats
		cpy.Outcomes = make(map[string]int64, len(stats.Outcomes))
		for outcome, n := range stats.Outcomes {
			cpy.Outcomes[outcome] = n
		}
		snap.Operations[op] = cpy
	}
	for outcome, n := range r.failures {
		snap.Failures[outcome] = n
	}
	return snap
}

// Observe implements MetricsRecorder.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation, outcome string, duration time.Duration) {
	if operation == "" {
		return
	}
	ms := float64(duration) / float64(time.Millisecond)

	r.mu.Lock()
	defer r.mu.Unlock()
	stats, ok := r.ops[operation]
	if !ok {
		stats = &OperationStats{Outcomes: make(map[string]int64)}
		r.ops[operation] = stats
	}
	stats.Count++
	stats.TotalMS += ms
	stats.MaxMS = max(stats.MaxMS, ms)
	stats.Outcomes[outcome]++
	if outcome != OutcomeOK {
		r.failures[outcome]++
	}
}

// TraceRetention bounds the spans a JSONTraceTracer keeps for Entries.
const TraceRetention = 256

// JSONTraceEntry is one finished span. Change and Description name the change
// the operation applied; Affected is the name or UUID of the thing it touched.
type JSONTraceEntry struct {
	Operation   string    `json:"operation"`
	Outcome     string    `json:"outcome"`
	Change      string    `json:"change,omitempty"`
	Description string    `json:"description,omitempty"`
	Affected    string    `json:"affected,omitempty"`
	Error       string    `json:"error,omitempty"`
	DurationMS  float64   `json:"duration_ms"`
	StartedAt   time.Time `json:"started_at"`
}

// JSONTraceTracer writes each finished span as a JSON line and keeps the most
// recent TraceRetention spans in memory.
type JSONTraceTracer struct {
	mu      sync.Mutex
	enc     *json.Encoder
	entries []JSONTraceEntry
	next    int
	full    bool
}

// NewJSONTracer returns a tracer writing to w. A nil writer only retains.
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	t := &JSONTraceTracer{entries: make([]JSONTraceEntry, TraceRetention)}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	return t
}

// Entries returns the retained spans, oldest first.
func (t *JSONTraceTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.full {
		return append([]JSONTraceEntry(nil), t.entries[:t.next]...)
	}
	out := make([]JSONTraceEntry, 0, len(t.entries))
	out = append(out, t.entries[t.next:]...)
	return append(out, t.entries[:t.next]...)
}

func (t *JSONTraceTracer) record(entry JSONTraceEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[t.next] = entry
	t.next++
	if t.next == len(t.entries) {
		t.next, t.full = 0, true
	}
	if t.enc != nil {
		_ = t.enc.Encode(entry)
	}
}

// Start implements Tracer.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonTraceSpan{
		tracer: t,
		entry:  JSONTraceEntry{Operation: operation, StartedAt: time.Now().UTC()},
	}
}

type jsonTraceSpan struct {
	tracer *JSONTraceTracer
	entry  JSONTraceEntry
}

func (s *jsonTraceSpan) SetChange(change domain.Change) {
	s.entry.Change = domain.ChangeKind(change)
	s.entry.Description = change.Describe()
}

func (s *jsonTraceSpan) SetAffected(id domain.ID) {
	s.entry.Affected = id.String()
}

func (s *jsonTraceSpan) End(err error) {
	s.entry.Outcome = Outcome(err)
	if err != nil {
		s.entry.Error = err.Error()
	}
	s.entry.DurationMS = float64(time.Since(s.entry.StartedAt)) / float64(time.Millisecond)
	s.tracer.record(s.entry)
}

// PrometheusMetricsRecorder exports operation counters by outcome and
// latency histograms.
type PrometheusMetricsRecorder struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
}

// NewPrometheusMetricsRecorder registers initiative_operations_total and
// initiative_operation_duration_seconds with reg. A nil reg leaves them
// unregistered.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) *PrometheusMetricsRecorder {
	factory := promauto.With(reg)
	return &PrometheusMetricsRecorder{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "initiative_operations_total",
			Help: "Service operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "initiative_operation_duration_seconds",
			Help:    "Latency of service operations.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"operation"}),
	}
}

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation, outcome string, duration time.Duration) {
	if operation == "" {
		return
	}
	r.operations.WithLabelValues(operation, outcome).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// MultiMetricsRecorder fans observations out to several recorders.
type MultiMetricsRecorder []MetricsRecorder

// Observe implements MetricsRecorder.
func (m MultiMetricsRecorder) Observe(ctx context.Context, operation, outcome string, duration time.Duration) {
	for _, r := range m {
		r.Observe(ctx, operation, outcome, duration)
	}
}
