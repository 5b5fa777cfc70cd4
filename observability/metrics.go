package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// PARSER METRICS
// =============================================================================

var (
	messagesParsedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "versafix_messages_parsed_total",
			Help: "Total number of wire buffers parsed, by result kind",
		},
		[]string{"result"}, // complete, exhausted, malformed, incomplete, unknown_session_protocol, unknown_application_protocol
	)

	parseDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "versafix_parse_duration_seconds",
			Help:    "Time spent decoding one wire message",
			Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
		[]string{"msg_type"},
	)
)

// RecordParse records one Parse call's outcome and latency.
func RecordParse(result string, msgType string, seconds float64) {
	messagesParsedTotal.WithLabelValues(result).Inc()
	if msgType != "" {
		parseDurationSeconds.WithLabelValues(msgType).Observe(seconds)
	}
}

// =============================================================================
// SESSION METRICS
// =============================================================================

var (
	sessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "versafix_sessions_active",
			Help: "Number of sessions currently in the engine's session pool",
		},
	)

	sessionTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "versafix_session_transitions_total",
			Help: "Total session state transitions",
		},
		[]string{"from", "to"},
	)

	heartbeatsSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "versafix_heartbeats_sent_total",
			Help: "Total Heartbeat(35=0) messages sent, on idle timers and in reply to TestRequest",
		},
	)

	testRequestsSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "versafix_test_requests_sent_total",
			Help: "Total TestRequest(35=1) messages sent on idle-inbound timers",
		},
	)

	resendRequestsSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "versafix_resend_requests_sent_total",
			Help: "Total ResendRequest(35=2) messages sent for sequence gaps",
		},
	)

	sequenceGapsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "versafix_sequence_gaps_total",
			Help: "Total inbound sequence gaps detected",
		},
	)
)

// SetSessionsActive sets the pooled-session gauge.
func SetSessionsActive(n int) { sessionsActive.Set(float64(n)) }

// RecordSessionTransition increments the transitions counter.
func RecordSessionTransition(from, to string) {
	sessionTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordHeartbeatSent increments the heartbeat counter.
func RecordHeartbeatSent() { heartbeatsSentTotal.Inc() }

// RecordTestRequestSent increments the test-request counter.
func RecordTestRequestSent() { testRequestsSentTotal.Inc() }

// RecordResendRequestSent increments the resend-request counter.
func RecordResendRequestSent() { resendRequestsSentTotal.Inc() }

// RecordSequenceGap increments the sequence-gap counter.
func RecordSequenceGap() { sequenceGapsTotal.Inc() }

// =============================================================================
// SESSION DATABASE METRICS
// =============================================================================

var (
	journalWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "versafix_journal_writes_total",
			Help: "Total journal append operations, by outcome",
		},
		[]string{"status"}, // ok, error
	)

	journalWriteDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "versafix_journal_write_duration_seconds",
			Help:    "Time spent durably appending one journal entry",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)
)

// RecordJournalWrite records one SessionDb.AddMessage outcome and latency.
func RecordJournalWrite(ok bool, seconds float64) {
	status := "ok"
	if !ok {
		status = "error"
	}
	journalWritesTotal.WithLabelValues(status).Inc()
	journalWriteDurationSeconds.Observe(seconds)
}
