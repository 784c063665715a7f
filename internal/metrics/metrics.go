// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

// Package metrics declares Emberline's Prometheus collectors and the helpers
// that record them. Collectors register with the default registry through
// promauto and are served at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Channel status label values.
var channelStatuses = []string{"disconnected", "connecting", "connected"}

var (
	// Channel Metrics
	ChannelStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "emberline_channel_status",
			Help: "1 for the current connection status of each detection channel, 0 otherwise",
		},
		[]string{"channel", "status"},
	)

	MessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emberline_messages_received_total",
			Help: "Total number of inbound messages read from a detection channel",
		},
		[]string{"channel"},
	)

	SnapshotsAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emberline_snapshots_accepted_total",
			Help: "Total number of snapshots that passed validation and entered history",
		},
		[]string{"channel"},
	)

	PayloadsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emberline_payloads_rejected_total",
			Help: "Total number of inbound payloads dropped, by rejection reason",
		},
		[]string{"channel", "reason"},
	)

	ReconnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emberline_reconnect_attempts_total",
			Help: "Total number of connection attempts after the first",
		},
		[]string{"channel"},
	)

	// History Metrics
	HistorySize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "emberline_history_size",
			Help: "Current number of snapshots held in a channel's history",
		},
		[]string{"channel"},
	)

	HistoryOverflows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emberline_history_overflows_total",
			Help: "Total number of appends that exceeded history capacity",
		},
		[]string{"channel", "policy"},
	)

	// Control Metrics
	OutboundCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emberline_outbound_commands_total",
			Help: "Total number of outbound commands by result (sent, dropped, error)",
		},
		[]string{"channel", "result"},
	)

	RadiusSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emberline_radius_submissions_total",
			Help: "Total number of radius submissions by result (sent, invalid, not_sent)",
		},
		[]string{"result"},
	)

	AcknowledgementVisible = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "emberline_acknowledgement_visible",
			Help: "1 while the radius acknowledgement is shown",
		},
	)

	// Sink Metrics
	SinkDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emberline_sink_deliveries_total",
			Help: "Total number of accepted snapshots handed to a sink, by result",
		},
		[]string{"sink", "result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "emberline_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	ArchiveGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emberline_archive_gc_runs_total",
			Help: "Total number of archive value-log GC passes, by result",
		},
		[]string{"result"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "emberline_websocket_connections",
			Help: "Current number of dashboard WebSocket clients",
		},
	)

	WSMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emberline_websocket_messages_sent_total",
			Help: "Total number of messages broadcast to dashboard clients",
		},
		[]string{"message_type"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emberline_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "emberline_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "emberline_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)
)

// SetChannelStatus marks status as the current one for channel.
func SetChannelStatus(channel, status string) {
	for _, s := range channelStatuses {
		v := 0.0
		if s == status {
			v = 1
		}
		ChannelStatus.WithLabelValues(channel, s).Set(v)
	}
}

// RecordMessage counts one inbound message.
func RecordMessage(channel string) {
	MessagesReceived.WithLabelValues(channel).Inc()
}

// RecordAccepted counts an accepted snapshot and updates the history gauge.
func RecordAccepted(channel string, historySize int) {
	SnapshotsAccepted.WithLabelValues(channel).Inc()
	HistorySize.WithLabelValues(channel).Set(float64(historySize))
}

// RecordRejected counts a dropped payload.
func RecordRejected(channel, reason string) {
	PayloadsRejected.WithLabelValues(channel, reason).Inc()
}

// RecordReconnect counts a reconnect attempt.
func RecordReconnect(channel string) {
	ReconnectAttempts.WithLabelValues(channel).Inc()
}

// RecordOverflow counts an overflowing append.
func RecordOverflow(channel, policy string) {
	HistoryOverflows.WithLabelValues(channel, policy).Inc()
}

// SetHistorySize sets the history gauge, e.g. after a reset or restore.
func SetHistorySize(channel string, size int) {
	HistorySize.WithLabelValues(channel).Set(float64(size))
}

// RecordCommand counts an outbound command by result.
func RecordCommand(channel, result string) {
	OutboundCommands.WithLabelValues(channel, result).Inc()
}

// RecordRadiusSubmission counts a radius submission by result.
func RecordRadiusSubmission(result string) {
	RadiusSubmissions.WithLabelValues(result).Inc()
}

// SetAcknowledgement reflects the acknowledgement flag.
func SetAcknowledgement(visible bool) {
	if visible {
		AcknowledgementVisible.Set(1)
		return
	}
	AcknowledgementVisible.Set(0)
}

// RecordSinkDelivery counts a sink hand-off.
func RecordSinkDelivery(sink string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	SinkDeliveries.WithLabelValues(sink, result).Inc()
}

// RecordSinkDropped counts a snapshot dropped because the sink's queue was
// full.
func RecordSinkDropped(sink string) {
	SinkDeliveries.WithLabelValues(sink, "dropped").Inc()
}

// RecordArchiveGC counts a value-log GC pass. A pass that found nothing to
// rewrite is recorded as "noop".
func RecordArchiveGC(rewritten bool, err error) {
	switch {
	case err != nil:
		ArchiveGCRuns.WithLabelValues("error").Inc()
	case rewritten:
		ArchiveGCRuns.WithLabelValues("rewritten").Inc()
	default:
		ArchiveGCRuns.WithLabelValues("noop").Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
