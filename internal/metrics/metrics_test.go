// Emberline - Wildfire Camera Detection Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/emberline

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSetChannelStatus(t *testing.T) {
	SetChannelStatus("metrics-test", "connecting")
	SetChannelStatus("metrics-test", "connected")

	if got := testutil.ToFloat64(ChannelStatus.WithLabelValues("metrics-test", "connected")); got != 1 {
		t.Errorf("connected = %v, want 1", got)
	}
	if got := testutil.ToFloat64(ChannelStatus.WithLabelValues("metrics-test", "connecting")); got != 0 {
		t.Errorf("connecting = %v, want 0", got)
	}
}

func TestRecordRejected(t *testing.T) {
	before := testutil.ToFloat64(PayloadsRejected.WithLabelValues("metrics-test", "decode"))
	RecordRejected("metrics-test", "decode")
	after := testutil.ToFloat64(PayloadsRejected.WithLabelValues("metrics-test", "decode"))

	if after-before != 1 {
		t.Errorf("rejected counter moved by %v, want 1", after-before)
	}
}

func TestRecordAccepted(t *testing.T) {
	RecordAccepted("metrics-accepted", 42)

	if got := testutil.ToFloat64(HistorySize.WithLabelValues("metrics-accepted")); got != 42 {
		t.Errorf("history size = %v, want 42", got)
	}
	if got := testutil.ToFloat64(SnapshotsAccepted.WithLabelValues("metrics-accepted")); got != 1 {
		t.Errorf("accepted = %v, want 1", got)
	}
}

func TestSetAcknowledgement(t *testing.T) {
	SetAcknowledgement(true)
	if testutil.ToFloat64(AcknowledgementVisible) != 1 {
		t.Error("expected acknowledgement gauge 1")
	}
	SetAcknowledgement(false)
	if testutil.ToFloat64(AcknowledgementVisible) != 0 {
		t.Error("expected acknowledgement gauge 0")
	}
}

func TestRecordSinkDelivery(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		result string
	}{
		{"success", nil, "success"},
		{"failure", errors.New("nats: timeout"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := SinkDeliveries.WithLabelValues("metrics-sink", tt.result)
			before := testutil.ToFloat64(c)
			RecordSinkDelivery("metrics-sink", tt.err)
			if testutil.ToFloat64(c)-before != 1 {
				t.Errorf("%s counter not incremented", tt.result)
			}
		})
	}
}

func TestRecordArchiveGC(t *testing.T) {
	noop := testutil.ToFloat64(ArchiveGCRuns.WithLabelValues("noop"))
	RecordArchiveGC(false, nil)
	if testutil.ToFloat64(ArchiveGCRuns.WithLabelValues("noop"))-noop != 1 {
		t.Error("noop pass not counted")
	}

	failed := testutil.ToFloat64(ArchiveGCRuns.WithLabelValues("error"))
	RecordArchiveGC(true, errors.New("db closed"))
	if testutil.ToFloat64(ArchiveGCRuns.WithLabelValues("error"))-failed != 1 {
		t.Error("error pass not counted")
	}
}

func TestRecordAPIRequest_Concurrent(t *testing.T) {
	c := APIRequestsTotal.WithLabelValues("GET", "/api/v1/metrics-test", "200")
	before := testutil.ToFloat64(c)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			TrackActiveRequest(true)
			RecordAPIRequest("GET", "/api/v1/metrics-test", "200", 5*time.Millisecond)
			TrackActiveRequest(false)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(c) - before; got != 50 {
		t.Errorf("requests = %v, want 50", got)
	}
}
