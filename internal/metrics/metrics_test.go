package metrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"customsflow/internal/metrics"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.RecordTransition("cleared")
		m.RecordDeclarationCreated()
		m.ObserveScoring(time.Now(), errors.New("boom"))
		m.RecordEnqueued()
		m.RecordAuditCompleted()
		m.RecordFinalized()
		m.SetQueueDepth(3)
		m.RecordFeedEvent("high")
		m.RecordStaleCompletion()
		m.RecordFailure("auditqueue", "conflict")
	})
	assert.Nil(t, m.Registry())
}

func TestInstancesDoNotShareRegistries(t *testing.T) {
	a := metrics.New()
	b := metrics.New()

	a.RecordTransition("cleared")
	a.RecordTransition("cleared")
	b.RecordTransition("cleared")

	assert.Equal(t, 2.0, testutil.ToFloat64(a.Transitions.WithLabelValues("cleared")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.Transitions.WithLabelValues("cleared")))
}

func TestScoringFailuresCounted(t *testing.T) {
	m := metrics.New()
	m.ObserveScoring(time.Now(), nil)
	m.ObserveScoring(time.Now(), errors.New("model offline"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScoringFailures))
}

func TestRecordFailureIgnoresEmptyKind(t *testing.T) {
	m := metrics.New()
	m.RecordFailure("lifecycle", "")
	m.RecordFailure("lifecycle", "not_found")

	assert.Equal(t, 1, testutil.CollectAndCount(m.OperationFailures))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := metrics.New()
	m.SetQueueDepth(4)
	m.RecordFeedEvent("medium")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.Contains(text, "customsflow_audit_queue_depth 4"), text)
	assert.True(t, strings.Contains(text, `customsflow_feed_events_total{risk_level="medium"} 1`), text)
}
