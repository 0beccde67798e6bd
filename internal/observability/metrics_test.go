package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/api/client", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/api/client", "GET", 200, 20*time.Millisecond)
	m.RecordError("/api/client", "POST", "CONFLICT")
	m.RecordCreated("client")
	m.RecordTransition("client", "archive")
	m.RecordSigned()
	m.RecordExport()
	m.RecordUpstreamFailure("pinata")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/client", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("/api/client", "POST", "CONFLICT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.entitiesCreated.WithLabelValues("client")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lifecycle.WithLabelValues("client", "archive")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notesSigned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exports))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamFailures.WithLabelValues("pinata")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordCreated("client")
		m.RecordSigned()
	})
}
