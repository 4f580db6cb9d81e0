package service

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/campus-clinic-api/internal/models"
)

func TestMetricsLedgerAndBookingCounters(t *testing.T) {
	m := NewMetricsService()

	m.RecordLedgerOperation(ledgerDispense, OutcomeSuccess)
	m.RecordLedgerOperation(ledgerDispense, OutcomeInsufficientStock)
	m.RecordLedgerOperation(ledgerDispense, OutcomeInsufficientStock)
	m.RecordBooking(OutcomeSlotUnavailable)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.ledgerOps.WithLabelValues(ledgerDispense, OutcomeSuccess)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ledgerOps.WithLabelValues(ledgerDispense, OutcomeInsufficientStock)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.bookings.WithLabelValues(OutcomeSlotUnavailable)))
}

func TestMetricsNilSafeAndSnapshot(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.RecordBooking(OutcomeSuccess)
		m.ObserveHTTPRequest("GET", "/health", 200, time.Millisecond)
	})
	assert.Zero(t, m.Snapshot().RequestsTotal)

	live := NewMetricsService()
	live.ObserveHTTPRequest("GET", "/api/v1/doctors", 200, 2*time.Millisecond)
	assert.Equal(t, uint64(1), live.Snapshot().RequestsTotal)
}

func TestMetricsCacheRatioAndReportJobs(t *testing.T) {
	m := NewMetricsService()
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordReportJob(models.ReportTypeDispensing, OutcomeError)

	snap := m.Snapshot()
	assert.InDelta(t, 2.0/3.0, snap.CacheHitRatio, 0.0001)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.cacheResults.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.reportJobs.WithLabelValues("dispensing", OutcomeError)))
}
