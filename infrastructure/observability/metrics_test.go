package observability

import (
	"context"
	"testing"

	"crewpay/config"
	"crewpay/events"
	"crewpay/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*MetricsProvider, *sdkmetric.ManualReader) {
	t.Helper()

	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true

	reader := sdkmetric.NewManualReader()
	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.initializeWithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func intTotal(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()

	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetricsProvider_Disabled(t *testing.T) {
	cfg := config.NewTestConfig()
	mp := NewMetricsProvider(cfg)

	require.NoError(t, mp.Initialize(context.Background()))
	assert.False(t, mp.isEnabled())

	assert.NotPanics(t, func() {
		mp.RecordSyncReport(context.Background(), &models.SyncReport{Created: []models.RoleID{"server"}})
	})
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestMetricsProvider_ExporterNone(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true
	cfg.OTelExporterType = "none"

	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.Initialize(context.Background()))
	assert.False(t, mp.isEnabled())
}

func TestMetricsProvider_UnknownExporter(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true
	cfg.OTelExporterType = "statsd"

	err := NewMetricsProvider(cfg).Initialize(context.Background())
	assert.Error(t, err)
}

func TestMetricsProvider_PayrollEvents(t *testing.T) {
	mp, reader := newTestMetrics(t)
	bus := events.NewBus()
	mp.RegisterPayrollMetrics(bus)

	ctx := context.Background()
	bus.Emit(ctx, events.PayrollBatchCreatedEvent{BatchID: uuid.New(), TotalAmount: 350, AssignmentCount: 2})
	bus.Emit(ctx, events.PayrollBatchPaidEvent{BatchID: uuid.New(), AssignmentsPaid: 2, TotalAmount: 350})
	bus.Wait()

	data := collect(t, reader)
	assert.Equal(t, int64(1), intTotal(t, data[PayrollBatchesCreatedTotal]))
	assert.Equal(t, int64(1), intTotal(t, data[PayrollBatchesPaidTotal]))
	assert.Equal(t, int64(2), intTotal(t, data[PayrollAssignmentsPaid]))

	amount, ok := data[PayrollAmountPaidTotal].(metricdata.Sum[float64])
	require.True(t, ok)
	require.Len(t, amount.DataPoints, 1)
	assert.Equal(t, 350.0, amount.DataPoints[0].Value)
}

func TestMetricsProvider_RecordSyncReport(t *testing.T) {
	mp, reader := newTestMetrics(t)

	mp.RecordSyncReport(context.Background(), &models.SyncReport{
		Created: []models.RoleID{"driver_a", "server"},
		Deleted: []models.RoleID{"box_prep"},
		Skipped: []models.SkippedRole{
			{Role: "driver_b", Reason: models.SkipReasonUserNotFound},
		},
	})

	sum, ok := collect(t, reader)[RosterSyncOutcomesTotal].(metricdata.Sum[int64])
	require.True(t, ok)

	byOutcome := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		outcome, _ := dp.Attributes.Value(attribute.Key(LabelOutcome))
		byOutcome[outcome.AsString()] += dp.Value
	}
	assert.Equal(t, map[string]int64{
		OutcomeCreated: 2,
		OutcomeDeleted: 1,
		OutcomeSkipped: 1,
	}, byOutcome)
}
