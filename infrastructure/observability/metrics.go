package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"crewpay/config"
	"crewpay/events"
	"crewpay/models"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for payroll and roster activity
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	enabled       bool
	mu            sync.RWMutex

	batchesCreatedCounter  metric.Int64Counter
	batchesPaidCounter     metric.Int64Counter
	amountPaidCounter      metric.Float64Counter
	assignmentsPaidCounter metric.Int64Counter
	syncOutcomesCounter    metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{config: cfg}
}

// Initialize sets up the meter provider with the configured exporter.
// Metrics stay disabled when OTel is off or the exporter is "none".
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	if !mp.config.OTelEnabled {
		log.Debug("OpenTelemetry metrics disabled")
		return nil
	}

	var reader sdkmetric.Reader
	interval := time.Duration(mp.config.OTelExportIntervalMillis) * time.Millisecond

	switch mp.config.OTelExporterType {
	case "console":
		exporter, err := stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Debug("Using OTLP metric exporter")

	case "none":
		log.Debug("Metrics export disabled (exporter_type='none')")
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	return mp.initializeWithReader(reader)
}

func (mp *MetricsProvider) initializeWithReader(reader sdkmetric.Reader) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.enabled {
		return nil
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(mp.config.OTelServiceName),
		attribute.String("environment", mp.config.Environment),
	)

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("crewpay")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.enabled = true
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.batchesCreatedCounter, err = mp.meter.Int64Counter(
		PayrollBatchesCreatedTotal,
		metric.WithDescription("Total number of payroll batches created"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create batches created counter: %w", err)
	}

	mp.batchesPaidCounter, err = mp.meter.Int64Counter(
		PayrollBatchesPaidTotal,
		metric.WithDescription("Total number of payroll batches paid"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create batches paid counter: %w", err)
	}

	mp.amountPaidCounter, err = mp.meter.Float64Counter(
		PayrollAmountPaidTotal,
		metric.WithDescription("Total amount paid out through payroll batches"),
		metric.WithUnit("USD"),
	)
	if err != nil {
		return fmt.Errorf("failed to create amount paid counter: %w", err)
	}

	mp.assignmentsPaidCounter, err = mp.meter.Int64Counter(
		PayrollAssignmentsPaid,
		metric.WithDescription("Total number of assignments marked paid"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create assignments paid counter: %w", err)
	}

	mp.syncOutcomesCounter, err = mp.meter.Int64Counter(
		RosterSyncOutcomesTotal,
		metric.WithDescription("Per-role outcomes of roster reconciliation"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create sync outcomes counter: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the meter provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider == nil {
		return nil
	}
	mp.enabled = false
	return mp.meterProvider.Shutdown(ctx)
}

// RegisterPayrollMetrics subscribes payroll counters to the event bus
func (mp *MetricsProvider) RegisterPayrollMetrics(bus *events.Bus) {
	bus.Subscribe(events.EventTypePayrollBatchCreated, func(ctx context.Context, event events.Event) {
		if _, ok := event.(events.PayrollBatchCreatedEvent); ok && mp.isEnabled() {
			mp.batchesCreatedCounter.Add(ctx, 1)
		}
	})

	bus.Subscribe(events.EventTypePayrollBatchPaid, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.PayrollBatchPaidEvent)
		if !ok || !mp.isEnabled() {
			return
		}
		mp.batchesPaidCounter.Add(ctx, 1)
		mp.amountPaidCounter.Add(ctx, e.TotalAmount)
		mp.assignmentsPaidCounter.Add(ctx, e.AssignmentsPaid)
	})
}

// RecordSyncReport counts the per-role outcomes of one reconciliation
func (mp *MetricsProvider) RecordSyncReport(ctx context.Context, report *models.SyncReport) {
	if report == nil || !mp.isEnabled() {
		return
	}

	add := func(outcome string, n int) {
		if n > 0 {
			mp.syncOutcomesCounter.Add(ctx, int64(n), metric.WithAttributes(attribute.String(LabelOutcome, outcome)))
		}
	}
	add(OutcomeCreated, len(report.Created))
	add(OutcomeUpdated, len(report.Updated))
	add(OutcomeDeleted, len(report.Deleted))

	for _, s := range report.Skipped {
		mp.syncOutcomesCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String(LabelOutcome, OutcomeSkipped),
			attribute.String(LabelReason, string(s.Reason)),
		))
	}
}

func (mp *MetricsProvider) isEnabled() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.enabled
}
