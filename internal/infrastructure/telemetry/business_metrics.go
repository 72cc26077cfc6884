package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics constructor receives no meter.
var ErrMeterNil = errors.New("telemetry: meter is nil")

var (
	AttrStatusFrom = attribute.Key("status.from")
	AttrStatusTo   = attribute.Key("status.to")
	AttrKind       = attribute.Key("kind")
	AttrOutcome    = attribute.Key("outcome")
)

// Counter is a monotonically increasing int64 instrument.
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter registers an int64 counter on meter.
func NewCounter(meter metric.Meter, name, description, unit string) (*Counter, error) {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, err
	}
	return &Counter{counter: c}, nil
}

// Add increments the counter by value.
func (c *Counter) Add(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

// Inc increments the counter by one.
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.Add(ctx, 1, attrs...)
}

// BusinessMetrics counts funnel and settlement activity.
type BusinessMetrics struct {
	statusTransitions *Counter
	settlementUpserts *Counter
	settlementDeletes *Counter
	clawbacks         *Counter
	notifications     *Counter
	ocrExtractions    *Counter
}

// NewBusinessMetrics registers the CRM counters on meter.
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	bm := &BusinessMetrics{}
	counters := []struct {
		dst         **Counter
		name        string
		description string
	}{
		{&bm.statusTransitions, "crm_status_transitions_total", "Customer status changes by source and target status"},
		{&bm.settlementUpserts, "crm_settlement_items_upserted_total", "Settlement items created or updated by sync"},
		{&bm.settlementDeletes, "crm_settlement_items_deleted_total", "Unlocked settlement items removed by sync"},
		{&bm.clawbacks, "crm_clawbacks_total", "Settlement items marked as clawback"},
		{&bm.notifications, "crm_notifications_total", "SMS notifications by kind and outcome"},
		{&bm.ocrExtractions, "crm_ocr_extractions_total", "Document extractions by kind and outcome"},
	}
	for _, spec := range counters {
		c, err := NewCounter(meter, spec.name, spec.description, "1")
		if err != nil {
			return nil, &MetricsError{Metric: spec.name, Err: err}
		}
		*spec.dst = c
	}
	return bm, nil
}

// RecordStatusTransition counts one persisted status change.
func (bm *BusinessMetrics) RecordStatusTransition(ctx context.Context, from, to string) {
	if bm == nil {
		return
	}
	bm.statusTransitions.Inc(ctx, AttrStatusFrom.String(from), AttrStatusTo.String(to))
}

// RecordSettlementSync counts the rows touched by one sync.
func (bm *BusinessMetrics) RecordSettlementSync(ctx context.Context, upserted, deleted int) {
	if bm == nil {
		return
	}
	if upserted > 0 {
		bm.settlementUpserts.Add(ctx, int64(upserted))
	}
	if deleted > 0 {
		bm.settlementDeletes.Add(ctx, int64(deleted))
	}
}

// RecordClawback counts items moved into clawback.
func (bm *BusinessMetrics) RecordClawback(ctx context.Context, count int) {
	if bm == nil || count <= 0 {
		return
	}
	bm.clawbacks.Add(ctx, int64(count))
}

// RecordNotification counts one notification attempt.
func (bm *BusinessMetrics) RecordNotification(ctx context.Context, kind, outcome string) {
	if bm == nil {
		return
	}
	bm.notifications.Inc(ctx, AttrKind.String(kind), AttrOutcome.String(outcome))
}

// RecordOCRExtraction counts one document extraction attempt.
func (bm *BusinessMetrics) RecordOCRExtraction(ctx context.Context, kind, outcome string) {
	if bm == nil {
		return
	}
	bm.ocrExtractions.Inc(ctx, AttrKind.String(kind), AttrOutcome.String(outcome))
}

// MetricsError reports which instrument failed to register.
type MetricsError struct {
	Metric string
	Err    error
}

func (e *MetricsError) Error() string {
	return "failed to create metric " + e.Metric + ": " + e.Err.Error()
}

func (e *MetricsError) Unwrap() error {
	return e.Err
}
