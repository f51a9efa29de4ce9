// Package telemetry holds application-level instruments built on the global
// OpenTelemetry meter.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// LeaseMetrics counts lease lifecycle events. The zero value is safe to use
// and records nothing.
type LeaseMetrics struct {
	created  metric.Int64Counter
	ended    metric.Int64Counter
	expired  metric.Int64Counter
	resolved metric.Int64Counter
	rejected metric.Int64Counter
}

// NewLeaseMetrics builds lease counters on the global meter provider.
func NewLeaseMetrics() (*LeaseMetrics, error) {
	meter := otel.Meter("cafe-control-plane/lease")

	m := &LeaseMetrics{}
	var err error
	if m.created, err = meter.Int64Counter("leases_created_total",
		metric.WithDescription("Sessions created")); err != nil {
		return nil, err
	}
	if m.ended, err = meter.Int64Counter("leases_ended_total",
		metric.WithDescription("Sessions ended early by an operator")); err != nil {
		return nil, err
	}
	if m.expired, err = meter.Int64Counter("leases_expired_total",
		metric.WithDescription("Sessions deactivated after their end time")); err != nil {
		return nil, err
	}
	if m.resolved, err = meter.Int64Counter("pins_resolved_total",
		metric.WithDescription("Successful PIN resolutions")); err != nil {
		return nil, err
	}
	if m.rejected, err = meter.Int64Counter("pins_rejected_total",
		metric.WithDescription("PIN resolutions rejected")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *LeaseMetrics) LeaseCreated(ctx context.Context) {
	if m == nil || m.created == nil {
		return
	}
	m.created.Add(ctx, 1)
}

func (m *LeaseMetrics) LeaseEnded(ctx context.Context) {
	if m == nil || m.ended == nil {
		return
	}
	m.ended.Add(ctx, 1)
}

func (m *LeaseMetrics) LeaseExpired(ctx context.Context, n int64) {
	if m == nil || m.expired == nil {
		return
	}
	m.expired.Add(ctx, n)
}

func (m *LeaseMetrics) PinResolved(ctx context.Context) {
	if m == nil || m.resolved == nil {
		return
	}
	m.resolved.Add(ctx, 1)
}

func (m *LeaseMetrics) PinRejected(ctx context.Context) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.Add(ctx, 1)
}

// RegisterActiveSessionsGauge reports the current number of active sessions
// via an observable gauge. count is invoked on every metric collection.
func RegisterActiveSessionsGauge(count func(ctx context.Context) (int64, error)) error {
	meter := otel.Meter("cafe-control-plane/lease")
	gauge, err := meter.Int64ObservableGauge("sessions_active",
		metric.WithDescription("Currently active sessions"))
	if err != nil {
		return err
	}
	_, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		n, err := count(ctx)
		if err != nil {
			return err
		}
		o.ObserveInt64(gauge, n)
		return nil
	}, gauge)
	return err
}
