package lease

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"pkt.systems/pslog"

	"pkt.systems/robocore/internal/metricsutil"
)

type keepAliveMetrics struct {
	retain metric.Int64Counter
}

var (
	keepAliveMetricsOnce sync.Once
	keepAliveMetricsInst *keepAliveMetrics
)

func sharedKeepAliveMetrics(logger pslog.Logger) *keepAliveMetrics {
	keepAliveMetricsOnce.Do(func() {
		meter := otel.Meter("pkt.systems/robocore/lease")
		m := &keepAliveMetrics{}
		var err error
		m.retain, err = meter.Int64Counter(
			"robocore.lease.retain",
			metric.WithDescription("Lease keepalive iterations"),
		)
		metricsutil.LogInitError(logger, "robocore.lease.retain", err)
		keepAliveMetricsInst = m
	})
	return keepAliveMetricsInst
}

func (m *keepAliveMetrics) record(ctx context.Context, result string) {
	if m == nil || m.retain == nil {
		return
	}
	m.retain.Add(metricsutil.Context(ctx), 1, metric.WithAttributes(attribute.String("robocore.lease.result", result)))
}
