package timesync

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"pkt.systems/pslog"

	"pkt.systems/robocore/internal/metricsutil"
)

type keeperMetrics struct {
	skew metric.Int64Histogram
	rtt  metric.Int64Histogram
}

var (
	keeperMetricsOnce sync.Once
	keeperMetricsInst *keeperMetrics
)

func sharedKeeperMetrics(logger pslog.Logger) *keeperMetrics {
	keeperMetricsOnce.Do(func() {
		meter := otel.Meter("pkt.systems/robocore/timesync")
		m := &keeperMetrics{}
		var err error

		m.skew, err = meter.Int64Histogram(
			"robocore.timesync.skew_ms",
			metric.WithDescription("Estimated robot clock skew"),
			metric.WithUnit("ms"),
		)
		metricsutil.LogInitError(logger, "robocore.timesync.skew_ms", err)

		m.rtt, err = meter.Int64Histogram(
			"robocore.timesync.rtt_ms",
			metric.WithDescription("Best time-sync round trip"),
			metric.WithUnit("ms"),
		)
		metricsutil.LogInitError(logger, "robocore.timesync.rtt_ms", err)
		keeperMetricsInst = m
	})
	return keeperMetricsInst
}

func (m *keeperMetrics) record(ctx context.Context, skew, rtt time.Duration) {
	if m == nil {
		return
	}
	ctx = metricsutil.Context(ctx)
	if m.skew != nil {
		m.skew.Record(ctx, skew.Milliseconds())
	}
	if m.rtt != nil {
		m.rtt.Record(ctx, rtt.Milliseconds())
	}
}
