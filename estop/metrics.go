package estop

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"pkt.systems/pslog"

	"pkt.systems/robocore/internal/metricsutil"
)

type checkInMetrics struct {
	checkIns metric.Int64Counter
}

var (
	checkInMetricsOnce sync.Once
	checkInMetricsInst *checkInMetrics
)

func sharedCheckInMetrics(logger pslog.Logger) *checkInMetrics {
	checkInMetricsOnce.Do(func() {
		meter := otel.Meter("pkt.systems/robocore/estop")
		m := &checkInMetrics{}
		var err error
		m.checkIns, err = meter.Int64Counter(
			"robocore.estop.checkin",
			metric.WithDescription("E-Stop keepalive check-ins by resulting health"),
		)
		metricsutil.LogInitError(logger, "robocore.estop.checkin", err)
		checkInMetricsInst = m
	})
	return checkInMetricsInst
}

func (m *checkInMetrics) record(ctx context.Context, h Health) {
	if m == nil || m.checkIns == nil {
		return
	}
	m.checkIns.Add(metricsutil.Context(ctx), 1, metric.WithAttributes(attribute.String("robocore.estop.health", strings.ToLower(h.String()))))
}
