package client

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"pkt.systems/pslog"

	"pkt.systems/robocore/internal/metricsutil"
	"pkt.systems/robocore/status"
)

type rpcMetrics struct {
	calls    metric.Int64Counter
	duration metric.Int64Histogram
}

var (
	metricsOnce sync.Once
	metricsInst *rpcMetrics
)

func sharedMetrics(logger pslog.Logger) *rpcMetrics {
	metricsOnce.Do(func() {
		metricsInst = newRPCMetrics(logger)
	})
	return metricsInst
}

func newRPCMetrics(logger pslog.Logger) *rpcMetrics {
	meter := otel.Meter("pkt.systems/robocore/client")
	m := &rpcMetrics{}
	var err error

	m.calls, err = meter.Int64Counter(
		"robocore.rpc.calls",
		metric.WithDescription("Robot RPCs completed"),
	)
	metricsutil.LogInitError(logger, "robocore.rpc.calls", err)

	m.duration, err = meter.Int64Histogram(
		"robocore.rpc.duration_ms",
		metric.WithDescription("Robot RPC duration"),
		metric.WithUnit("ms"),
	)
	metricsutil.LogInitError(logger, "robocore.rpc.duration_ms", err)
	return m
}

func (m *rpcMetrics) record(ctx context.Context, method string, st status.Status, elapsed time.Duration) {
	if m == nil {
		return
	}
	ctx = metricsutil.Context(ctx)
	attrs := metric.WithAttributes(
		attribute.String("rpc.method", method),
		attribute.String("robocore.rpc.result", metricsutil.ResultLabel(st.Err())),
		attribute.String("robocore.rpc.code", st.Code().String()),
	)
	if m.calls != nil {
		m.calls.Add(ctx, 1, attrs)
	}
	if m.duration != nil {
		m.duration.Record(ctx, elapsed.Milliseconds(), attrs)
	}
}
