// Package metricsutil holds small helpers shared by the OpenTelemetry
// instruments of the SDK packages.
package metricsutil

import (
	"context"

	"pkt.systems/pslog"

	"pkt.systems/robocore/status"
)

// LogInitError reports an instrument that could not be created. Instruments
// that fail to initialise are left nil and skipped when recording.
func LogInitError(logger pslog.Logger, name string, err error) {
	if err == nil || logger == nil {
		return
	}
	logger.Warn("telemetry.metric.init_failed", "name", name, "error", err)
}

// Context returns ctx, or a background context when ctx is nil.
func Context(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// ResultLabel is "success" for a nil error and "error" otherwise.
func ResultLabel(err error) string {
	if err == nil {
		return "success"
	}
	return "error"
}

// CodeLabel renders the status code carried by err, "Success" when err is nil.
func CodeLabel(err error) string {
	if err == nil {
		return "Success"
	}
	return status.FromError(err).Code().String()
}
