package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ScopeName is the instrumentation scope for every ec2mc tracer and meter.
const ScopeName = "github.com/yairfalse/ec2mc"

type instruments struct {
	probeUnits      metric.Int64Counter
	deniedActions   metric.Int64Counter
	reconciled      metric.Int64Counter
	commandDuration metric.Float64Histogram
}

var (
	instMu sync.Mutex
	inst   *instruments
)

// resetInstruments drops cached instruments so the next record call binds to
// the current global meter provider.
func resetInstruments() {
	instMu.Lock()
	inst = nil
	instMu.Unlock()
}

func get() *instruments {
	instMu.Lock()
	defer instMu.Unlock()
	if inst != nil {
		return inst
	}

	meter := otel.Meter(ScopeName)
	i := &instruments{}
	var err error

	i.probeUnits, err = meter.Int64Counter(
		"ec2mc_probe_units_total",
		metric.WithDescription("Region probe units completed"),
	)
	logInitErr("ec2mc_probe_units_total", err)

	i.deniedActions, err = meter.Int64Counter(
		"ec2mc_gate_denied_actions_total",
		metric.WithDescription("Actions reported as denied by the permission gate"),
	)
	logInitErr("ec2mc_gate_denied_actions_total", err)

	i.reconciled, err = meter.Int64Counter(
		"ec2mc_reconcile_resources_total",
		metric.WithDescription("Resources classified by the reconciler"),
	)
	logInitErr("ec2mc_reconcile_resources_total", err)

	i.commandDuration, err = meter.Float64Histogram(
		"ec2mc_command_duration_seconds",
		metric.WithDescription("Command wall time"),
		metric.WithUnit("s"),
	)
	logInitErr("ec2mc_command_duration_seconds", err)

	inst = i
	return inst
}

// Instrument creation only fails on invalid names; the returned instrument is
// a usable no-op in that case.
func logInitErr(name string, err error) {
	if err != nil {
		log.Warn().Err(err).Str("instrument", name).Msg("create instrument")
	}
}

// Tracer returns the ec2mc tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(ScopeName)
}

// StartSpan starts a span on the ec2mc tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordProbeUnit counts a finished prober unit.
func RecordProbeUnit(ctx context.Context, outcome string) {
	get().probeUnits.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordDenied counts denied actions returned by the gate.
func RecordDenied(ctx context.Context, n int) {
	if n == 0 {
		return
	}
	get().deniedActions.Add(ctx, int64(n))
}

// RecordReconciled counts names placed in a reconciliation bucket.
func RecordReconciled(ctx context.Context, kind, bucket string, n int) {
	if n == 0 {
		return
	}
	get().reconciled.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("bucket", bucket),
	))
}

// RecordCommand records command duration.
func RecordCommand(ctx context.Context, command string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	get().commandDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("status", status),
	))
}
