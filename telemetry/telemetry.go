// Package telemetry gives the coordination engine structured logging,
// tracing, and metrics behind small interfaces, the way the teacher's
// runtime/agents/telemetry package wraps Clue and OpenTelemetry.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Logger captures structured logging used throughout the engine.
// Implementations typically delegate to Clue but the interface is
// intentionally small so tests can supply lightweight stubs.
type Logger interface {
	Debug(ctx context.Context, msg string, keyvals ...any)
	Info(ctx context.Context, msg string, keyvals ...any)
	Warn(ctx context.Context, msg string, keyvals ...any)
	Error(ctx context.Context, msg string, keyvals ...any)
}

// Metrics exposes counter, timer, and gauge helpers for engine
// instrumentation.
type Metrics interface {
	IncCounter(name string, value float64, tags ...string)
	RecordTimer(name string, duration time.Duration, tags ...string)
	RecordGauge(name string, value float64, tags ...string)
}

// Tracer abstracts span creation so engine code stays agnostic of the
// underlying OpenTelemetry provider.
type Tracer interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)
	Span(ctx context.Context) Span
}

// Span represents an in-flight tracing span.
type Span interface {
	End(opts ...trace.SpanEndOption)
	AddEvent(name string, attrs ...any)
	SetStatus(code codes.Code, description string)
	RecordError(err error, opts ...trace.EventOption)
}

// Counter names (spec §2 ambient stack). The coordination loop increments
// CounterAgentsSpawned and CounterSignalsProcessed; CounterAgentsTerminated
// and CounterValidationsRun are defined but not incremented in this module.
const (
	CounterAgentsSpawned    = "arachnid_agents_spawned_total"
	CounterAgentsTerminated = "arachnid_agents_terminated_total"
	CounterSignalsProcessed = "arachnid_signals_processed_total"
	CounterValidationsRun   = "arachnid_validations_run_total"

	GaugeWebIteration = "arachnid_web_iteration"

	SpanIteration      = "coordination.iteration"
	SpanSignalProcess  = "coordination.process_signal"
	SpanAgentExecution = "coordination.execute_agent"
)
