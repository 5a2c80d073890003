package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedTool decorates a Tool with tracing and metrics.
type InstrumentedTool struct {
	inner  Tool
	tracer trace.Tracer
	meter  metric.Meter
}

func NewInstrumentedTool(inner Tool, tracer trace.Tracer, meter metric.Meter) *InstrumentedTool {
	return &InstrumentedTool{inner: inner, tracer: tracer, meter: meter}
}

func (t *InstrumentedTool) Name() string                     { return t.inner.Name() }
func (t *InstrumentedTool) Title() string                    { return t.inner.Title() }
func (t *InstrumentedTool) Description() string              { return t.inner.Description() }
func (t *InstrumentedTool) InputSchema() *jsonschema.Schema  { return t.inner.InputSchema() }
func (t *InstrumentedTool) OutputSchema() *jsonschema.Schema { return t.inner.OutputSchema() }

func (t *InstrumentedTool) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	ctx, span := t.tracer.Start(ctx, fmt.Sprintf("Tool.Run.%s", t.inner.Name()),
		trace.WithAttributes(attribute.String("tool.name", t.inner.Name())))
	defer span.End()

	callsCounter, _ := t.meter.Int64Counter("tool_calls_total",
		metric.WithDescription("Total number of tool calls executed"))
	failedCounter, _ := t.meter.Int64Counter("tool_calls_failed_total",
		metric.WithDescription("Total number of tool calls that failed"))
	durationHist, _ := t.meter.Float64Histogram("tool_execution_time_seconds",
		metric.WithDescription("Time taken to execute individual tools in seconds"))

	callsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("tool", t.inner.Name())))

	start := time.Now()
	output, err := t.inner.Run(ctx, input)
	durationHist.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attribute.String("tool", t.inner.Name())))

	if err != nil {
		failedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("tool", t.inner.Name())))
		span.SetStatus(codes.Error, "Tool run failed")
		span.RecordError(err)
		slog.Error("TOOL: Run failed", "tool", t.inner.Name(), "error", err)
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return output, nil
}

// InstrumentRegistry wraps every tool in a registry with instrumentation.
func InstrumentRegistry(registry *Registry, tracer trace.Tracer, meter metric.Meter) *Registry {
	wrapped := Registry(map[string]Tool{})
	for name, tool := range *registry {
		wrapped[name] = NewInstrumentedTool(tool, tracer, meter)
	}
	return &wrapped
}
