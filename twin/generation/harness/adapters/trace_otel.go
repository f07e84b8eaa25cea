package adapters

import (
	"context"
	"fmt"
	"sort"

	ports "github.com/nidhishmalav/career-twin/twin/generation/harness/ports"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/nidhishmalav/career-twin"

// OTelTracer implements the Tracer interface on top of OpenTelemetry.
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTelTracer creates a tracer from any OpenTelemetry tracer provider.
func NewOTelTracer(tp trace.TracerProvider) *OTelTracer {
	return &OTelTracer{tracer: tp.Tracer(instrumentationName)}
}

// NewLoggingTracerProvider builds an SDK tracer provider whose ended spans are
// written to logger. Extra processors (exporters, recorders) are added as given.
func NewLoggingTracerProvider(logger zerolog.Logger, extra ...sdktrace.SpanProcessor) *sdktrace.TracerProvider {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSpanProcessor(NewLogSpanProcessor(logger)),
	}
	for _, p := range extra {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}
	return sdktrace.NewTracerProvider(opts...)
}

// StartSpan starts an OpenTelemetry span as a child of any span in ctx.
func (t *OTelTracer) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error)) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(toAttributes(attrs)...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// Event adds an event to the span carried by ctx.
func (t *OTelTracer) Event(ctx context.Context, name string, attrs map[string]any) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(toAttributes(attrs)...))
}

func toAttributes(attrs map[string]any) []attribute.KeyValue {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for _, k := range keys {
		switch v := attrs[k].(type) {
		case string:
			kvs = append(kvs, attribute.String(k, v))
		case int:
			kvs = append(kvs, attribute.Int(k, v))
		case int64:
			kvs = append(kvs, attribute.Int64(k, v))
		case float64:
			kvs = append(kvs, attribute.Float64(k, v))
		case bool:
			kvs = append(kvs, attribute.Bool(k, v))
		default:
			kvs = append(kvs, attribute.String(k, fmt.Sprint(v)))
		}
	}
	return kvs
}

// LogSpanProcessor writes every ended span through zerolog.
type LogSpanProcessor struct {
	logger zerolog.Logger
}

// NewLogSpanProcessor creates a span processor that logs ended spans.
func NewLogSpanProcessor(logger zerolog.Logger) *LogSpanProcessor {
	return &LogSpanProcessor{logger: logger}
}

func (p *LogSpanProcessor) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {}

func (p *LogSpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	event := p.logger.Info()
	if s.Status().Code == codes.Error {
		event = p.logger.Error().Str("status", s.Status().Description)
	}

	event = event.
		Str("span", s.Name()).
		Str("trace_id", s.SpanContext().TraceID().String()).
		Str("span_id", s.SpanContext().SpanID().String()).
		Dur("duration", s.EndTime().Sub(s.StartTime()))
	if s.Parent().IsValid() {
		event = event.Str("parent_span_id", s.Parent().SpanID().String())
	}
	for _, kv := range s.Attributes() {
		event = event.Str(string(kv.Key), kv.Value.Emit())
	}
	event.Msg("Span ended")
}

func (p *LogSpanProcessor) Shutdown(ctx context.Context) error   { return nil }
func (p *LogSpanProcessor) ForceFlush(ctx context.Context) error { return nil }

var (
	_ ports.Tracer           = (*OTelTracer)(nil)
	_ sdktrace.SpanProcessor = (*LogSpanProcessor)(nil)
)
