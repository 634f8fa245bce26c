package manager

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"llmbridge/pkg/llm"
	"llmbridge/pkg/logger"
)

const instrumentationName = "llmbridge/pkg/manager"

// Attribute keys shared by spans and metrics.
const (
	attrProvider  = attribute.Key("llm.provider")
	attrOperation = attribute.Key("llm.operation")
	attrModel     = attribute.Key("llm.model")
)

type telemetry struct {
	tracer   trace.Tracer
	tokens   metric.Int64Counter
	failures metric.Int64Counter
}

// newTelemetry falls back to the global providers, which are no-ops until
// an SDK is installed.
func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) *telemetry {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	t := &telemetry{tracer: tp.Tracer(instrumentationName)}
	var err error
	if t.tokens, err = meter.Int64Counter("llm.tokens",
		metric.WithDescription("Tokens consumed by successful calls"),
		metric.WithUnit("{token}")); err != nil {
		logger.Warn("failed to create token counter", "error", err)
	}
	if t.failures, err = meter.Int64Counter("llm.failures",
		metric.WithDescription("Calls that ended in a failure result or error")); err != nil {
		logger.Warn("failed to create failure counter", "error", err)
	}
	return t
}

type callRecorder struct {
	ctx   context.Context
	span  trace.Span
	t     *telemetry
	attrs []attribute.KeyValue
}

func (t *telemetry) start(ctx context.Context, operation, provider string) (context.Context, *callRecorder) {
	attrs := []attribute.KeyValue{attrProvider.String(provider), attrOperation.String(operation)}
	ctx, span := t.tracer.Start(ctx, "llm."+operation, trace.WithAttributes(attrs...))
	return ctx, &callRecorder{ctx: ctx, span: span, t: t, attrs: attrs}
}

func (r *callRecorder) end(out llm.Outcome, err error) {
	defer r.span.End()

	if err == nil && !out.Success {
		err = out.Err()
	}
	if err != nil {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, err.Error())
		if r.t.failures != nil {
			r.t.failures.Add(r.ctx, 1, metric.WithAttributes(r.attrs...))
		}
		return
	}

	r.span.SetAttributes(
		attribute.Int("llm.usage.prompt_tokens", out.Usage.PromptTokens),
		attribute.Int("llm.usage.completion_tokens", out.Usage.CompletionTokens),
	)
	if r.t.tokens != nil && out.Usage.TotalTokens > 0 {
		r.t.tokens.Add(r.ctx, int64(out.Usage.TotalTokens), metric.WithAttributes(r.attrs...))
	}
}

// annotateModel tags the active span with the model actually requested.
func annotateModel(ctx context.Context, model string) {
	if model == "" {
		return
	}
	trace.SpanFromContext(ctx).SetAttributes(attrModel.String(model))
}
