package recorder

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// tracerName identifies this instrumentation library in exported spans.
const tracerName = "github.com/flightrec/flightrec/pkg/recorder"

// noopTracer backs recorders with telemetry disabled, so the operation code
// never branches on the toggle.
var noopTracer = noop.NewTracerProvider().Tracer(tracerName)

// startSpan opens a span around one recorder operation. With telemetry
// disabled the span is a no-op and carries no attributes.
func (r *Recorder) startSpan(ctx context.Context, name, taskID string) (context.Context, trace.Span) {
	if !r.telemetry {
		return noopTracer.Start(ctx, name)
	}
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(
		attribute.String("flightrec.workflow_id", r.workflowID),
		attribute.String("flightrec.task_id", taskID),
	))
}

// fail records err on the span and passes it through unchanged.
func (r *Recorder) fail(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
