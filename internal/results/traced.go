package results

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "tic-tac-toe-server/results"

// Traced wraps a Reporter and records one span per call.
type Traced struct {
	next   Reporter
	tracer trace.Tracer
}

// NewTraced uses the global tracer provider when tp is nil.
func NewTraced(next Reporter, tp trace.TracerProvider) *Traced {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Traced{next: next, tracer: tp.Tracer(tracerName)}
}

func (t *Traced) ReportStart(ctx context.Context, sessionID string) error {
	ctx, span := t.start(ctx, "results.report_start", sessionID)
	return t.end(span, t.next.ReportStart(ctx, sessionID))
}

func (t *Traced) ReportJoin(ctx context.Context, sessionID string, participantID int64) error {
	ctx, span := t.start(ctx, "results.report_join", sessionID, attribute.Int64("participant.id", participantID))
	return t.end(span, t.next.ReportJoin(ctx, sessionID, participantID))
}

func (t *Traced) ReportResult(ctx context.Context, sessionID string, result Result) error {
	ctx, span := t.start(ctx, "results.report_result", sessionID, attribute.Int("participants", len(result.Participants)))
	return t.end(span, t.next.ReportResult(ctx, sessionID, result))
}

func (t *Traced) ReportAbandonment(ctx context.Context, sessionID, reason string) error {
	ctx, span := t.start(ctx, "results.report_abandonment", sessionID, attribute.String("reason", reason))
	return t.end(span, t.next.ReportAbandonment(ctx, sessionID, reason))
}

// Ping forwards to the wrapped reporter when it supports health checks.
func (t *Traced) Ping(ctx context.Context) error {
	if p, ok := t.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (t *Traced) start(ctx context.Context, name, sessionID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("session.id", sessionID))
	return t.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
}

func (t *Traced) end(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	return err
}
