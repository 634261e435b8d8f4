package results

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type failingReporter struct{ LogReporter }

func (failingReporter) ReportResult(context.Context, string, Result) error {
	return errors.New("boom")
}

func TestTracedRecordsSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tr := NewTraced(failingReporter{}, tp)
	if err := tr.ReportStart(context.Background(), "m1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := tr.ReportResult(context.Background(), "m1", Result{}); err == nil {
		t.Fatal("expected wrapped error to pass through")
	}

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name() != "results.report_start" || spans[0].Status().Code == codes.Error {
		t.Fatalf("unexpected start span: %s %v", spans[0].Name(), spans[0].Status())
	}
	if spans[1].Name() != "results.report_result" || spans[1].Status().Code != codes.Error {
		t.Fatalf("unexpected result span: %s %v", spans[1].Name(), spans[1].Status())
	}
	var sawSession bool
	for _, kv := range spans[1].Attributes() {
		if string(kv.Key) == "session.id" && kv.Value.AsString() == "m1" {
			sawSession = true
		}
	}
	if !sawSession {
		t.Fatal("expected session.id attribute")
	}
}
