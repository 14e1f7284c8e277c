package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestMetrics(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()), WithNamespace("test"))

	m.ObserveManage("/articles", OutcomeMount, 10*time.Millisecond)
	m.ObserveManage("/articles", OutcomeMount, 5*time.Millisecond)
	m.ObserveManage("", OutcomeError, time.Millisecond)
	m.ObserveRender("client", "mount", nil)
	m.ObserveRender("client", "mount", errors.New("boom"))
	m.RecordPatches(3)

	if got := counterValue(t, m.manageTotal.WithLabelValues("/articles", OutcomeMount)); got != 2 {
		t.Errorf("manage_total(mount) = %v, want 2", got)
	}
	if got := counterValue(t, m.manageTotal.WithLabelValues("/", OutcomeError)); got != 1 {
		t.Errorf("manage_total(error) = %v, want 1", got)
	}
	if got := counterValue(t, m.renderTotal.WithLabelValues("client", "mount", "error")); got != 1 {
		t.Errorf("render_total(error) = %v, want 1", got)
	}
	if got := counterValue(t, m.patchesSent); got != 3 {
		t.Errorf("patches_sent_total = %v, want 3", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveManage("/", OutcomeMount, time.Second)
	m.ObserveRender("server", "mount", nil)
	m.RecordPatches(1)
	m.SessionOpened()
	m.SessionClosed()
}

func TestTracer(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	tracer := NewTracer(WithTracerProvider(provider))

	_, span := tracer.Start(context.Background(), "lifecycle.Manage", attribute.String("page.path", "/"))
	End(span, errors.New("render failed"))

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended %d spans, want 1", len(spans))
	}
	if spans[0].Name() != "lifecycle.Manage" || spans[0].Status().Code != codes.Error {
		t.Errorf("span %q status %v", spans[0].Name(), spans[0].Status())
	}
}

func TestNilTracer(t *testing.T) {
	var tracer *Tracer
	ctx, span := tracer.Start(context.Background(), "noop")
	if ctx == nil || span == nil {
		t.Fatal("nil tracer should return a usable span")
	}
	End(span, nil)
}
