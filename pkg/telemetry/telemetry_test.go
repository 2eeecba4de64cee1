package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/shadowdom/pkg/live"
	"github.com/vango-dev/shadowdom/pkg/live/memdom"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func histogramCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()), WithNamespace("test"))

	m.ObserveParse(time.Millisecond, nil)
	m.ObserveParse(time.Millisecond, errors.New("bad"))
	m.ObserveReconcile(time.Millisecond, nil)
	m.SetNodes(42)

	if got := counterValue(t, m.parseTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("parse_total(ok) = %v, want 1", got)
	}
	if got := counterValue(t, m.parseTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("parse_total(error) = %v, want 1", got)
	}
	if got := histogramCount(t, m.parseDuration); got != 2 {
		t.Errorf("parse_duration count = %v, want 2", got)
	}
	if got := counterValue(t, m.reconcileTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("reconcile_total(ok) = %v, want 1", got)
	}
	if got := gaugeValue(t, m.nodes); got != 42 {
		t.Errorf("shadow_nodes = %v, want 42", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.HostOp(live.OpAppendChild)
	m.ObserveParse(time.Second, nil)
	m.ObserveReconcile(time.Second, nil)
	m.SetNodes(1)
}

func TestInstrumentHost(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	doc := memdom.New()
	h := InstrumentHost(doc, m)

	el, err := h.CreateElement("div")
	if err != nil {
		t.Fatal(err)
	}
	if err := h.AppendChild(doc.Root(), el); err != nil {
		t.Fatal(err)
	}
	doc.FailOn(live.OpSetAttribute, errors.New("boom"))
	if err := h.SetAttribute(el, "id", "x"); err == nil {
		t.Fatal("expected injected failure")
	}

	if got := counterValue(t, m.hostOps.WithLabelValues(string(live.OpCreateElement))); got != 1 {
		t.Errorf("host_ops_total(create_element) = %v, want 1", got)
	}
	if got := counterValue(t, m.hostOps.WithLabelValues(string(live.OpAppendChild))); got != 1 {
		t.Errorf("host_ops_total(append_child) = %v, want 1", got)
	}
	if got := counterValue(t, m.hostOps.WithLabelValues(string(live.OpSetAttribute))); got != 0 {
		t.Errorf("failed calls must not be counted, got %v", got)
	}

	if InstrumentHost(doc, nil) != live.Host(doc) {
		t.Error("nil metrics should return the host unchanged")
	}
}

func TestTracer(t *testing.T) {
	var nilTracer *Tracer
	ctx, span := nilTracer.Start(context.Background(), "x")
	if ctx == nil {
		t.Fatal("nil tracer must return the context")
	}
	span.SetAttributes()
	span.End(nil)

	tr := NewTracerFrom(noop.NewTracerProvider().Tracer("test"))
	_, span = tr.Start(context.Background(), "shadow.reconcile")
	span.End(errors.New("failed"))

	if NewTracer("").tracer == nil {
		t.Error("NewTracer should resolve a tracer from the global provider")
	}
}
