package tools

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func echoHandler(ctx context.Context, args map[string]any) ([]ContentPart, error) {
	msg, _ := args["msg"].(string)
	return []ContentPart{{Type: "text", Text: msg}}, nil
}

func echoDefinition() Definition {
	return Definition{
		Name:        "echo",
		Description: "Echo a message.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"msg": map[string]any{"type": "string"}},
		},
	}
}

func TestRegistryRegisterAndList(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(echoDefinition(), echoHandler); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(GetWeatherDefinition(), GetWeather(&stubLookuper{})); err != nil {
		t.Fatalf("Register: %v", err)
	}

	defs := reg.Definitions()
	if len(defs) != 2 || defs[0].Name != "echo" || defs[1].Name != GetWeatherName {
		t.Fatalf("expected registration order, got %+v", defs)
	}
	if _, ok := reg.Lookup(GetWeatherName); !ok {
		t.Fatalf("expected Lookup to find %s", GetWeatherName)
	}
}

func TestRegistryRejectsDuplicatesAndBadInput(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(echoDefinition(), echoHandler)

	if err := reg.Register(echoDefinition(), echoHandler); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if err := reg.Register(Definition{}, echoHandler); err == nil {
		t.Fatalf("expected empty name to fail")
	}
	if err := reg.Register(Definition{Name: "nil"}, nil); err == nil {
		t.Fatalf("expected nil handler to fail")
	}
	bad := Definition{Name: "bad", InputSchema: map[string]any{"type": 12}}
	if err := reg.Register(bad, echoHandler); err == nil {
		t.Fatalf("expected invalid schema to fail")
	}
}

func TestRegistryDefaultsEmptySchema(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(Definition{Name: "noargs"}, echoHandler)

	def, _ := reg.Lookup("noargs")
	if def.InputSchema["type"] != "object" {
		t.Fatalf("expected object schema default, got %+v", def.InputSchema)
	}
	if _, err := reg.Call(context.Background(), "noargs", nil); err != nil {
		t.Fatalf("Call: %v", err)
	}
}

func TestRegistryUnknownTool(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Call(context.Background(), "missing", nil)
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
}

func TestRegistryPropagatesHandlerError(t *testing.T) {
	reg := NewRegistry()
	boom := errors.New("boom")
	reg.MustRegister(Definition{Name: "fails"}, func(ctx context.Context, args map[string]any) ([]ContentPart, error) {
		return nil, boom
	})
	if _, err := reg.Call(context.Background(), "fails", nil); !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}
}

func TestRegistryCallRecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(noop.NewTracerProvider())
		_ = tp.Shutdown(context.Background())
	})

	reg := NewRegistry()
	reg.MustRegister(echoDefinition(), echoHandler)
	parts, err := reg.Call(context.Background(), "echo", map[string]any{"msg": "hi"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if Text(parts) != "hi" {
		t.Fatalf("unexpected text %q", Text(parts))
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if spans[0].Name() != "tools.call echo" {
		t.Fatalf("unexpected span name %q", spans[0].Name())
	}
	var callID string
	for _, kv := range spans[0].Attributes() {
		if kv.Key == "tool.call_id" {
			callID = kv.Value.AsString()
		}
	}
	if callID == "" {
		t.Fatalf("expected span to carry a call id")
	}
}

// callCounts sums the tool call counter by tool and outcome.
func callCounts(t *testing.T, reader sdkmetric.Reader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "weather_mcp.tool.calls" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected data type %T", m.Data)
			}
			for _, dp := range sum.DataPoints {
				tool, _ := dp.Attributes.Value(attribute.Key("tool.name"))
				outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
				counts[tool.AsString()+"/"+outcome.AsString()] += dp.Value
			}
		}
	}
	return counts
}

func TestRegistryCountsCallsByOutcome(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	t.Cleanup(func() {
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
	})

	reg := NewRegistry()
	reg.MustRegister(echoDefinition(), echoHandler)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := reg.Call(ctx, "echo", map[string]any{"msg": "hi"}); err != nil {
			t.Fatalf("Call: %v", err)
		}
	}
	var verr *ValidationError
	if _, err := reg.Call(ctx, "echo", map[string]any{"msg": 5}); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, err := reg.Call(ctx, "missing", nil); !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}

	counts := callCounts(t, reader)
	want := map[string]int64{
		"echo/ok":         2,
		"echo/invalid":    1,
		"missing/unknown": 1,
	}
	for key, n := range want {
		if counts[key] != n {
			t.Errorf("count %s = %d, want %d (all: %v)", key, counts[key], n, counts)
		}
	}
	if len(counts) != len(want) {
		t.Errorf("unexpected outcomes recorded: %v", counts)
	}
}

func TestText(t *testing.T) {
	parts := []ContentPart{
		{Type: "text", Text: "a"},
		{Type: "log", Text: "ignored"},
		{Type: "text", Text: "b"},
	}
	if got := Text(parts); got != "a\nb" {
		t.Fatalf("unexpected text %q", got)
	}
}
