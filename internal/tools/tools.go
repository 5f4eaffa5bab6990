package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/mwiater/weather-mcp/internal/logging"
)

// Definition describes the metadata the MCP server exposes for a tool.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ContentPart represents a piece of data returned from a tool invocation.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Handler executes a tool using the provided arguments.
type Handler func(ctx context.Context, args map[string]any) ([]ContentPart, error)

// ErrUnknownTool is returned by Call for names that were never registered.
var ErrUnknownTool = errors.New("unknown tool")

const instrumentationName = "github.com/mwiater/weather-mcp/internal/tools"

type entry struct {
	def     Definition
	schema  *gojsonschema.Schema
	handler Handler
}

// Registry maps tool names to their definitions and handlers. It is filled at
// startup and read concurrently afterwards.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	order   []string
	calls   metric.Int64Counter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	calls, err := otel.Meter(instrumentationName).Int64Counter(
		"weather_mcp.tool.calls",
		metric.WithDescription("Tool invocations by name and outcome."),
	)
	if err != nil {
		logging.LogEvent("tool call counter unavailable: %v", err)
	}
	return &Registry{
		entries: make(map[string]entry),
		calls:   calls,
	}
}

// Register adds a tool. Names must be unique and schemas must compile.
func (r *Registry) Register(def Definition, handler Handler) error {
	if def.Name == "" {
		return errors.New("tool name is required")
	}
	if handler == nil {
		return fmt.Errorf("tool %q: handler is required", def.Name)
	}
	if def.InputSchema == nil {
		def.InputSchema = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	schema, err := compileSchema(def.InputSchema)
	if err != nil {
		return fmt.Errorf("tool %q: %w", def.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[def.Name]; exists {
		return fmt.Errorf("tool %q already registered", def.Name)
	}
	r.entries[def.Name] = entry{def: def, schema: schema, handler: handler}
	r.order = append(r.order, def.Name)
	return nil
}

// MustRegister is Register for startup wiring where a failure is a programming error.
func (r *Registry) MustRegister(def Definition, handler Handler) {
	if err := r.Register(def, handler); err != nil {
		panic(err)
	}
}

// Definitions lists registered tools in registration order.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.entries[name].def)
	}
	return defs
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.def, ok
}

// Call validates args against the tool's schema and runs its handler.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) ([]ContentPart, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		r.count(ctx, name, "unknown")
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if args == nil {
		args = map[string]any{}
	}

	callID := uuid.NewString()
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "tools.call "+name)
	span.SetAttributes(
		attribute.String("tool.name", name),
		attribute.String("tool.call_id", callID),
	)
	defer span.End()

	logging.LogRequest("call", name, callID, args)
	start := time.Now()

	if err := validateArgs(name, e.schema, args); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid arguments")
		r.count(ctx, name, "invalid")
		logging.Logger().Warn("tool arguments rejected", "tool", name, "call_id", callID, "error", err)
		return nil, err
	}

	content, err := e.handler(ctx, args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.count(ctx, name, "error")
		logging.Logger().Warn("tool failed", "tool", name, "call_id", callID, "error", err)
		return nil, err
	}

	r.count(ctx, name, "ok")
	logging.LogRequest("result", name, callID, content)
	logging.Logger().Debug("tool completed", "tool", name, "call_id", callID, "elapsed", time.Since(start))
	return content, nil
}

func (r *Registry) count(ctx context.Context, name, outcome string) {
	if r.calls == nil {
		return
	}
	r.calls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("outcome", outcome),
	))
}

// Text joins the text parts of a tool result.
func Text(parts []ContentPart) string {
	var out string
	for _, p := range parts {
		if p.Type != "text" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += p.Text
	}
	return out
}
