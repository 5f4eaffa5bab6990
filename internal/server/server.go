// Package server exposes a tools.Registry as an MCP server over stdio or
// streamable HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mwiater/weather-mcp/internal/logging"
	"github.com/mwiater/weather-mcp/internal/tools"
)

// Info identifies the server to connecting clients.
type Info struct {
	Name    string
	Version string
}

// DefaultName is the server name advertised during initialize.
const DefaultName = "weather"

// Server owns one MCP server instance and the registry behind it. There is no
// package-level instance; callers construct one and pass it to Run.
type Server struct {
	info     Info
	registry *tools.Registry
	mcp      *mcp.Server
}

// New builds a server and installs every tool in registry.
func New(info Info, registry *tools.Registry) *Server {
	if info.Name == "" {
		info.Name = DefaultName
	}
	if info.Version == "" {
		info.Version = "dev"
	}

	s := &Server{
		info:     info,
		registry: registry,
		mcp:      mcp.NewServer(&mcp.Implementation{Name: info.Name, Version: info.Version}, nil),
	}
	for _, def := range registry.Definitions() {
		s.mcp.AddTool(&mcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, s.handlerFor(def.Name))
	}
	return s
}

// Info returns the advertised identity.
func (s *Server) Info() Info { return s.info }

func (s *Server) handlerFor(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args map[string]any
		if req.Params != nil && len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return errorResult(fmt.Errorf("arguments must be a JSON object: %w", err)), nil
			}
		}

		parts, err := s.registry.Call(ctx, name, args)
		if err != nil {
			return errorResult(err), nil
		}
		return textResult(parts), nil
	}
}

func textResult(parts []tools.ContentPart) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(parts))
	for _, p := range parts {
		if p.Type != "text" {
			continue
		}
		content = append(content, &mcp.TextContent{Text: p.Text})
	}
	return &mcp.CallToolResult{Content: content}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}

// Run serves over stdin/stdout until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	logging.Logger().Info("starting MCP server", "transport", "stdio", "name", s.info.Name, "version", s.info.Version, "tools", len(s.registry.Definitions()))
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

// Connect serves a single session over t; used for in-process transports.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcp.Connect(ctx, t, nil)
}

// HTTPHandler serves MCP streamable HTTP on /mcp and a liveness probe on /healthz.
func (s *Server) HTTPHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"name":    s.info.Name,
			"version": s.info.Version,
		})
	})

	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.mcp }, nil)
	r.Handle("/mcp", streamable)
	r.Handle("/mcp/*", streamable)
	return r
}

// ListenAndServe runs the HTTP transport on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Logger().Info("starting MCP server", "transport", "http", "addr", addr, "name", s.info.Name, "version", s.info.Version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
