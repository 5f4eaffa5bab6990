package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mwiater/weather-mcp/internal/server"
	"github.com/mwiater/weather-mcp/internal/tools"
	"github.com/mwiater/weather-mcp/internal/weather"
)

func startServer(t *testing.T, status int, body string) mcp.Transport {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(upstream.Close)

	client, err := weather.NewClient(weather.Options{BaseURL: upstream.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	srv := server.New(server.Info{Version: "test"}, tools.NewDefaultRegistry(client))

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := srv.Connect(context.Background(), serverTransport)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = ss.Close() })
	return clientTransport
}

func TestProbeSuccess(t *testing.T) {
	transport := startServer(t, http.StatusOK, "Sunny +30°C")

	report, err := Probe(context.Background(), transport, "Lisbon", "test")
	if err != nil {
		t.Fatalf("Probe error: %v", err)
	}
	if report.Output != "Weather in Lisbon: Sunny +30°C" {
		t.Fatalf("unexpected output %q", report.Output)
	}
	if report.Failed() {
		t.Fatalf("expected success report: %+v", report)
	}
	if len(report.Tools) != 1 || report.Tools[0] != tools.GetWeatherName {
		t.Fatalf("unexpected tools %v", report.Tools)
	}
	if report.Server != "weather test" {
		t.Fatalf("unexpected server identity %q", report.Server)
	}
}

func TestProbeReportsFailureText(t *testing.T) {
	transport := startServer(t, http.StatusServiceUnavailable, "")

	report, err := Probe(context.Background(), transport, "Lisbon", "test")
	if err != nil {
		t.Fatalf("Probe error: %v", err)
	}
	if !report.Failed() {
		t.Fatalf("expected failed report: %+v", report)
	}
	if report.Output != "Could not fetch weather for Lisbon" {
		t.Fatalf("unexpected output %q", report.Output)
	}
}

func TestCommandTransportMissingBinary(t *testing.T) {
	_, err := CommandTransport(context.Background(), filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatalf("expected error for missing binary")
	}
}
