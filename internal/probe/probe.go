// Package probe drives a weather MCP server from the client side: it connects,
// discovers tools and performs one get_weather round trip.
package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mwiater/weather-mcp/internal/logging"
	"github.com/mwiater/weather-mcp/internal/tools"
)

// Report summarizes one probe run.
type Report struct {
	Server  string
	Tools   []string
	City    string
	Output  string
	IsError bool
	Elapsed time.Duration
}

// CommandTransport returns a stdio transport that spawns binary with args.
// The child's stderr is forwarded so its logs stay visible.
func CommandTransport(ctx context.Context, binary string, args ...string) (mcp.Transport, error) {
	if _, err := os.Stat(binary); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.LogEvent("MCP server start aborted: binary %q missing", binary)
			return nil, fmt.Errorf("mcp binary not found at %q", binary)
		}
		return nil, fmt.Errorf("mcp binary %q not accessible: %w", binary, err)
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = os.Environ()
	cmd.Stderr = os.Stderr
	return &mcp.CommandTransport{Command: cmd}, nil
}

// Probe connects over t, lists tools and calls get_weather for city.
func Probe(ctx context.Context, t mcp.Transport, city string, version string) (Report, error) {
	client := mcp.NewClient(&mcp.Implementation{Name: "weather-mcp-probe", Version: version}, nil)

	start := time.Now()
	session, err := client.Connect(ctx, t, nil)
	if err != nil {
		return Report{}, fmt.Errorf("mcp initialize: %w", err)
	}
	defer session.Close()

	report := Report{City: city}
	if init := session.InitializeResult(); init != nil && init.ServerInfo != nil {
		report.Server = fmt.Sprintf("%s %s", init.ServerInfo.Name, init.ServerInfo.Version)
	}

	listed, err := session.ListTools(ctx, nil)
	if err != nil {
		return Report{}, fmt.Errorf("tools/list: %w", err)
	}
	found := false
	for _, tool := range listed.Tools {
		report.Tools = append(report.Tools, tool.Name)
		if tool.Name == tools.GetWeatherName {
			found = true
		}
	}
	if len(report.Tools) > 0 {
		logging.LogEvent("Available MCP tools: %s", strings.Join(report.Tools, ", "))
	}
	if !found {
		return report, fmt.Errorf("server does not expose %s", tools.GetWeatherName)
	}

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      tools.GetWeatherName,
		Arguments: map[string]any{"city": city},
	})
	if err != nil {
		return report, fmt.Errorf("tools/call %s: %w", tools.GetWeatherName, err)
	}

	var texts []string
	for _, c := range res.Content {
		if text, ok := c.(*mcp.TextContent); ok {
			texts = append(texts, text.Text)
		}
	}
	report.Output = strings.Join(texts, "\n")
	report.IsError = res.IsError
	report.Elapsed = time.Since(start)
	return report, nil
}

// Failed reports whether the round trip produced the fixed failure text or a tool error.
func (r Report) Failed() bool {
	return r.IsError || r.Output == tools.FailureText(r.City)
}
