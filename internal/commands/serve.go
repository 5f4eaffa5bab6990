// internal/commands/serve.go
package weathermcp

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mwiater/weather-mcp/internal/appconfig"
	"github.com/mwiater/weather-mcp/internal/logging"
	"github.com/mwiater/weather-mcp/internal/server"
	"github.com/mwiater/weather-mcp/internal/tools"
	"github.com/mwiater/weather-mcp/internal/weather"
)

// serveCmd implements 'serve', the MCP server entry point. The root command
// runs the same code when invoked without a subcommand.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the get_weather tool over MCP (stdio or streamable HTTP)",
	Long: `Serve the get_weather tool to an MCP host. With the default stdio transport the
process reads JSON-RPC from stdin and writes responses to stdout until the host closes
the stream; logs go to stderr. With --transport http the server listens on --addr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().String("transport", appconfig.TransportStdio, "transport: stdio or http")
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "listen address for the http transport")
	rootCmd.AddCommand(serveCmd)
}

func newWeatherClient() (*weather.Client, error) {
	cfg := GetConfig()
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return weather.NewClient(weather.Options{
		BaseURL:   cfg.BaseURL(),
		Timeout:   cfg.RequestTimeout(),
		UserAgent: cfg.Agent(appVersion),
	})
}

func newServer() (*server.Server, error) {
	client, err := newWeatherClient()
	if err != nil {
		return nil, err
	}
	return server.New(server.Info{Version: appVersion}, tools.NewDefaultRegistry(client)), nil
}

func runServe(cmd *cobra.Command) error {
	srv, err := newServer()
	if err != nil {
		return err
	}
	cfg := GetConfig()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.TransportMode() {
	case appconfig.TransportHTTP:
		err = srv.ListenAndServe(ctx, cfg.Addr())
	default:
		err = srv.Run(ctx)
	}
	if err != nil {
		logging.Logger().Error("server stopped", "error", err)
		return fmt.Errorf("serve: %w", err)
	}
	logging.LogEvent("server stopped")
	return nil
}
