package weathermcp

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mwiater/weather-mcp/internal/probe"
)

var probeBinary string

// probeGrace covers child startup and the initialize handshake on top of the lookup timeout.
const probeGrace = 10 * time.Second

// probeCmd implements 'probe [city]': it spawns a server over stdio, lists
// its tools and calls get_weather once, like an MCP host would.
var probeCmd = &cobra.Command{
	Use:   "probe [city]",
	Short: "Spawn the server over stdio and perform one get_weather round trip",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		city := "London"
		if len(args) == 1 {
			city = args[0]
		}

		binary := probeBinary
		if binary == "" {
			self, err := os.Executable()
			if err != nil {
				return fmt.Errorf("locate executable: %w", err)
			}
			binary = self
		}

		childArgs := []string{"serve", "--transport", "stdio"}
		if cfgFile != "" {
			childArgs = append(childArgs, "--config", cfgFile)
		}

		timeout := GetConfig().RequestTimeout() + probeGrace
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		transport, err := probe.CommandTransport(ctx, binary, childArgs...)
		if err != nil {
			return err
		}
		report, err := probe.Probe(ctx, transport, city, appVersion)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Server:  %s\n", report.Server)
		fmt.Fprintf(out, "Tools:   %v\n", report.Tools)
		fmt.Fprintf(out, "Elapsed: %s\n", report.Elapsed.Round(time.Millisecond))
		if report.Failed() {
			fmt.Fprintf(out, "Result:  %s\n", color.New(color.FgRed).Sprint(report.Output))
			cmd.SilenceErrors = true
			return errLookupFailed
		}
		fmt.Fprintf(out, "Result:  %s\n", color.New(color.FgGreen).Sprint(report.Output))
		return nil
	},
}

func init() {
	probeCmd.Flags().StringVar(&probeBinary, "binary", "", "server binary to spawn (defaults to this executable)")
	rootCmd.AddCommand(probeCmd)
}
