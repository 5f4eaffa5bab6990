package weathermcp

import (
	"errors"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"github.com/mwiater/weather-mcp/internal/appconfig"
)

var showOutput string

// showCmd groups the display subcommands.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Group commands for displaying resources",
}

// showConfigCmd implements 'show config', which displays the effective configuration.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show the effective config after the config file, WEATHER_MCP_* environment variables and flags have been merged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return errors.New("configuration not loaded")
		}
		if err := appconfig.ShowConfig(cmd.OutOrStdout(), cfg.ConfigPath, *cfg, showOutput); err != nil {
			return err
		}
		if cfg.Debug {
			_, _ = pp.Fprintln(cmd.ErrOrStderr(), *cfg)
		}
		return nil
	},
}

func init() {
	showConfigCmd.Flags().StringVarP(&showOutput, "output", "o", "text", "output format: text, json or yaml")
	showCmd.AddCommand(showConfigCmd)
	rootCmd.AddCommand(showCmd)
}
