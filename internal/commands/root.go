// internal/commands/root.go
package weathermcp

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/weather-mcp/internal/appconfig"
	"github.com/mwiater/weather-mcp/internal/logging"
	"github.com/mwiater/weather-mcp/internal/telemetry"
)

var (
	cfgFile       string
	currentConfig *appconfig.Config
	shutdownTrace telemetry.Shutdown
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

// rootCmd represents the base command. Without a subcommand it serves MCP, so
// an MCP client can launch the bare binary.
var rootCmd = &cobra.Command{
	Use:          "weather-mcp",
	Short:        "weather-mcp: an MCP server exposing a get_weather tool backed by wttr.in",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		cfg, err := appconfig.Decode(viper.GetViper())
		if err != nil {
			return err
		}
		if cfgFile != "" {
			cfg.ConfigPath = cfgFile
		}
		currentConfig = &cfg

		if err := logging.Init(logging.Options{
			Path:   cfg.LogFile,
			Debug:  cfg.Debug,
			Format: cfg.LogFormat,
			Stderr: cmd.ErrOrStderr(),
		}); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		shutdown, err := telemetry.Setup(ctx, telemetry.Options{
			Exporter:       cfg.Exporter(),
			File:           cfg.TraceFile,
			Endpoint:       cfg.OTLPEndpoint,
			ServiceVersion: appVersion,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		shutdownTrace = shutdown
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return flushTelemetry()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	defer logging.Close()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		_ = flushTelemetry()
		return 1
	}
	return 0
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default searches config/config.{json,yaml} and ./config.{json,yaml})")

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("logFile", "", "path to the log file (logs always go to stderr as well)")
	rootCmd.PersistentFlags().String("logFormat", "text", "log format: text or json")
	rootCmd.PersistentFlags().Int("timeout", 30, "seconds to wait for the weather service")
	rootCmd.PersistentFlags().String("weatherBaseURL", "https://wttr.in", "base URL of the plain-text weather service")
	rootCmd.PersistentFlags().String("traceExporter", "none", "trace exporter: none, stdout or otlp")
}

// persistentKeys are the root flags that double as config keys.
var persistentKeys = []string{"debug", "logFile", "logFormat", "timeout", "weatherBaseURL", "traceExporter"}

// initConfig registers defaults and flag bindings, then points viper at the
// config file and environment. It is safe to call after viper.Reset.
func initConfig() {
	appconfig.SetDefaults(viper.GetViper())
	for _, name := range persistentKeys {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
	_ = viper.BindPFlag("transport", serveCmd.Flags().Lookup("transport"))
	_ = viper.BindPFlag("httpAddr", serveCmd.Flags().Lookup("addr"))

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath("config")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix(appconfig.EnvPrefix)
	viper.AutomaticEnv()
}

// ensureConfigLoaded reads the config file. A missing default file is fine; a
// missing file named with --config is not.
func ensureConfigLoaded() error {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		if cfgFile != "" && errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %q not found", cfgFile)
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

func flushTelemetry() error {
	if shutdownTrace == nil {
		return nil
	}
	shutdown := shutdownTrace
	shutdownTrace = nil
	return shutdown(context.Background())
}

// GetConfig returns the loaded application configuration.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
