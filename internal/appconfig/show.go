package appconfig

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// ShowConfig prints the effective configuration as text, json or yaml.
func ShowConfig(out io.Writer, file string, cfg Config, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	case "yaml", "yml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	case "", "text":
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}

	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Debug:           %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Log File:        %s\n", valueOrNone(cfg.LogFile))
	fmt.Fprintf(out, "  Log Format:      %s\n", valueOrNone(cfg.LogFormat))
	fmt.Fprintf(out, "  Weather URL:     %s\n", cfg.BaseURL())
	fmt.Fprintf(out, "  Request Timeout: %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  User Agent:      %s\n", cfg.Agent(""))
	fmt.Fprintf(out, "  Transport:       %s\n", cfg.TransportMode())
	if cfg.TransportMode() == TransportHTTP {
		fmt.Fprintf(out, "  HTTP Address:    %s\n", cfg.Addr())
	}
	fmt.Fprintf(out, "  Trace Exporter:  %s\n", cfg.Exporter())
	switch cfg.Exporter() {
	case ExporterStdout:
		fmt.Fprintf(out, "  Trace File:      %s\n", valueOrNone(cfg.TraceFile))
	case ExporterOTLP:
		fmt.Fprintf(out, "  OTLP Endpoint:   %s\n", cfg.OTLPEndpoint)
	}
	return nil
}

func valueOrNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
