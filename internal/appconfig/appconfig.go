// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix namespaces environment overrides, e.g. WEATHER_MCP_TIMEOUT.
	EnvPrefix = "WEATHER_MCP"

	defaultBaseURL        = "https://wttr.in"
	defaultRequestTimeout = 30 * time.Second
	defaultHTTPAddr       = "127.0.0.1:8080"
	defaultUserAgent      = "weather-mcp"
)

// Transport modes.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Trace exporters.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Config represents the top-level application configuration.
type Config struct {
	Debug          bool   `json:"debug" yaml:"debug" mapstructure:"debug"`
	LogFile        string `json:"logFile,omitempty" yaml:"logFile,omitempty" mapstructure:"logFile"`
	LogFormat      string `json:"logFormat,omitempty" yaml:"logFormat,omitempty" mapstructure:"logFormat"`
	WeatherBaseURL string `json:"weatherBaseURL,omitempty" yaml:"weatherBaseURL,omitempty" mapstructure:"weatherBaseURL"`
	TimeoutSeconds int    `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`
	UserAgent      string `json:"userAgent,omitempty" yaml:"userAgent,omitempty" mapstructure:"userAgent"`
	Transport      string `json:"transport,omitempty" yaml:"transport,omitempty" mapstructure:"transport"`
	HTTPAddr       string `json:"httpAddr,omitempty" yaml:"httpAddr,omitempty" mapstructure:"httpAddr"`
	TraceExporter  string `json:"traceExporter,omitempty" yaml:"traceExporter,omitempty" mapstructure:"traceExporter"`
	TraceFile      string `json:"traceFile,omitempty" yaml:"traceFile,omitempty" mapstructure:"traceFile"`
	OTLPEndpoint   string `json:"otlpEndpoint,omitempty" yaml:"otlpEndpoint,omitempty" mapstructure:"otlpEndpoint"`
	ConfigPath     string `json:"-" yaml:"-" mapstructure:"-"`
}

// SetDefaults registers every key's default on v so env and file lookups see the full key set.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("logFile", "")
	v.SetDefault("logFormat", "text")
	v.SetDefault("weatherBaseURL", defaultBaseURL)
	v.SetDefault("timeout", int(defaultRequestTimeout.Seconds()))
	v.SetDefault("userAgent", defaultUserAgent)
	v.SetDefault("transport", TransportStdio)
	v.SetDefault("httpAddr", defaultHTTPAddr)
	v.SetDefault("traceExporter", ExporterNone)
	v.SetDefault("traceFile", "")
	v.SetDefault("otlpEndpoint", "")
}

// Decode unmarshals v into a Config and validates it.
func Decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values that would only fail later at startup.
func (c Config) Validate() error {
	var errs []error
	switch c.TransportMode() {
	case TransportStdio, TransportHTTP:
	default:
		errs = append(errs, fmt.Errorf("unknown transport %q (want %s or %s)", c.Transport, TransportStdio, TransportHTTP))
	}
	switch c.Exporter() {
	case ExporterNone, ExporterStdout:
	case ExporterOTLP:
		if strings.TrimSpace(c.OTLPEndpoint) == "" {
			errs = append(errs, errors.New("otlpEndpoint is required when traceExporter is otlp"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown traceExporter %q", c.TraceExporter))
	}
	if u, err := url.Parse(c.BaseURL()); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("weatherBaseURL %q must be an absolute URL", c.BaseURL()))
	}
	if c.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %d", c.TimeoutSeconds))
	}
	return errors.Join(errs...)
}

// RequestTimeout returns the per-lookup timeout, falling back to 30 seconds.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BaseURL returns the upstream weather service URL.
func (c Config) BaseURL() string {
	if u := strings.TrimSpace(c.WeatherBaseURL); u != "" {
		return u
	}
	return defaultBaseURL
}

// TransportMode returns the normalized transport, stdio unless set.
func (c Config) TransportMode() string {
	if t := strings.ToLower(strings.TrimSpace(c.Transport)); t != "" {
		return t
	}
	return TransportStdio
}

// Addr returns the listen address for the HTTP transport.
func (c Config) Addr() string {
	if a := strings.TrimSpace(c.HTTPAddr); a != "" {
		return a
	}
	return defaultHTTPAddr
}

// Exporter returns the normalized trace exporter, none unless set.
func (c Config) Exporter() string {
	if e := strings.ToLower(strings.TrimSpace(c.TraceExporter)); e != "" {
		return e
	}
	return ExporterNone
}

// Agent returns the User-Agent sent upstream.
func (c Config) Agent(version string) string {
	ua := strings.TrimSpace(c.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	if version == "" || strings.Contains(ua, "/") {
		return ua
	}
	return ua + "/" + version
}
