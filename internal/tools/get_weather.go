package tools

import (
	"context"
	"fmt"

	"github.com/mwiater/weather-mcp/internal/logging"
	"github.com/mwiater/weather-mcp/internal/weather"
)

// GetWeatherName is the canonical name for the weather tool.
const GetWeatherName = "get_weather"

// Lookuper fetches the current conditions for a city.
type Lookuper interface {
	Lookup(ctx context.Context, city string) (weather.Report, error)
}

// GetWeatherDefinition describes the weather tool to the MCP host.
func GetWeatherDefinition() Definition {
	return Definition{
		Name:        GetWeatherName,
		Description: "Get current weather for a city.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"city": map[string]any{
					"type":        "string",
					"description": "City name, airport code, or coordinates, e.g. London, SFO or ~51.5,-0.1",
				},
			},
			"required": []string{"city"},
		},
	}
}

// SuccessText is the result for a city whose lookup returned 200.
func SuccessText(city, conditions string) string {
	return fmt.Sprintf("Weather in %s: %s", city, conditions)
}

// FailureText is the result for every failed lookup, whatever the cause.
func FailureText(city string) string {
	return fmt.Sprintf("Could not fetch weather for %s", city)
}

// GetWeather returns the handler for the weather tool. Upstream errors, transport
// faults and timeouts all collapse into FailureText; the handler itself never errors.
func GetWeather(client Lookuper) Handler {
	return func(ctx context.Context, args map[string]any) ([]ContentPart, error) {
		city, _ := args["city"].(string)

		report, err := client.Lookup(ctx, city)
		if err != nil {
			logging.Logger().Warn("weather lookup failed",
				"city", city,
				"timeout", weather.IsTimeout(err),
				"error", err,
			)
			return []ContentPart{{Type: "text", Text: FailureText(city)}}, nil
		}
		return []ContentPart{{Type: "text", Text: SuccessText(city, report.Text)}}, nil
	}
}

// NewDefaultRegistry returns a registry holding the weather tool backed by client.
func NewDefaultRegistry(client Lookuper) *Registry {
	r := NewRegistry()
	r.MustRegister(GetWeatherDefinition(), GetWeather(client))
	return r
}
