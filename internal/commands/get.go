package weathermcp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mwiater/weather-mcp/internal/tools"
)

var getJSON bool

// errLookupFailed makes the process exit non-zero after the failure text is printed.
var errLookupFailed = errors.New("weather lookup failed")

// getCmd implements 'get <city>', which runs the get_weather tool once
// in-process and prints its result.
var getCmd = &cobra.Command{
	Use:   "get <city>",
	Short: "Run get_weather once and print the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newWeatherClient()
		if err != nil {
			return err
		}
		registry := tools.NewDefaultRegistry(client)

		city := args[0]
		parts, err := registry.Call(cmd.Context(), tools.GetWeatherName, map[string]any{"city": city})
		if err != nil {
			return err
		}
		text := tools.Text(parts)
		failed := text == tools.FailureText(city)

		out := cmd.OutOrStdout()
		if getJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(map[string]any{"city": city, "text": text, "ok": !failed}); err != nil {
				return err
			}
		} else if failed {
			fmt.Fprintln(out, color.New(color.FgRed).Sprint(text))
		} else {
			fmt.Fprintln(out, text)
		}

		if failed {
			cmd.SilenceErrors = true
			return errLookupFailed
		}
		return nil
	},
}

func init() {
	getCmd.Flags().BoolVar(&getJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(getCmd)
}
