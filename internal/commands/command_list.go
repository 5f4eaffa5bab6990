// internal/commands/command_list.go
package weathermcp

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mwiater/weather-mcp/internal/tools"
)

// listCmd groups the listing subcommands.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Group commands for listing resources",
	Long:  `The 'list' command groups subcommands that list the registered tools or the CLI command tree.`,
}

// commandsCmd implements 'list commands', which prints the command tree in
// a hierarchical, indented, two-column format.
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List all commands and subcommands in two columns",
	Run: func(cmd *cobra.Command, args []string) {
		commandData := collectCommandData(rootCmd, "", "")
		filtered := make([]CommandInfo, 0, len(commandData))
		for _, data := range commandData {
			if strings.Contains(data.Path, "completion") || strings.Contains(data.Path, " help") {
				continue
			}
			filtered = append(filtered, data)
		}
		ListCommands(cmd.OutOrStdout(), filtered)
	},
}

// toolsCmd implements 'list tools', which prints the tools the server advertises.
var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the MCP tools this server registers",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newWeatherClient()
		if err != nil {
			return err
		}
		ListTools(cmd.OutOrStdout(), tools.NewDefaultRegistry(client).Definitions())
		return nil
	},
}

func init() {
	listCmd.AddCommand(commandsCmd)
	listCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(listCmd)
}

// CommandInfo holds the path and description of a command for display.
type CommandInfo struct {
	Path        string
	Description string
}

// ListCommands prints the command tree in a two-column layout.
func ListCommands(out io.Writer, commands []CommandInfo) {
	maxPathLength := 0
	for _, data := range commands {
		if len(data.Path) > maxPathLength {
			maxPathLength = len(data.Path)
		}
	}

	fmt.Fprintln(out, "Commands and Subcommands:")
	for _, data := range commands {
		fmt.Fprintf(out, "  %s%s%s\n", data.Path, strings.Repeat(" ", maxPathLength-len(data.Path)+2), data.Description)
	}
}

// collectCommandData walks the command tree and flattens it into path/description pairs.
func collectCommandData(cmd *cobra.Command, currentPath string, indent string) []CommandInfo {
	fullPath := cmd.Name()
	if currentPath != "" {
		fullPath = currentPath + " " + cmd.Name()
	}

	all := []CommandInfo{{Path: indent + fullPath, Description: cmd.Short}}
	for _, sub := range cmd.Commands() {
		all = append(all, collectCommandData(sub, fullPath, indent+"  ")...)
	}
	return all
}

// ListTools prints each tool with its description and argument names.
func ListTools(out io.Writer, defs []tools.Definition) {
	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	argStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	fmt.Fprintln(out, "Registered tools:")
	for _, def := range defs {
		fmt.Fprintf(out, "  %s  %s\n", nameStyle.Render(def.Name), def.Description)
		for _, arg := range toolArguments(def) {
			fmt.Fprintf(out, "    %s\n", argStyle.Render(arg))
		}
	}
}

func toolArguments(def tools.Definition) []string {
	props, _ := def.InputSchema["properties"].(map[string]any)
	required := map[string]bool{}
	switch req := def.InputSchema["required"].(type) {
	case []string:
		for _, name := range req {
			required[name] = true
		}
	case []any:
		for _, name := range req {
			if s, ok := name.(string); ok {
				required[s] = true
			}
		}
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	slices.Sort(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		typ := "any"
		if p, ok := props[name].(map[string]any); ok {
			if t, ok := p["type"].(string); ok {
				typ = t
			}
		}
		line := fmt.Sprintf("%s (%s)", name, typ)
		if required[name] {
			line += " required"
		}
		lines = append(lines, line)
	}
	return lines
}
