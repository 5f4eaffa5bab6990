// cmd/weather-mcp/main.go
package main

import (
	"os"

	cmd "github.com/mwiater/weather-mcp/internal/commands"
)

// Set by -ldflags at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	setVersionInfo = cmd.SetVersionInfo
	executeCmd     = cmd.Execute
	exit           = os.Exit
)

// main hands control to the cobra root command, which serves MCP over stdio
// when no subcommand is given.
func main() {
	exit(run())
}

func run() int {
	setVersionInfo(version, commit, date)
	return executeCmd()
}
