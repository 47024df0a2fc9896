// Package config parses the two configuration surfaces the server accepts
// at startup: CLI flags and the JSON map-configuration file, plus the one
// required environment variable.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// CLI holds every flag the server accepts. Long and short forms share the
// same underlying variable, so either spelling works identically.
type CLI struct {
	ConfigFile           string
	WWWRoot              string
	TickPeriod           time.Duration
	HasTickPeriod        bool
	RandomizeSpawnPoints bool
	StateFile            string
	SaveStatePeriod      time.Duration
	HasSaveStatePeriod   bool
}

// ParseCLI parses args (typically os.Args[1:]) into a CLI, applying the
// required-flag and cross-flag validation the server needs before it can
// start: --config-file and --www-root are mandatory, and
// --save-state-period only makes sense alongside --state-file.
func ParseCLI(args []string) (CLI, error) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	var cli CLI
	var tickPeriodMs, savePeriodMs int
	var help bool

	fs.StringVar(&cli.ConfigFile, "config-file", "", "path to the map configuration JSON file (required)")
	fs.StringVar(&cli.ConfigFile, "c", "", "shorthand for --config-file")
	fs.StringVar(&cli.WWWRoot, "www-root", "", "directory to serve static files from (required)")
	fs.StringVar(&cli.WWWRoot, "w", "", "shorthand for --www-root")
	fs.IntVar(&tickPeriodMs, "tick-period", 0, "tick period in milliseconds; enables server-driven ticking")
	fs.IntVar(&tickPeriodMs, "t", 0, "shorthand for --tick-period")
	fs.BoolVar(&cli.RandomizeSpawnPoints, "randomize-spawn-points", false, "spawn dogs at a random point on a random road")
	fs.BoolVar(&cli.RandomizeSpawnPoints, "r", false, "shorthand for --randomize-spawn-points")
	fs.StringVar(&cli.StateFile, "state-file", "", "path to persist and restore a snapshot from")
	fs.StringVar(&cli.StateFile, "s", "", "shorthand for --state-file")
	fs.IntVar(&savePeriodMs, "save-state-period", 0, "snapshot interval in milliseconds; requires --state-file")
	fs.IntVar(&savePeriodMs, "p", 0, "shorthand for --save-state-period")
	fs.BoolVar(&help, "help", false, "print usage and exit")
	fs.BoolVar(&help, "h", false, "shorthand for --help")

	if err := fs.Parse(args); err != nil {
		return CLI{}, err
	}
	if help {
		fs.SetOutput(os.Stdout)
		fs.Usage()
		return CLI{}, flag.ErrHelp
	}

	if cli.ConfigFile == "" {
		return CLI{}, fmt.Errorf("config: --config-file|-c is required")
	}
	if cli.WWWRoot == "" {
		return CLI{}, fmt.Errorf("config: --www-root|-w is required")
	}
	if savePeriodMs > 0 && cli.StateFile == "" {
		return CLI{}, fmt.Errorf("config: --save-state-period|-p requires --state-file|-s")
	}

	if tickPeriodMs > 0 {
		cli.TickPeriod = time.Duration(tickPeriodMs) * time.Millisecond
		cli.HasTickPeriod = true
	}
	if savePeriodMs > 0 {
		cli.SaveStatePeriod = time.Duration(savePeriodMs) * time.Millisecond
		cli.HasSaveStatePeriod = true
	}
	return cli, nil
}

// DatabaseURL reads the required PostgreSQL connection string.
func DatabaseURL() (string, error) {
	url := os.Getenv("GAME_DB_URL")
	if url == "" {
		return "", fmt.Errorf("config: GAME_DB_URL environment variable is required")
	}
	return url, nil
}
