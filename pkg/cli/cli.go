// Package cli provides the command-line interface for pagekit.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/devicelab-dev/pagekit/pkg/logging"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "remote-url",
		Aliases: []string{"r"},
		Usage:   "WebDriver remote end URL (Selenium grid, chromedriver)",
		Value:   "http://127.0.0.1:4444",
		EnvVars: []string{"PAGEKIT_REMOTE_URL"},
	},
	&cli.StringFlag{
		Name:    "base-url",
		Aliases: []string{"u"},
		Usage:   "Base URL of the application under test",
		EnvVars: []string{"PAGEKIT_BASE_URL"},
	},
	&cli.StringFlag{
		Name:    "browser",
		Aliases: []string{"b"},
		Usage:   "Browser to request (chrome, firefox, edge, safari)",
		Value:   "chrome",
		EnvVars: []string{"PAGEKIT_BROWSER"},
	},
	&cli.BoolFlag{
		Name:    "headless",
		Usage:   "Run the browser headless",
		EnvVars: []string{"PAGEKIT_HEADLESS"},
	},
	&cli.StringFlag{
		Name:    "username",
		Usage:   "Application login username",
		EnvVars: []string{"PAGEKIT_USERNAME"},
	},
	&cli.StringFlag{
		Name:    "password",
		Usage:   "Application login password",
		EnvVars: []string{"PAGEKIT_PASSWORD"},
	},
	&cli.IntFlag{
		Name:    "retry",
		Usage:   "Extra session bootstrap attempts",
		Value:   2,
		EnvVars: []string{"PAGEKIT_RETRY"},
	},
	&cli.DurationFlag{
		Name:    "timeout",
		Usage:   "Default wait timeout",
		EnvVars: []string{"PAGEKIT_TIMEOUT"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"PAGEKIT_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// newApp assembles the application; split out so tests can drive it.
func newApp() *cli.App {
	return &cli.App{
		Name:    "pagekit",
		Usage:   "Page-object toolkit for browser UI tests",
		Version: Version,
		Description: `Pagekit drives browser UI tests through page objects: locator
registries, wait facades, table engines and modal containers.

Examples:
  pagekit check
  pagekit screenshot --base-url https://app.example:8000 --output page.png
  pagekit locators locators/*.yaml`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			checkCommand,
			screenshotCommand,
			locatorsCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildLogger constructs the logger shared by all commands.
func buildLogger(c *cli.Context) (*zap.Logger, error) {
	level := ""
	if c.Bool("verbose") {
		level = "debug"
	}
	return logging.New(logging.Options{
		Level:   level,
		NoColor: c.Bool("no-ansi"),
	})
}
