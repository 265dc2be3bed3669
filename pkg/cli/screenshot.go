package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/pagekit/pkg/harness"
)

var screenshotCommand = &cli.Command{
	Name:  "screenshot",
	Usage: "Open a page and save a screenshot",
	Description: `Boots a browser session, navigates to the target URL and writes a
PNG screenshot. Useful for smoke-checking the remote end and the
application in one shot.

Examples:
  pagekit screenshot --base-url https://app.example:8000 --output home.png
  pagekit screenshot --base-url https://app.example:8000 --path /account --output login.png`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "path",
			Usage: "Path to open relative to the base URL",
			Value: "/",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "File to write the PNG to",
			Value:   "screenshot.png",
		},
	},
	Action: runScreenshot,
}

func runScreenshot(c *cli.Context) error {
	log, err := buildLogger(c)
	if err != nil {
		return err
	}
	defer log.Sync()

	baseURL := c.String("base-url")
	if baseURL == "" {
		return cli.Exit("--base-url is required", 1)
	}

	h := harness.New(harnessConfig(c), nil, log)
	if err := h.Start(); err != nil {
		return cli.Exit(fmt.Sprintf("start session: %v", err), 1)
	}
	defer h.Finish()

	session := h.Session()
	if err := session.Navigate(baseURL + c.String("path")); err != nil {
		return cli.Exit(fmt.Sprintf("navigate: %v", err), 1)
	}

	data, err := session.Screenshot()
	if err != nil {
		return cli.Exit(fmt.Sprintf("screenshot: %v", err), 1)
	}

	output := c.String("output")
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return cli.Exit(fmt.Sprintf("write %s: %v", output, err), 1)
	}

	fmt.Fprintf(c.App.Writer, "wrote %s (%d bytes)\n", output, len(data))
	return nil
}

// harnessConfig maps global flags onto a harness configuration.
func harnessConfig(c *cli.Context) harness.Config {
	return harness.Config{
		RemoteURL: c.String("remote-url"),
		BaseURL:   c.String("base-url"),
		Browser:   c.String("browser"),
		Headless:  c.Bool("headless"),
		Username:  c.String("username"),
		Password:  c.String("password"),
		Retries:   c.Int("retry"),
	}
}
