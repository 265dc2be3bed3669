package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/pagekit/pkg/driver/webdriver"
)

var checkCommand = &cli.Command{
	Name:  "check",
	Usage: "Check that the WebDriver remote end is ready",
	Description: `Queries the remote end's /status endpoint and reports whether it
accepts new sessions.

Examples:
  pagekit check
  pagekit --remote-url http://grid.example:4444 check`,
	Action: runCheck,
}

func runCheck(c *cli.Context) error {
	log, err := buildLogger(c)
	if err != nil {
		return err
	}
	defer log.Sync()

	remoteURL := c.String("remote-url")
	client := webdriver.NewClient(remoteURL, log)

	ready, err := client.Status()
	if err != nil {
		return cli.Exit(fmt.Sprintf("remote end %s unreachable: %v", remoteURL, err), 1)
	}
	if !ready {
		return cli.Exit(fmt.Sprintf("remote end %s is not ready", remoteURL), 1)
	}

	fmt.Fprintf(c.App.Writer, "remote end %s is ready\n", remoteURL)
	return nil
}
