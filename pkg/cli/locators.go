package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/pagekit/pkg/locator"
)

var locatorsCommand = &cli.Command{
	Name:      "locators",
	Usage:     "Vet locator YAML files",
	ArgsUsage: "<file>...",
	Description: `Loads the given locator files and reports empty selectors, unknown
strategies and names duplicated across files.

Examples:
  pagekit locators locators/accounts.yaml
  pagekit locators locators/*.yaml`,
	Action: runLocators,
}

func runLocators(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("no locator files given", 1)
	}

	findings := locator.Vet(c.Args().Slice())
	for _, f := range findings {
		fmt.Fprintln(c.App.Writer, f.String())
	}
	if len(findings) > 0 {
		return cli.Exit(fmt.Sprintf("%d problem(s) found", len(findings)), 1)
	}

	fmt.Fprintf(c.App.Writer, "%d file(s) OK\n", c.NArg())
	return nil
}
