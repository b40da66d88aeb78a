package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/branchweb/branchweb-go/internal/cli/output"
	"github.com/branchweb/branchweb-go/internal/server/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	configFlag := &cli.StringFlag{
		Name:     "config",
		Aliases:  []string{"c"},
		Usage:    "Server configuration file",
		Required: true,
	}

	return &cli.Command{
		Name:  "config",
		Usage: "Inspect server configuration files",
		Subcommands: []*cli.Command{
			{
				Name:   "validate",
				Usage:  "Check a server configuration file",
				Flags:  []cli.Flag{configFlag},
				Action: configValidate,
			},
			{
				Name:   "show",
				Usage:  "Print the effective server configuration",
				Flags:  []cli.Flag{configFlag},
				Action: configShow,
			},
		},
	}
}

func configValidate(c *cli.Context) error {
	path := c.String("config")
	if _, err := config.Load(path); err != nil {
		return cli.Exit(fmt.Sprintf("%s: %v", path, err), 1)
	}
	fmt.Fprintf(c.App.Writer, "%s: configuration is valid\n", path)
	return nil
}

// configShow prints the file merged over defaults and the environment.
// The table format has no sensible rendering of the nested sections, so
// it falls back to YAML.
func configShow(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	format := flags.Output
	if format == output.FormatTable {
		format = output.FormatYAML
	}
	return printResult(c, format, cfg)
}
