package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/branchweb/branchweb-go/internal/cli/config"
	"github.com/branchweb/branchweb-go/internal/cli/connection"
	"github.com/branchweb/branchweb-go/internal/cli/output"
	"github.com/branchweb/branchweb-go/internal/infra/buildinfo"
)

const metaConfig = "cliConfig"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "branchweb-cli",
		Usage:   "branchweb command-line management tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			UserCommand(),
			LoginCommand(),
			LogoffCommand(),
			CheckCommand(),
			WhoAmICommand(),
			KeysCommand(),
			HealthCommand(),
			ConfigCommand(),
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("cli-config"))
			if err != nil {
				return fmt.Errorf("load cli config: %w", err)
			}
			if c.App.Metadata == nil {
				c.App.Metadata = map[string]any{}
			}
			c.App.Metadata[metaConfig] = cfg
			return nil
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "branchweb server address (e.g., localhost:8080)",
			EnvVars: []string{"BRANCHWEB_SERVER"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.StringFlag{
			Name:    "users-file",
			Usage:   "User file edited by the user commands",
			EnvVars: []string{"BRANCHWEB_USERS_FILE"},
		},
		&cli.StringFlag{
			Name:  "cli-config",
			Usage: "CLI defaults file (default ~/.branchweb/cli.yaml)",
		},
	}
}

// GlobalFlags are the global settings after applying CLI defaults.
type GlobalFlags struct {
	Server        string
	Output        output.Format
	UsersFile     string
	HashAlgorithm string
}

// ParseGlobalFlags merges the global flags over the CLI config.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg, ok := c.App.Metadata[metaConfig].(*config.CLIConfig)
	if !ok {
		cfg = config.Default()
	}

	pick := func(flag, fallback string) string {
		if v := c.String(flag); v != "" {
			return v
		}
		return fallback
	}

	format, err := output.ParseFormat(pick("output", cfg.Output))
	if err != nil {
		return nil, err
	}
	return &GlobalFlags{
		Server:        pick("server", cfg.Server),
		Output:        format,
		UsersFile:     pick("users-file", cfg.UsersFile),
		HashAlgorithm: cfg.HashAlgorithm,
	}, nil
}

// newClient returns a client for the selected server.
func newClient(c *cli.Context) (*connection.HTTPClient, *GlobalFlags, error) {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return nil, nil, err
	}
	return connection.NewHTTPClient(flags.Server), flags, nil
}

// printResult writes data in the selected format.
func printResult(c *cli.Context, format output.Format, data any) error {
	return output.NewFormatter(format).Format(c.App.Writer, data)
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
