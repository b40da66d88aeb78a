package command

import (
	"github.com/urfave/cli/v2"
)

// HealthCommand returns the health command.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Check server health",
		Action: health,
	}
}

// healthStatus mirrors the health endpoint payload.
type healthStatus struct {
	Status     string `json:"status" yaml:"status"`
	Version    string `json:"version" yaml:"version"`
	Commit     string `json:"commit" yaml:"commit"`
	ActiveKeys int    `json:"active_keys" yaml:"active_keys"`
	Users      int    `json:"users" yaml:"users"`
}

func health(c *cli.Context) error {
	client, flags, err := newClient(c)
	if err != nil {
		return err
	}

	var result healthStatus
	if err := client.Get(c.Context, "/health", nil, &result); err != nil {
		PrintError("health check failed: %v", err)
		return cli.Exit("server unhealthy", 1)
	}
	return printResult(c, flags.Output, result)
}
