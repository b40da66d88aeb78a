package command

import (
	"fmt"
	"net/url"
	"time"

	"github.com/urfave/cli/v2"
)

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in and print the issued key",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "User name",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Aliases:  []string{"p"},
				Usage:    "Password",
				EnvVars:  []string{"BRANCHWEB_PASSWORD"},
				Required: true,
			},
		},
		Action: login,
	}
}

// LogoffCommand returns the logoff command.
func LogoffCommand() *cli.Command {
	return &cli.Command{
		Name:      "logoff",
		Usage:     "Revoke a key",
		ArgsUsage: "KEY",
		Action: func(c *cli.Context) error {
			return postWithKey(c, "logoff")
		},
	}
}

// CheckCommand returns the check command.
func CheckCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Check that a key is valid",
		ArgsUsage: "KEY",
		Action: func(c *cli.Context) error {
			return postWithKey(c, "checkauth")
		},
	}
}

// WhoAmICommand returns the whoami command.
func WhoAmICommand() *cli.Command {
	return &cli.Command{
		Name:      "whoami",
		Usage:     "Show the user a key belongs to",
		ArgsUsage: "KEY",
		Action:    whoami,
	}
}

// KeysCommand returns the keys command.
func KeysCommand() *cli.Command {
	return &cli.Command{
		Name:      "keys",
		Usage:     "List the live keys of the key's owner",
		ArgsUsage: "KEY",
		Action:    keys,
	}
}

// keyRow is one live key as reported by the server.
type keyRow struct {
	ID       string    `json:"id" yaml:"id"`
	LastSeen time.Time `json:"last_seen" yaml:"last_seen"`
}

func login(c *cli.Context) error {
	client, flags, err := newClient(c)
	if err != nil {
		return err
	}

	var key string
	err = client.Post(c.Context, "/auth", map[string]string{
		"user": c.String("user"),
		"pass": c.String("password"),
	}, &key)
	if err != nil {
		return err
	}
	return printResult(c, flags.Output, key)
}

// postWithKey calls a POST endpoint that takes only the key and prints
// the server's message.
func postWithKey(c *cli.Context, endpoint string) error {
	key, err := keyArg(c)
	if err != nil {
		return err
	}
	client, flags, err := newClient(c)
	if err != nil {
		return err
	}

	var msg string
	if err := client.Post(c.Context, "/"+endpoint, map[string]string{"authkey": key}, &msg); err != nil {
		return err
	}
	return printResult(c, flags.Output, msg)
}

func whoami(c *cli.Context) error {
	key, err := keyArg(c)
	if err != nil {
		return err
	}
	client, flags, err := newClient(c)
	if err != nil {
		return err
	}

	var owner string
	if err := client.Get(c.Context, "/", url.Values{"whoami": {key}}, &owner); err != nil {
		return err
	}
	return printResult(c, flags.Output, owner)
}

func keys(c *cli.Context) error {
	key, err := keyArg(c)
	if err != nil {
		return err
	}
	client, flags, err := newClient(c)
	if err != nil {
		return err
	}

	var rows []keyRow
	if err := client.Get(c.Context, "/", url.Values{"keys": {key}}, &rows); err != nil {
		return err
	}
	return printResult(c, flags.Output, rows)
}

func keyArg(c *cli.Context) (string, error) {
	key := c.Args().First()
	if key == "" {
		return "", fmt.Errorf("key required")
	}
	return key, nil
}
