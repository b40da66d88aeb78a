package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/branchweb/branchweb-go/internal/core/domain"
	"github.com/branchweb/branchweb-go/internal/storage/userfile"
	"github.com/branchweb/branchweb-go/pkg/crypto/passhash"
	"github.com/branchweb/branchweb-go/pkg/token"
)

// UserCommand returns the user subcommand group.
//
// These commands rewrite the user file in place. A running server keeps
// its own copy and overwrites the file on its next change, so stop the
// server first.
func UserCommand() *cli.Command {
	passwordFlag := &cli.StringFlag{
		Name:    "password",
		Aliases: []string{"p"},
		Usage:   "Password (generated and printed when omitted)",
	}

	return &cli.Command{
		Name:  "user",
		Usage: "Manage the user file offline",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a user",
				ArgsUsage: "NAME",
				Flags:     []cli.Flag{passwordFlag},
				Action:    userAdd,
			},
			{
				Name:      "passwd",
				Usage:     "Change a user's password",
				ArgsUsage: "NAME",
				Flags:     []cli.Flag{passwordFlag},
				Action:    userPasswd,
			},
			{
				Name:   "list",
				Usage:  "List user names",
				Action: userList,
			},
		},
	}
}

// userRow is the listed view of a user.
type userRow struct {
	Name string `json:"name" yaml:"name"`
}

func userAdd(c *cli.Context) error {
	return editUser(c, func(users []*domain.User, name, hash string) ([]*domain.User, error) {
		for _, u := range users {
			if u.Name == name {
				return nil, domain.ErrUserExists.WithDetails(name)
			}
		}
		u, err := domain.NewUserFromHash(name, hash)
		if err != nil {
			return nil, err
		}
		return append(users, u), nil
	}, "User %s created.\n")
}

func userPasswd(c *cli.Context) error {
	return editUser(c, func(users []*domain.User, name, hash string) ([]*domain.User, error) {
		for _, u := range users {
			if u.Name == name {
				u.PasswordHash = hash
				return users, nil
			}
		}
		return nil, domain.ErrUserNotFound.WithDetails(name)
	}, "Password for %s changed.\n")
}

// editUser loads the user file, applies edit with a fresh hash for the
// named user, and saves the result.
func editUser(c *cli.Context, edit func(users []*domain.User, name, hash string) ([]*domain.User, error), done string) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("user name required")
	}
	if err := domain.ValidateUserName(name); err != nil {
		return err
	}

	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	hasher, err := passhash.New(flags.HashAlgorithm)
	if err != nil {
		return err
	}

	password := c.String("password")
	generated := password == ""
	if generated {
		if password, err = token.GeneratePassword(token.DefaultPasswordLength); err != nil {
			return err
		}
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	store := userfile.New(flags.UsersFile)
	users, err := loadUsers(c, store)
	if err != nil {
		return err
	}
	if users, err = edit(users, name, hash); err != nil {
		return err
	}
	if err := store.Save(c.Context, users); err != nil {
		return fmt.Errorf("save %s: %w", store.Path(), err)
	}

	fmt.Fprintf(c.App.Writer, done, name)
	if generated {
		fmt.Fprintf(c.App.Writer, "Password: %s\n", password)
	}
	return nil
}

func userList(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	users, err := loadUsers(c, userfile.New(flags.UsersFile))
	if err != nil {
		return err
	}

	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, userRow{Name: u.Name})
	}
	return printResult(c, flags.Output, rows)
}

// loadUsers reads the user file. A missing file is an empty one.
func loadUsers(c *cli.Context, store *userfile.File) ([]*domain.User, error) {
	users, err := store.Load(c.Context)
	if errors.Is(err, domain.ErrStoreNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", store.Path(), err)
	}
	return users, nil
}
