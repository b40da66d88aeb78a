// Package config holds branchweb-cli defaults, read from
// ~/.branchweb/cli.yaml and BRANCHWEB_CLI_* environment variables.
// Command line flags override both.
package config
