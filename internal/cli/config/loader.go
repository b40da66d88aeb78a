package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/branchweb/branchweb-go/internal/infra/confloader"
)

// EnvPrefix prefixes environment overrides, e.g. BRANCHWEB_CLI_SERVER.
const EnvPrefix = "BRANCHWEB_CLI_"

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".branchweb", "cli.yaml")
}

// Load reads the CLI configuration. An empty path means the default
// location, which may be absent. An explicit path must exist.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	loader := confloader.NewLoader(
		confloader.WithEnvPrefix(EnvPrefix),
		confloader.WithConfigFile(path),
		confloader.WithDefaults(defaultMap()),
	)
	cfg := &CLIConfig{}
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
