package config

import (
	"fmt"

	"github.com/branchweb/branchweb-go/internal/infra/confloader"
)

// Load reads the configuration from path (optional) and the environment
// over the defaults, then verifies it.
func Load(path string) (*ServerConfig, error) {
	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithDefaults(DefaultMap()),
	)

	cfg := &ServerConfig{}
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
