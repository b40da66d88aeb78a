package config

import (
	serverconfig "github.com/branchweb/branchweb-go/internal/server/config"
)

// CLIConfig is the configuration for branchweb-cli.
type CLIConfig struct {
	// Server is the address commands talk to.
	Server string `koanf:"server" yaml:"server"`
	// Output is the default output format: table, json, yaml.
	Output string `koanf:"output" yaml:"output"`
	// UsersFile is the user file the offline user commands edit.
	UsersFile string `koanf:"users_file" yaml:"users_file"`
	// HashAlgorithm hashes passwords set by the offline user commands.
	HashAlgorithm string `koanf:"hash_algorithm" yaml:"hash_algorithm"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:        serverconfig.DefaultHTTPAddr,
		Output:        "table",
		UsersFile:     serverconfig.DefaultUsersFile,
		HashAlgorithm: serverconfig.DefaultHashAlgorithm,
	}
}

func defaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"server":         d.Server,
		"output":         d.Output,
		"users_file":     d.UsersFile,
		"hash_algorithm": d.HashAlgorithm,
	}
}
