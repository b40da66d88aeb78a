// Package config provides the branchweb-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values, as a struct and as loader defaults
//   - verify.go: validation
//   - load.go: loading through internal/infra/confloader
//   - reload.go: which changes apply at runtime
//
// Sources, lowest priority first: defaults, the YAML file, then
// BRANCHWEB_ environment variables.
package config
