// Package config provides server configuration for hello-login.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: validation run once after loading
//
// Configuration is loaded via internal/infra/confloader from a YAML file
// and HELLO_* environment variables.
package config
