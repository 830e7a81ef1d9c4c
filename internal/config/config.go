// Package config holds the service configuration, read once at startup
// through viper (flags merged with GOSESSION_* environment variables).
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Version is set at build time via -ldflags.
var Version = "2.0.0"

// Config is the immutable runtime configuration.
type Config struct {
	// Token is the shared bearer secret. Mandatory; the service refuses
	// to start without it.
	Token string
	// Port is the HTTP listen port on 127.0.0.1.
	Port int
	// Workdir is the default session working directory.
	Workdir string
	// ExecTimeout is the default per-call execution timeout in seconds.
	// 0 disables timeouts.
	ExecTimeout int
}

// Load reads configuration from viper, which merges flag values, env vars
// (GOSESSION_TOKEN, GOSESSION_PORT, ...), and defaults set up by the cobra
// command in cmd/gosession.
func Load() Config {
	return Config{
		Token:       viper.GetString("token"),
		Port:        viper.GetInt("port"),
		Workdir:     viper.GetString("workdir"),
		ExecTimeout: viper.GetInt("exec_timeout"),
	}
}

// Validate checks the configuration and fills the workdir default (the
// process's startup cwd). Any failure here is configuration-fatal.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("missing token: set GOSESSION_TOKEN")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.ExecTimeout < 0 {
		return fmt.Errorf("invalid exec timeout: %d", c.ExecTimeout)
	}
	if c.Workdir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determine default workdir: %w", err)
		}
		c.Workdir = cwd
	}
	info, err := os.Stat(c.Workdir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("invalid workdir: %s", c.Workdir)
	}
	return nil
}
