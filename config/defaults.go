package config

import (
	"os"
	"path/filepath"
	"time"
)

// ── Default values ───────────────────────────────────────────────────

const (
	// DefaultHost is where the daemon's control API listens.
	DefaultHost = "127.0.0.1"

	// DefaultTimeout bounds each control call.
	DefaultTimeout = 5 * time.Second

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// EnvPrefix prefixes every environment override (OUTMODE_X_KEY, …).
	EnvPrefix = "OUTMODE"
)

// DefaultPath returns the preference file location:
// $OUTMODE_CONFIG, else $XDG_CONFIG_HOME/outmode/config.toml, else
// ~/.config/outmode/config.toml.
func DefaultPath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "outmode", "config.toml")
}
