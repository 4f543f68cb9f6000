package config

// loader.go - preference loading and saving.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  OUTMODE_X_KEY, OUTMODE_PORT, …
//   3. Preference file  (TOML, see DefaultPath)
//   4. Defaults   (defaults.go)

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Preference keys as they appear in the TOML file.  Environment names
// are derived by upper-casing and replacing "-" and "." with "_".
const (
	keyXKey          = "x-key"
	keyPort          = "port"
	keyHost          = "host"
	keyTimeout       = "timeout"
	keyTunnel        = "tunnel"
	keySSHKey        = "ssh.key"
	keySSHPassword   = "ssh.password"
	keySSHAgent      = "ssh.agent"
	keyStrictHostKey = "ssh.strict-hostkey"
	keyKnownHosts    = "ssh.known-hosts"
	keyVerbose       = "verbose"
	keyLogFile       = "log-file"
)

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault(keyXKey, "")
	v.SetDefault(keyPort, "")
	v.SetDefault(keyHost, DefaultHost)
	v.SetDefault(keyTimeout, DefaultTimeout.String())
	v.SetDefault(keyTunnel, "")
	v.SetDefault(keySSHKey, "")
	v.SetDefault(keySSHPassword, false)
	v.SetDefault(keySSHAgent, false)
	v.SetDefault(keyStrictHostKey, false)
	v.SetDefault(keyKnownHosts, "")
	v.SetDefault(keyVerbose, 0)
	v.SetDefault(keyLogFile, "")

	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the preference file at path (DefaultPath when empty) and
// overlays environment variables.  A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	timeout, err := ParseTimeout(v.GetString(keyTimeout))
	if err != nil {
		return nil, fmt.Errorf("timeout: %w", err)
	}

	cfg := &Config{
		Key:            v.GetString(keyXKey),
		Port:           v.GetString(keyPort),
		Host:           v.GetString(keyHost),
		Timeout:        timeout,
		TunnelSpec:     v.GetString(keyTunnel),
		SSHKeyPath:     v.GetString(keySSHKey),
		SSHPassword:    v.GetBool(keySSHPassword),
		UseSSHAgent:    v.GetBool(keySSHAgent),
		StrictHostKey:  v.GetBool(keyStrictHostKey),
		KnownHostsPath: v.GetString(keyKnownHosts),
		Verbose:        v.GetInt(keyVerbose),
		LogFile:        v.GetString(keyLogFile),
		Path:           path,
	}
	return cfg, nil
}

// Save writes the connection preferences of cfg to cfg.Path (or
// DefaultPath), creating the directory if needed.  The key is stored in
// plain text with owner-only permissions.
func Save(cfg *Config) (string, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set(keyXKey, cfg.Key)
	v.Set(keyPort, cfg.Port)
	v.Set(keyHost, cfg.Host)
	v.Set(keyTimeout, cfg.Timeout.String())
	if cfg.TunnelSpec != "" {
		v.Set(keyTunnel, cfg.TunnelSpec)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return "", fmt.Errorf("chmod config: %w", err)
	}
	return path, nil
}

// ParseTimeout accepts a Go duration ("5s", "750ms") or a bare number
// of seconds ("10").
func ParseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultTimeout, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}
