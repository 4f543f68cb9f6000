// Package config defines the runtime configuration for outmode: how to
// reach the daemon's control API, how to authenticate, and optionally
// which SSH gateway to go through.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	omerr "outmode/internal/errors"
)

// Config holds every tuneable for a single outmode run.
type Config struct {
	// ── Control endpoint ─────────────────────────────────────────────
	Key     string // X-Key credential, passed through unmodified
	Port    string // daemon control port, passed through unmodified
	Host    string
	Timeout time.Duration

	// ── SSH gateway ──────────────────────────────────────────────────
	TunnelSpec     string // raw user@host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
	LogFile string // interactive mode writes logs here instead of stderr

	// Path is the preference file the values were read from, if any.
	Path string
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:@]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@router.lan:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	return user, host, port, nil
}

// ApplyTunnelSpec parses TunnelSpec (if set) into the Tunnel* fields.
func (c *Config) ApplyTunnelSpec() error {
	if c.TunnelSpec == "" {
		c.TunnelEnabled = false
		return nil
	}
	user, host, port, err := ParseTunnelSpec(c.TunnelSpec)
	if err != nil {
		return &omerr.ConfigError{Field: "tunnel", Value: c.TunnelSpec, Message: err.Error()}
	}
	c.TunnelEnabled = true
	c.TunnelUser = user
	c.TunnelHost = host
	c.TunnelPort = port
	return nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the key and port are present and that the
// gateway settings are consistent.  The key and port themselves are
// opaque and are not inspected further.
func (c *Config) Validate() error {
	if c.Key == "" {
		return &omerr.ConfigError{
			Field:   "x-key",
			Message: "an X-Key is required",
			Hint:    "pass --x-key, set OUTMODE_X_KEY, or add x-key to " + c.prefPathHint(),
		}
	}
	if c.Port == "" {
		return &omerr.ConfigError{
			Field:   "port",
			Message: "the daemon's control port is required",
			Hint:    "pass --port, set OUTMODE_PORT, or add port to " + c.prefPathHint(),
		}
	}
	if c.Host == "" {
		return &omerr.ConfigError{Field: "host", Message: "must not be empty"}
	}
	if c.Timeout < 0 {
		return &omerr.ConfigError{Field: "timeout", Value: c.Timeout, Message: "must not be negative"}
	}

	if c.TunnelEnabled && c.TunnelHost == "" {
		return &omerr.ConfigError{Field: "tunnel", Value: c.TunnelSpec, Message: "gateway host is required"}
	}
	if !c.TunnelEnabled && (c.SSHKeyPath != "" || c.SSHPassword || c.UseSSHAgent) {
		return &omerr.ConfigError{
			Field:   "ssh-key",
			Message: "SSH options have no effect without a gateway",
			Hint:    "add -T user@host to reach the daemon through SSH",
		}
	}
	return nil
}

func (c *Config) prefPathHint() string {
	if c.Path != "" {
		return c.Path
	}
	return DefaultPath()
}
