package config

import (
	"strings"
	"testing"
	"time"

	omerr "outmode/internal/errors"
)

// ── ParseTunnelSpec ──────────────────────────────────────────────────

func TestParseTunnelSpec(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantUser string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"full", "admin@router.lan:2222", "admin", "router.lan", 2222, false},
		{"no port", "root@gateway", "root", "gateway", 22, false},
		{"no user", "jump-host:2200", "", "jump-host", 2200, false},
		{"host only", "gateway.local", "", "gateway.local", 22, false},
		{"bad port", "user@host:999999", "", "", 0, true},
		{"empty", "", "", "", 0, true},
		{"colon only", ":", "", "", 0, true},
		{"user only", "admin@", "", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, host, port, err := ParseTunnelSpec(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if user != tt.wantUser || host != tt.wantHost || port != tt.wantPort {
				t.Errorf("got (%q, %q, %d), want (%q, %q, %d)",
					user, host, port, tt.wantUser, tt.wantHost, tt.wantPort)
			}
		})
	}
}

func TestApplyTunnelSpec(t *testing.T) {
	cfg := &Config{TunnelSpec: "pi@nas:2022"}
	if err := cfg.ApplyTunnelSpec(); err != nil {
		t.Fatal(err)
	}
	if !cfg.TunnelEnabled || cfg.TunnelUser != "pi" || cfg.TunnelHost != "nas" || cfg.TunnelPort != 2022 {
		t.Errorf("unexpected tunnel fields %+v", cfg)
	}

	bad := &Config{TunnelSpec: "@@"}
	err := bad.ApplyTunnelSpec()
	var ce *omerr.ConfigError
	if !omerr.As(err, &ce) || ce.Field != "tunnel" {
		t.Fatalf("error = %v, want ConfigError on tunnel", err)
	}

	none := &Config{TunnelEnabled: true}
	if err := none.ApplyTunnelSpec(); err != nil || none.TunnelEnabled {
		t.Errorf("empty tunnel should disable the tunnel (err=%v)", err)
	}
}

// ── Validate ─────────────────────────────────────────────────────────

func validConfig() Config {
	return Config{Key: "k", Port: "6171", Host: DefaultHost, Timeout: DefaultTimeout}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	cfg.TunnelSpec = "admin@gw"
	cfg.SSHKeyPath = "/tmp/id"
	if err := cfg.ApplyTunnelSpec(); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate with tunnel: %v", err)
	}
}

// TestValidate_ErrorMessages verifies that Validate returns actionable
// error messages.
func TestValidate_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		field   string
		wantSub string
	}{
		{"missing key", func(c *Config) { c.Key = "" }, "x-key", "hint:"},
		{"missing port", func(c *Config) { c.Port = "" }, "port", "OUTMODE_PORT"},
		{"empty host", func(c *Config) { c.Host = "" }, "host", "must not be empty"},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, "timeout", "negative"},
		{"ssh without gateway", func(c *Config) { c.UseSSHAgent = true }, "ssh-key", "-T user@host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			var ce *omerr.ConfigError
			if !omerr.As(err, &ce) {
				t.Fatalf("error = %v, want ConfigError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %q, want %q", ce.Field, tt.field)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantSub)
			}
		})
	}
}

// TestValidate_KeyIsOpaque verifies no format rules are applied to the
// key or port beyond presence.
func TestValidate_KeyIsOpaque(t *testing.T) {
	cfg := validConfig()
	cfg.Key = " weird key with spaces "
	cfg.Port = "not-a-number"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
