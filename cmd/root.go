// Package cmd wires up the CLI flags and dispatches to the mode
// controller.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/agnivade/levenshtein"
	flag "github.com/spf13/pflag"

	"outmode/config"
	"outmode/internal/mode"
	"outmode/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X outmode/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// ErrReported is returned when a failure has already been shown to the
// user as a notification.  main exits non-zero without printing it again.
var ErrReported = errors.New("failure already reported")

// Output streams and terminal hooks; tests replace them.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	isTerminal   = util.IsTerminal
	promptSecret = util.PromptSecret
)

var commands = []string{"get", "list", "set"}

// flagValues receives the raw flags before they are overlaid on the
// loaded preferences.
type flagValues struct {
	config.Config
	timeout    string
	configPath string
	save       bool
}

// Execute parses args and runs the requested command.
func Execute(ctx context.Context, args []string) error {
	fv := &flagValues{}
	fs := flag.NewFlagSet("outmode", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// ── control endpoint ─────────────────────────────────────────
	fs.StringVarP(&fv.Key, "x-key", "k", "", "X-Key for the daemon's control API")
	fs.StringVarP(&fv.Port, "port", "p", "", "Control API port")
	fs.StringVar(&fv.Host, "host", config.DefaultHost, "Control API host")
	fs.StringVarP(&fv.timeout, "timeout", "w", "", "Per-call timeout (seconds or duration, default 5s)")

	// ── SSH gateway ──────────────────────────────────────────────
	fs.StringVarP(&fv.TunnelSpec, "tunnel", "T", "", "Reach the daemon via SSH gateway [user@]host[:port]")
	fs.StringVar(&fv.SSHKeyPath, "ssh-key", "", "SSH private key file")
	fs.BoolVar(&fv.SSHPassword, "ssh-password", false, "Prompt for SSH password")
	fs.BoolVar(&fv.UseSSHAgent, "ssh-agent", false, "Use SSH agent")
	fs.BoolVar(&fv.StrictHostKey, "strict-hostkey", false, "Verify SSH host keys")
	fs.StringVar(&fv.KnownHostsPath, "known-hosts", "", "Custom known_hosts path")

	// ── preferences ──────────────────────────────────────────────
	fs.StringVar(&fv.configPath, "config", "", "Preference file (default "+config.DefaultPath()+")")
	fs.BoolVar(&fv.save, "save", false, "Write x-key, port, host and timeout to the preference file")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&fv.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.StringVar(&fv.LogFile, "log-file", "", "Append log output to this file")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}
	if showHelp {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Fprintf(stdout, "outmode %s\n", version)
		return nil
	}

	command, rest := "", fs.Args()
	if len(rest) > 0 {
		command, rest = rest[0], rest[1:]
	}
	target, err := checkCommand(command, rest)
	if err != nil {
		return err
	}

	// ── preferences ──────────────────────────────────────────────
	cfg, err := config.Load(fv.configPath)
	if err != nil {
		return err
	}
	if err := overlay(fs, cfg, fv); err != nil {
		return err
	}

	if cfg.Key == "" && isTerminal(os.Stdin) {
		key, err := promptSecret("X-Key: ")
		if err != nil {
			return err
		}
		cfg.Key = key
	}

	if err := cfg.ApplyTunnelSpec(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if fv.save {
		path, err := config.Save(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "saved preferences to %s\n", path)
		if command == "" {
			return nil
		}
	}

	return run(ctx, cfg, command, target)
}

// overlay copies every flag the user actually set over the loaded
// preferences.
func overlay(fs *flag.FlagSet, cfg *config.Config, fv *flagValues) error {
	if fs.Changed("x-key") {
		cfg.Key = fv.Key
	}
	if fs.Changed("port") {
		cfg.Port = fv.Port
	}
	if fs.Changed("host") {
		cfg.Host = fv.Host
	}
	if fs.Changed("timeout") {
		d, err := config.ParseTimeout(fv.timeout)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if fs.Changed("tunnel") {
		cfg.TunnelSpec = fv.TunnelSpec
	}
	if fs.Changed("ssh-key") {
		cfg.SSHKeyPath = fv.SSHKeyPath
	}
	if fs.Changed("ssh-password") {
		cfg.SSHPassword = fv.SSHPassword
	}
	if fs.Changed("ssh-agent") {
		cfg.UseSSHAgent = fv.UseSSHAgent
	}
	if fs.Changed("strict-hostkey") {
		cfg.StrictHostKey = fv.StrictHostKey
	}
	if fs.Changed("known-hosts") {
		cfg.KnownHostsPath = fv.KnownHostsPath
	}
	if fs.Changed("verbose") {
		cfg.Verbose = fv.Verbose
	}
	if fs.Changed("log-file") {
		cfg.LogFile = fv.LogFile
	}
	return nil
}

// checkCommand rejects unknown commands, wrong argument counts and
// unknown mode names before any preference is read or prompted for.
// For set it returns the parsed target.
func checkCommand(command string, rest []string) (mode.OutboundMode, error) {
	switch command {
	case "", "get", "list":
		if len(rest) > 0 {
			return mode.Unknown, fmt.Errorf("unexpected argument %q", rest[0])
		}
		return mode.Unknown, nil
	case "set":
		if len(rest) != 1 {
			return mode.Unknown, fmt.Errorf("usage: outmode set <direct|proxy|rule>")
		}
		return mode.Parse(rest[0])
	}
	best, bestDist := "", 3
	for _, c := range commands {
		if d := levenshtein.ComputeDistance(command, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	if best != "" {
		return mode.Unknown, fmt.Errorf("unknown command %q (did you mean %q?)", command, best)
	}
	return mode.Unknown, fmt.Errorf("unknown command %q (use --help for usage)", command)
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(stderr, `outmode – switch a proxy daemon's outbound mode v%s

Usage:
  outmode [options]                  Interactive list (on a terminal)
  outmode [options] get              Print the current mode
  outmode [options] list             Print all modes, current one marked
  outmode [options] set <mode>       Switch to direct, proxy or rule

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(stderr, `
Environment:
  OUTMODE_X_KEY, OUTMODE_PORT, OUTMODE_HOST, OUTMODE_TIMEOUT,
  OUTMODE_TUNNEL, OUTMODE_CONFIG

Examples:
  outmode -k secret -p 6171 --save            Remember the endpoint
  outmode set rule                            Switch to rule-based routing
  outmode -T admin@router.lan get             Query a daemon behind SSH
`)
}
