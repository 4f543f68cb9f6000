package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"outmode/config"
	"outmode/internal/client"
	"outmode/internal/controller"
	"outmode/internal/metrics"
	"outmode/internal/mode"
	"outmode/internal/transport"
	"outmode/internal/ui"
	"outmode/tunnel"
	"outmode/util"
)

// runUI starts the interactive list; tests replace it.
var runUI = ui.Run

// run builds the client and controller and executes one command.
// target is the parsed mode for set and unused otherwise.
func run(ctx context.Context, cfg *config.Config, command string, target mode.OutboundMode) error {
	interactive := command == "" && isTerminal(os.Stdout)

	logger, closeLog, err := newLogger(cfg, interactive)
	if err != nil {
		return err
	}
	defer closeLog()

	m := metrics.New()
	cl, err := newClient(cfg, logger, m)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := cl.Close(); cerr != nil {
			logger.Verbose("close transport: %v", cerr)
		}
		logger.Debug("metrics: %s", m.JSON())
	}()

	if interactive {
		rec := &controller.Recorder{}
		ctrl := controller.New(cl, rec, logger)
		err := runUI(ctx, ctrl, rec)
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}

	ctrl := controller.New(cl, cliNotifier{}, logger)
	switch command {
	case "get":
		return runGet(ctx, ctrl)
	case "set":
		return runSet(ctx, ctrl, target)
	default:
		return runList(ctx, ctrl)
	}
}

func newClient(cfg *config.Config, logger *util.Logger, m *metrics.Collector) (*client.Client, error) {
	opts := []client.Option{client.WithLogger(logger), client.WithMetrics(m)}
	if !cfg.TunnelEnabled && !util.IsLoopback(cfg.Host) {
		logger.Warn("%s is not a loopback address; the X-Key is sent in clear text", cfg.Host)
	}
	if cfg.TunnelEnabled {
		logger.Info("reaching %s through SSH gateway %s", util.FormatAddr(cfg.Host, cfg.Port), cfg.TunnelHost)
		opts = append(opts, client.WithDialer(transport.NewSSHDialer(&tunnel.SSHConfig{
			User:          cfg.TunnelUser,
			Host:          cfg.TunnelHost,
			Port:          cfg.TunnelPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
		}, logger)))
	}
	return client.New(client.ConnectionConfig{
		Key:     cfg.Key,
		Port:    cfg.Port,
		Host:    cfg.Host,
		Timeout: cfg.Timeout,
	}, opts...)
}

// newLogger writes to stderr, or to the log file when one is set.  The
// interactive list owns the terminal, so without a log file its logs
// are dropped.
func newLogger(cfg *config.Config, interactive bool) (*util.Logger, func(), error) {
	logger := util.NewLogger(cfg.Verbose)
	logger.SetOutput(stderr)
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("log file: %w", err)
		}
		logger.SetOutput(f)
		return logger, func() { f.Close() }, nil
	}
	if interactive {
		logger.SetOutput(io.Discard)
	}
	return logger, func() {}, nil
}

// ── commands ─────────────────────────────────────────────────────────

func runGet(ctx context.Context, ctrl *controller.Controller) error {
	if err := ctrl.Activate(ctx); err != nil {
		return ErrReported
	}
	fmt.Fprintln(stdout, ctrl.State().Current)
	return nil
}

func runList(ctx context.Context, ctrl *controller.Controller) error {
	// The list is printed even when the fetch fails, with nothing marked.
	fetchErr := ctrl.Activate(ctx)
	for _, it := range ctrl.Items() {
		mark := " "
		if it.Selected {
			mark = "✓"
		}
		fmt.Fprintf(stdout, "%s %s %-7s %-18s %s\n", mark, it.Glyph, it.Mode, it.Title, it.Subtitle)
	}
	if fetchErr != nil {
		return ErrReported
	}
	return nil
}

func runSet(ctx context.Context, ctrl *controller.Controller, target mode.OutboundMode) error {
	if err := ctrl.Switch(ctx, target); err != nil {
		return ErrReported
	}
	return nil
}

// cliNotifier prints confirmations to stdout and failures to stderr.
type cliNotifier struct{}

func (cliNotifier) Notify(n controller.Notification) {
	if n.Kind == controller.KindSuccess {
		fmt.Fprintln(stdout, n.Title)
		return
	}
	fmt.Fprintf(stderr, "%s: %s\n", n.Title, n.Message)
}
