package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"outmode/internal/controller"
	omerr "outmode/internal/errors"
	"outmode/internal/fakedaemon"
)

// capture redirects the CLI's output and terminal hooks for one test.
func capture(t *testing.T) (out, errOut *bytes.Buffer) {
	t.Helper()
	out, errOut = &bytes.Buffer{}, &bytes.Buffer{}
	oldOut, oldErr, oldTerm, oldPrompt, oldUI := stdout, stderr, isTerminal, promptSecret, runUI
	stdout, stderr = out, errOut
	isTerminal = func(*os.File) bool { return false }
	promptSecret = func(string) (string, error) { return "", errors.New("no terminal") }
	t.Cleanup(func() {
		stdout, stderr, isTerminal, promptSecret, runUI = oldOut, oldErr, oldTerm, oldPrompt, oldUI
	})

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	for _, k := range []string{"OUTMODE_CONFIG", "OUTMODE_X_KEY", "OUTMODE_PORT", "OUTMODE_HOST", "OUTMODE_TIMEOUT", "OUTMODE_TUNNEL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return out, errOut
}

// startDaemon returns the flags that point the CLI at a fake daemon.
func startDaemon(t *testing.T, initial string) (*fakedaemon.Daemon, []string) {
	t.Helper()
	d := fakedaemon.New("secret", initial)
	srv := d.Start()
	t.Cleanup(srv.Close)
	host, port := fakedaemon.HostPort(srv)
	return d, []string{"--x-key", "secret", "--host", host, "--port", port, "--timeout", "2"}
}

// TestExecute_Version verifies --version prints a version string.
func TestExecute_Version(t *testing.T) {
	out, _ := capture(t)
	if err := Execute(context.Background(), []string{"--version"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out.String(), "outmode ") {
		t.Errorf("version output = %q", out.String())
	}
}

// TestExecute_Help verifies --help prints usage without error.
func TestExecute_Help(t *testing.T) {
	_, errOut := capture(t)
	if err := Execute(context.Background(), []string{"--help"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(errOut.String(), "outmode [options] set <mode>") {
		t.Errorf("usage not printed:\n%s", errOut.String())
	}
}

// TestExecute_InvalidFlags verifies unknown flags produce an error.
func TestExecute_InvalidFlags(t *testing.T) {
	capture(t)
	if err := Execute(context.Background(), []string{"--nonexistent-flag"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

// TestExecute_UnknownCommand verifies a misspelt command gets a
// suggestion and never reaches the daemon.
func TestExecute_UnknownCommand(t *testing.T) {
	capture(t)
	d, flags := startDaemon(t, "rule")
	err := Execute(context.Background(), append(flags, "lsit"))
	if err == nil || !strings.Contains(err.Error(), `did you mean "list"`) {
		t.Fatalf("error = %v", err)
	}
	if n := len(d.Requests()); n != 0 {
		t.Errorf("daemon saw %d requests, want 0", n)
	}
}

// TestExecute_MissingKey verifies a missing key is reported with a hint
// when no terminal is available to prompt.
func TestExecute_MissingKey(t *testing.T) {
	capture(t)
	err := Execute(context.Background(), []string{"--port", "6171", "get"})
	var ce *omerr.ConfigError
	if !omerr.As(err, &ce) || ce.Field != "x-key" {
		t.Fatalf("error = %v, want ConfigError on x-key", err)
	}
}

// TestExecute_PromptsForKey verifies the key is read from the terminal
// when it is not configured anywhere.
func TestExecute_PromptsForKey(t *testing.T) {
	out, _ := capture(t)
	d := fakedaemon.New("typed", "direct")
	srv := d.Start()
	t.Cleanup(srv.Close)
	host, port := fakedaemon.HostPort(srv)

	isTerminal = func(f *os.File) bool { return f == os.Stdin }
	promptSecret = func(string) (string, error) { return "typed", nil }

	if err := Execute(context.Background(), []string{"--host", host, "--port", port, "get"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.TrimSpace(out.String()) != "direct" {
		t.Errorf("output = %q, want direct", out.String())
	}
}

func TestExecute_Get(t *testing.T) {
	out, _ := capture(t)
	_, flags := startDaemon(t, "proxy")
	if err := Execute(context.Background(), append(flags, "get")); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "proxy" {
		t.Errorf("get printed %q, want proxy", got)
	}
}

func TestExecute_GetWrongKey(t *testing.T) {
	out, errOut := capture(t)
	_, flags := startDaemon(t, "proxy")
	flags[1] = "wrong"
	err := Execute(context.Background(), append(flags, "get"))
	if !errors.Is(err, ErrReported) {
		t.Fatalf("error = %v, want ErrReported", err)
	}
	if out.Len() != 0 {
		t.Errorf("stdout should be empty, got %q", out.String())
	}
	want := controller.FetchFailedTitle + ": " + controller.FetchFailedMessage
	if !strings.Contains(errOut.String(), want) {
		t.Errorf("stderr = %q, want %q", errOut.String(), want)
	}
}

func TestExecute_List(t *testing.T) {
	out, _ := capture(t)
	_, flags := startDaemon(t, "rule")
	if err := Execute(context.Background(), append(flags, "list")); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("list printed %d lines, want 3:\n%s", len(lines), out.String())
	}
	for i, l := range lines {
		marked := strings.HasPrefix(l, "✓")
		if marked != (i == 2) {
			t.Errorf("line %d marked=%v: %q", i, marked, l)
		}
	}
}

// TestExecute_NoCommandWithoutTerminal verifies the list is printed when
// stdout is not a terminal.
func TestExecute_NoCommandWithoutTerminal(t *testing.T) {
	out, _ := capture(t)
	_, flags := startDaemon(t, "direct")
	if err := Execute(context.Background(), flags); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), "Direct Outbound") {
		t.Errorf("expected list output, got %q", out.String())
	}
}

// TestExecute_NoCommandOnTerminal verifies the interactive list is used
// when stdout is a terminal.
func TestExecute_NoCommandOnTerminal(t *testing.T) {
	capture(t)
	_, flags := startDaemon(t, "direct")
	isTerminal = func(f *os.File) bool { return f == os.Stdout }

	called := false
	runUI = func(ctx context.Context, ctrl *controller.Controller, rec *controller.Recorder) error {
		called = true
		return ctrl.Activate(ctx)
	}
	if err := Execute(context.Background(), flags); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !called {
		t.Error("interactive list was not started")
	}
}

func TestExecute_FetchFailureStillLists(t *testing.T) {
	out, _ := capture(t)
	d, flags := startDaemon(t, "direct")
	d.SetMalformed(true)

	err := Execute(context.Background(), append(flags, "list"))
	if !errors.Is(err, ErrReported) {
		t.Fatalf("error = %v, want ErrReported", err)
	}
	if n := strings.Count(out.String(), "\n"); n != 3 {
		t.Errorf("list printed %d lines, want 3", n)
	}
	if strings.Contains(out.String(), "✓") {
		t.Errorf("nothing should be marked:\n%s", out.String())
	}
}

func TestExecute_Set(t *testing.T) {
	out, _ := capture(t)
	d, flags := startDaemon(t, "direct")
	if err := Execute(context.Background(), append(flags, "set", "Rules")); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if d.Mode() != "rule" {
		t.Errorf("daemon mode = %q, want rule", d.Mode())
	}
	if got := strings.TrimSpace(out.String()); got != "📋 Rule-Based Proxy" {
		t.Errorf("HUD = %q", got)
	}
}

func TestExecute_SetUnsupported(t *testing.T) {
	_, errOut := capture(t)
	d, flags := startDaemon(t, "direct")
	d.Unsupport("proxy")

	err := Execute(context.Background(), append(flags, "set", "proxy"))
	if !errors.Is(err, ErrReported) {
		t.Fatalf("error = %v, want ErrReported", err)
	}
	if !strings.Contains(errOut.String(), controller.SwitchFailedHint) {
		t.Errorf("stderr = %q", errOut.String())
	}
	if d.Mode() != "direct" {
		t.Errorf("daemon mode changed to %q", d.Mode())
	}
}

func TestExecute_SetUnknownMode(t *testing.T) {
	capture(t)
	d, flags := startDaemon(t, "direct")
	err := Execute(context.Background(), append(flags, "set", "proxyy"))
	if !errors.Is(err, omerr.ErrUnknownMode) {
		t.Fatalf("error = %v, want ErrUnknownMode", err)
	}
	if n := len(d.Requests()); n != 0 {
		t.Errorf("daemon saw %d requests, want 0", n)
	}
}

// TestExecute_SetUnknownModeBeforePrompt verifies a misspelt mode is
// reported before the key is asked for.
func TestExecute_SetUnknownModeBeforePrompt(t *testing.T) {
	capture(t)
	isTerminal = func(*os.File) bool { return true }
	prompted := false
	promptSecret = func(string) (string, error) {
		prompted = true
		return "typed", nil
	}

	err := Execute(context.Background(), []string{"--port", "6171", "set", "rulez"})
	if !errors.Is(err, omerr.ErrUnknownMode) {
		t.Fatalf("error = %v, want ErrUnknownMode", err)
	}
	if !strings.Contains(err.Error(), `did you mean "rule"`) {
		t.Errorf("error should suggest rule: %v", err)
	}
	if prompted {
		t.Error("key prompt shown before the mode was checked")
	}
}

func TestExecute_SetArgs(t *testing.T) {
	capture(t)
	_, flags := startDaemon(t, "direct")
	if err := Execute(context.Background(), append(flags, "set")); err == nil {
		t.Fatal("expected usage error")
	}
}

// TestExecute_SaveThenReuse verifies --save persists the endpoint so a
// later run needs no flags.
func TestExecute_SaveThenReuse(t *testing.T) {
	out, errOut := capture(t)
	_, flags := startDaemon(t, "proxy")

	if err := Execute(context.Background(), append(flags, "--save")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.Contains(errOut.String(), "saved preferences to") {
		t.Errorf("stderr = %q", errOut.String())
	}

	out.Reset()
	if err := Execute(context.Background(), []string{"get"}); err != nil {
		t.Fatalf("get with saved preferences: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "proxy" {
		t.Errorf("get printed %q, want proxy", got)
	}
}

// TestExecute_LogFile verifies logs go to --log-file and the key is
// masked there.
func TestExecute_LogFile(t *testing.T) {
	_, errOut := capture(t)
	_, flags := startDaemon(t, "rule")
	logPath := filepath.Join(t.TempDir(), "outmode.log")

	if err := Execute(context.Background(), append(flags, "-vvv", "--log-file", logPath, "get")); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[DBG]") || !strings.Contains(string(data), "metrics:") {
		t.Errorf("log file missing debug output:\n%s", data)
	}
	if strings.Contains(string(data), "secret") {
		t.Errorf("key leaked into log:\n%s", data)
	}
	if errOut.Len() != 0 {
		t.Errorf("stderr should be empty, got %q", errOut.String())
	}
}
