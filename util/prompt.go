package util

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to an interactive terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// PromptSecret prints label to stderr and reads a line from stdin
// without echo.  It fails when stdin is not a terminal.
func PromptSecret(label string) (string, error) {
	if !IsTerminal(os.Stdin) {
		return "", fmt.Errorf("cannot prompt for %s: stdin is not a terminal", strings.TrimSuffix(label, ": "))
	}
	fmt.Fprint(os.Stderr, label)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return string(b), nil
}
