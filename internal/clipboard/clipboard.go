// Package clipboard copies generated documents to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
)

// ErrUnavailable is returned when no clipboard mechanism works.
var ErrUnavailable = errors.New("no clipboard utility found (install wl-copy or xclip)")

type command struct {
	name string
	args []string
}

// copyCommand picks the native utility for goos, or ok=false when none is
// installed. lookPath is exec.LookPath outside tests.
func copyCommand(goos string, lookPath func(string) (string, error)) (command, bool) {
	var candidates []command
	switch goos {
	case "darwin":
		candidates = []command{{name: "pbcopy"}}
	case "linux", "freebsd", "openbsd":
		// Wayland first, then X11
		candidates = []command{
			{name: "wl-copy"},
			{name: "xclip", args: []string{"-selection", "clipboard"}},
			{name: "xsel", args: []string{"--clipboard", "--input"}},
		}
	}
	for _, c := range candidates {
		if _, err := lookPath(c.name); err == nil {
			return c, true
		}
	}
	return command{}, false
}

// CopyText copies text to the system clipboard. Native utilities are tried
// first; atotto/clipboard covers Windows and anything else they miss.
func CopyText(text string) error {
	if c, ok := copyCommand(runtime.GOOS, exec.LookPath); ok {
		cmd := exec.Command(c.name, c.args...)
		cmd.Stdin = strings.NewReader(text)
		if err := cmd.Run(); err == nil {
			return nil
		}
	}
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}
