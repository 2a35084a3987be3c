// Package clipboard copies text to the system clipboard via shell commands.
package clipboard

import (
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// ErrClipboardUnavailable is returned when no clipboard command is installed.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// tool is a clipboard command and its arguments.
type tool struct {
	name string
	args []string
}

// candidates lists clipboard commands in preference order for goos.
// wl-copy is preferred under Wayland.
func candidates(goos string, wayland bool) []tool {
	switch goos {
	case "darwin":
		return []tool{{name: "pbcopy"}}
	case "windows":
		return []tool{{name: "clip"}}
	case "linux", "freebsd", "openbsd", "netbsd":
		tools := []tool{
			{name: "xclip", args: []string{"-selection", "clipboard"}},
			{name: "xsel", args: []string{"--clipboard", "--input"}},
		}
		if wayland {
			tools = append([]tool{{name: "wl-copy"}}, tools...)
		}
		return tools
	}
	return nil
}

// getClipboardCommand returns the first installed clipboard command.
func getClipboardCommand() (*exec.Cmd, error) {
	for _, t := range candidates(runtime.GOOS, os.Getenv("WAYLAND_DISPLAY") != "") {
		if _, err := exec.LookPath(t.name); err == nil {
			return exec.Command(t.name, t.args...), nil
		}
	}
	return nil, ErrClipboardUnavailable
}

// IsAvailable checks if clipboard functionality is available on this system.
func IsAvailable() bool {
	_, err := getClipboardCommand()
	return err == nil
}

// Copy copies text to the system clipboard.
// Returns ErrClipboardUnavailable if no clipboard command is installed.
func Copy(text string) error {
	cmd, err := getClipboardCommand()
	if err != nil {
		return err
	}
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}
