package launch

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/kballard/go-shellquote"

	"github.com/0xADE/ade-run/internal/entry"
)

// Placeholder is replaced by the selected line in a custom mode target
const Placeholder = "%"

// ErrLaunch wraps every failure to start a command
var ErrLaunch = errors.New("launch failed")

// Sink starts a command and does not wait for it
type Sink interface {
	Launch(argv []string) (pid int, err error)
}

// DesktopArgv splits an entry's exec command into arguments. Field codes
// such as %f or %u are dropped, not substituted: there is no file or URL
// to put in their place. Terminal entries are wrapped with terminal -e.
func DesktopArgv(e entry.DesktopEntry, terminal string) ([]string, error) {
	words, err := shellquote.Split(e.Exec)
	if err != nil {
		return nil, fmt.Errorf("%w: exec of %s: %w", ErrLaunch, e.Name, err)
	}

	argv := make([]string, 0, len(words))
	for _, w := range words {
		if strings.HasPrefix(w, "%") {
			continue
		}
		argv = append(argv, w)
	}

	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty exec command for %s", ErrLaunch, e.Name)
	}

	if e.Terminal && terminal != "" {
		argv = append([]string{terminal, "-e"}, argv...)
	}
	return argv, nil
}

// CustomArgv fills the target template of a custom mode with the selected
// line and splits the result into arguments.
func CustomArgv(target, text string) ([]string, error) {
	command := strings.ReplaceAll(target, Placeholder, text)

	argv, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("%w: target %q: %w", ErrLaunch, command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty target command", ErrLaunch)
	}
	return argv, nil
}

// Detached spawns commands in their own session so they outlive the launcher
type Detached struct {
	Dir string
	Env []string
}

// Launch starts argv and returns without waiting for it. The child is
// reaped in the background.
func (d Detached) Launch(argv []string) (int, error) {
	if len(argv) == 0 {
		return 0, fmt.Errorf("%w: empty argument vector", ErrLaunch)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = d.Dir
	cmd.Env = d.Env
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	devNull, err := os.Open(os.DevNull)
	if err == nil {
		defer devNull.Close()
		cmd.Stdin = devNull
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrLaunch, argv[0], err)
	}

	go cmd.Wait()
	return cmd.Process.Pid, nil
}
