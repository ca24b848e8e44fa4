package custom

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
)

const maxLineSize = 1024 * 1024

// ErrEmptyCommand is returned for a source command without any words
var ErrEmptyCommand = errors.New("empty source command")

// Stream runs command and sends each non-empty line of its standard output
// on lines as soon as it is read. The process is killed when ctx is done.
// lines is not closed; Stream returns once the process has exited.
func Stream(ctx context.Context, command string, lines chan<- string) error {
	argv, err := shellquote.Split(command)
	if err != nil {
		return fmt.Errorf("invalid source command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return ErrEmptyCommand
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start source command: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" {
			continue
		}

		select {
		case lines <- text:
		case <-ctx.Done():
			_ = cmd.Wait()
			return ctx.Err()
		}
	}

	scanErr := scanner.Err()
	if scanErr != nil {
		// The process may be blocked on a full pipe
		_ = cmd.Process.Kill()
	}
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if scanErr != nil {
		return fmt.Errorf("failed to read source output: %w", scanErr)
	}
	if waitErr != nil {
		return fmt.Errorf("source command failed: %w", waitErr)
	}
	return nil
}
