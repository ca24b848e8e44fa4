package run

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type clientEnv struct {
	Socket string `envconfig:"ADE_RUN_SOCK"`
}

// SocketPath returns the socket of ade-run-ctld: $ADE_RUN_SOCK with a
// leading ~ expanded, or /tmp/ade-<uid>/run.
func SocketPath() (string, error) {
	var env clientEnv
	if err := envconfig.Process("", &env); err != nil {
		return "", fmt.Errorf("failed to read environment: %w", err)
	}

	if env.Socket == "" {
		return fmt.Sprintf("/tmp/ade-%d/run", os.Getuid()), nil
	}

	if rest, ok := strings.CutPrefix(env.Socket, "~"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, rest), nil
	}
	return env.Socket, nil
}
