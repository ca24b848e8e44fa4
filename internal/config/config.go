package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/0xADE/ade-run/internal/entry"
	"github.com/0xADE/ade-run/internal/indexer/desktop"
	"github.com/0xADE/ade-run/internal/launch"
	"github.com/0xADE/ade-run/internal/usage"
)

const defaultModesFile = "~/.config/ade/run.yaml"

// ErrInvalid is returned for a configuration that cannot be used
var ErrInvalid = errors.New("invalid configuration")

// Mode is a user-defined custom mode
type Mode struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"` // Command whose output lines are the candidates
	Target string `yaml:"target"` // Command template run with the selected line
}

// Config is built once at startup and handed to every component
type Config struct {
	ModesFile       string
	DBPath          string
	UnixSocket      string
	AppsDirs        []string
	Terminal        string
	ExitAfterLaunch bool
	EmptyLimit      int
	CustomLimit     int
	LogLevel        string
	LogFile         string
	Modes           []Mode
}

type (
	env struct {
		ModesFile       string `envconfig:"ADE_RUN_CONFIG"`
		DBPath          string `envconfig:"ADE_RUN_DB"`
		UnixSocket      string `envconfig:"ADE_RUN_SOCK"`
		AppsDirs        string `envconfig:"ADE_RUN_APPS_DIRS"`
		Terminal        string `envconfig:"ADE_DEFAULT_TERM"`
		ExitAfterLaunch *bool  `envconfig:"ADE_RUN_EXIT_AFTER_LAUNCH"`
		EmptyLimit      int    `envconfig:"ADE_RUN_EMPTY_LIMIT" default:"50"`
		CustomLimit     int    `envconfig:"ADE_RUN_CUSTOM_LIMIT" default:"50"`
		LogLevel        string `envconfig:"ADE_RUN_LOG_LEVEL" default:"info"`
		LogFile         string `envconfig:"ADE_RUN_LOG_FILE"`
	}
	file struct {
		Modes           []Mode `yaml:"modes"`
		ExitAfterLaunch *bool  `yaml:"exit_after_launch"`
		Terminal        string `yaml:"terminal"`
	}
)

// Load reads the environment and the modes file.
// A missing modes file means no custom modes.
func Load() (*Config, error) {
	var e env
	if err := envconfig.Process("", &e); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg := &Config{
		ModesFile:       expandPath(e.ModesFile),
		DBPath:          expandPath(e.DBPath),
		UnixSocket:      expandPath(e.UnixSocket),
		Terminal:        e.Terminal,
		ExitAfterLaunch: true,
		EmptyLimit:      e.EmptyLimit,
		CustomLimit:     e.CustomLimit,
		LogLevel:        e.LogLevel,
		LogFile:         expandPath(e.LogFile),
	}

	if cfg.ModesFile == "" {
		cfg.ModesFile = expandPath(defaultModesFile)
	}

	if cfg.DBPath == "" {
		path, err := usage.DefaultPath()
		if err != nil {
			return nil, err
		}
		cfg.DBPath = path
	}

	if cfg.UnixSocket == "" {
		currentUser, err := user.Current()
		if err != nil {
			return nil, fmt.Errorf("failed to get current user: %w", err)
		}
		cfg.UnixSocket = fmt.Sprintf("/tmp/ade-%s/run", currentUser.Uid)
	}

	if e.AppsDirs != "" {
		for _, dir := range strings.Split(e.AppsDirs, ":") {
			if dir != "" {
				cfg.AppsDirs = append(cfg.AppsDirs, expandPath(dir))
			}
		}
	} else {
		cfg.AppsDirs = desktop.DefaultDirs()
	}

	f, err := readFile(cfg.ModesFile)
	if err != nil {
		return nil, err
	}
	cfg.Modes = f.Modes
	if f.ExitAfterLaunch != nil {
		cfg.ExitAfterLaunch = *f.ExitAfterLaunch
	}
	if cfg.Terminal == "" {
		cfg.Terminal = f.Terminal
	}

	// Environment wins over the file
	if e.ExitAfterLaunch != nil {
		cfg.ExitAfterLaunch = *e.ExitAfterLaunch
	}

	if cfg.Terminal == "" {
		cfg.Terminal = "xterm"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks limits and custom mode declarations
func (c *Config) Validate() error {
	if c.EmptyLimit <= 0 {
		return fmt.Errorf("%w: empty query limit must be positive, got %d", ErrInvalid, c.EmptyLimit)
	}
	if c.CustomLimit <= 0 {
		return fmt.Errorf("%w: custom mode limit must be positive, got %d", ErrInvalid, c.CustomLimit)
	}

	seen := make(map[string]bool, len(c.Modes))
	for i, m := range c.Modes {
		switch {
		case m.Name == "":
			return fmt.Errorf("%w: mode #%d has no name", ErrInvalid, i+1)
		case m.Name == entry.DesktopModeName:
			return fmt.Errorf("%w: mode name %s is reserved", ErrInvalid, m.Name)
		case seen[m.Name]:
			return fmt.Errorf("%w: duplicate mode %s", ErrInvalid, m.Name)
		case strings.TrimSpace(m.Source) == "":
			return fmt.Errorf("%w: mode %s has no source command", ErrInvalid, m.Name)
		case !strings.Contains(m.Target, launch.Placeholder):
			return fmt.Errorf("%w: target of mode %s lacks the %s placeholder", ErrInvalid, m.Name, launch.Placeholder)
		}
		seen[m.Name] = true
	}
	return nil
}

// Mode returns the custom mode named name
func (c *Config) Mode(name string) (Mode, bool) {
	for _, m := range c.Modes {
		if m.Name == name {
			return m, true
		}
	}
	return Mode{}, false
}

// ModeList returns the desktop mode followed by the custom modes in file order
func (c *Config) ModeList() []entry.Mode {
	modes := make([]entry.Mode, 0, len(c.Modes)+1)
	modes = append(modes, entry.Desktop())
	for _, m := range c.Modes {
		modes = append(modes, entry.Custom(m.Name))
	}
	return modes
}

func readFile(path string) (file, error) {
	var f file

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return f, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("%w: %s: %w", ErrInvalid, path, err)
	}
	return f, nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
