package desktop

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/0xADE/ade-run/internal/entry"
)

// ErrMalformed marks a .desktop file that cannot be launched
var ErrMalformed = errors.New("malformed desktop entry")

// ErrHidden marks an entry that asks not to be displayed
var ErrHidden = errors.New("hidden desktop entry")

// Result is one scanned .desktop file. Exactly one of Entry and Err is set.
type Result struct {
	Path  string
	Entry *entry.DesktopEntry
	Err   error
}

// DefaultDirs returns the standard application directories, most specific first
func DefaultDirs() []string {
	home := os.Getenv("HOME")

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" && home != "" {
		dataHome = filepath.Join(home, ".local/share")
	}

	dataDirs := os.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}

	var dirs []string
	if dataHome != "" {
		dirs = append(dirs, filepath.Join(dataHome, "applications"))
	}
	for _, d := range strings.Split(dataDirs, ":") {
		if d != "" {
			dirs = append(dirs, filepath.Join(d, "applications"))
		}
	}
	return dirs
}

// Scan walks dirs for .desktop files and sends every parsed file on
// resultChan as soon as it is ready. Unreadable directories are skipped.
// resultChan is closed when the walk finishes or ctx is cancelled.
func Scan(ctx context.Context, dirs []string, resultChan chan<- Result) error {
	defer close(resultChan)

	for _, dir := range dirs {
		if err := scanDir(ctx, dir, resultChan); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Continue scanning other paths
			continue
		}
	}

	return nil
}

func scanDir(ctx context.Context, rootPath string, resultChan chan<- Result) error {
	return filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() || !strings.HasSuffix(path, ".desktop") {
			return nil
		}

		res := Result{Path: path}
		res.Entry, res.Err = ParseDesktopFile(path)
		if res.Err != nil {
			res.Entry = nil
		}

		select {
		case resultChan <- res:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})
}

// ParseDesktopFile parses a single .desktop file
func ParseDesktopFile(path string) (*entry.DesktopEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return parse(file, path)
}

func parse(file *os.File, path string) (*entry.DesktopEntry, error) {
	e := &entry.DesktopEntry{SourcePath: path}

	var (
		inDesktopEntry bool
		hidden         bool
		entryType      string
	)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Check for section header
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inDesktopEntry = strings.Trim(line, "[]") == "Desktop Entry"
			continue
		}

		if !inDesktopEntry {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "Name":
			e.Name = value
		case "Icon":
			e.Icon = value
		case "Exec":
			e.Exec = value
		case "Type":
			entryType = value
		case "Terminal":
			e.Terminal = strings.EqualFold(value, "true")
		case "NoDisplay", "Hidden":
			if strings.EqualFold(value, "true") {
				hidden = true
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if hidden {
		return nil, ErrHidden
	}

	if e.Exec == "" {
		return nil, fmt.Errorf("%w: missing Exec", ErrMalformed)
	}

	if entryType != "" && entryType != "Application" {
		return nil, fmt.Errorf("%w: type %s is not launchable", ErrMalformed, entryType)
	}

	// Use filename without extension
	if e.Name == "" {
		e.Name = strings.TrimSuffix(filepath.Base(path), ".desktop")
	}

	return e, nil
}
