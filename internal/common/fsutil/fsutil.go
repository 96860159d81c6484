package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	// handle cases like ~/models/llm
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// PathExists checks if the given path exists.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// AppName names the per-user data directory.
const AppName = "voice-studio"

// DataDir returns the per-user data directory for goos, reading environment
// variables through getenv.
func DataDir(goos string, getenv func(string) string) (string, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	switch goos {
	case "windows":
		base := getenv("LOCALAPPDATA")
		if base == "" {
			base = filepath.Join(getenv("USERPROFILE"), "AppData", "Local")
		}
		return filepath.Join(base, AppName, "data"), nil
	case "darwin":
		return filepath.Join(getenv("HOME"), "Library", "Application Support", AppName, "data"), nil
	case "linux":
		base := getenv("XDG_DATA_HOME")
		if base == "" {
			base = filepath.Join(getenv("HOME"), ".local", "share")
		}
		return filepath.Join(base, AppName, "data"), nil
	}
	return "", fmt.Errorf("unsupported platform: %s", goos)
}

// EnsureDir creates path and its parents. An existing directory is not an error.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	return nil
}
