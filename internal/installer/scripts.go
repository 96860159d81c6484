package installer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrUnsupportedPlatform = errors.New("unsupported platform")

// InstallScriptName returns the engine install script for goos.
func InstallScriptName(goos string) (string, error) {
	switch goos {
	case "windows":
		return "docker_install_win.bat", nil
	case "darwin":
		return "docker_install_macos.sh", nil
	case "linux":
		return "docker_install_linux.sh", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
}

// CheckScriptName returns the engine check script for goos.
func CheckScriptName(goos string) (string, error) {
	switch goos {
	case "windows":
		return "docker_check_win.bat", nil
	case "darwin":
		return "docker_check_macos.sh", nil
	case "linux":
		return "docker_check_linux.sh", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
}

// ScriptPath resolves name under dir and marks it executable on unix hosts.
// A failed chmod is not fatal since scripts are run through a shell.
func ScriptPath(dir, name, goos string) (string, error) {
	p := filepath.Join(dir, name)
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("script not found: %s: %w", name, err)
	}
	if goos != "windows" {
		_ = os.Chmod(p, 0o755)
	}
	return p, nil
}
