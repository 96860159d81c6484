package installer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Installer runs the platform engine install script with elevated rights.
type Installer struct {
	Dir  string
	GOOS string
	Exec PrivilegedExecutor
	Log  zerolog.Logger
}

func (in Installer) Install(ctx context.Context) error {
	name, err := InstallScriptName(in.GOOS)
	if err != nil {
		return err
	}
	path, err := ScriptPath(in.Dir, name, in.GOOS)
	if err != nil {
		return err
	}
	ex := in.Exec
	if ex == nil {
		ex = ForOS(in.GOOS, nil)
	}
	in.Log.Info().Str("script", path).Msg("running engine install script")
	stdout, stderr, err := ex.Run(ctx, path)
	if out := strings.TrimSpace(string(stdout)); out != "" {
		in.Log.Debug().Str("script", name).Msg(out)
	}
	if w := strings.TrimSpace(string(stderr)); w != "" {
		in.Log.Warn().Str("script", name).Msg(w)
	}
	if err != nil {
		return fmt.Errorf("docker installation failed: %w", err)
	}
	return nil
}
