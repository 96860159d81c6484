package installer

import (
	"context"
	"fmt"
	"strings"
)

// PrivilegedExecutor runs a script with administrator rights.
type PrivilegedExecutor interface {
	Run(ctx context.Context, script string) (stdout, stderr []byte, err error)
}

// ForOS returns the executor for goos: pkexec on linux, an osascript
// administrator prompt on darwin, and direct execution on windows where the
// script elevates itself.
func ForOS(goos string, r Runner) PrivilegedExecutor {
	if r == nil {
		r = ExecRunner{}
	}
	switch goos {
	case "linux":
		return pkexecExecutor{r: r}
	case "darwin":
		return osascriptExecutor{r: r}
	case "windows":
		return directExecutor{r: r}
	}
	return unsupportedExecutor{goos: goos}
}

type pkexecExecutor struct{ r Runner }

func (e pkexecExecutor) Run(ctx context.Context, script string) ([]byte, []byte, error) {
	return e.r.Run(ctx, "pkexec", "sh", script)
}

type osascriptExecutor struct{ r Runner }

func (e osascriptExecutor) Run(ctx context.Context, script string) ([]byte, []byte, error) {
	return e.r.Run(ctx, "osascript", "-e", appleScriptCommand(script))
}

// appleScriptCommand builds a `do shell script` invocation of script.
func appleScriptCommand(script string) string {
	shell := "sh " + shellQuote(script)
	esc := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(shell)
	return `do shell script "` + esc + `" with administrator privileges`
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

type directExecutor struct{ r Runner }

func (e directExecutor) Run(ctx context.Context, script string) ([]byte, []byte, error) {
	return e.r.Run(ctx, "cmd", "/C", script)
}

type unsupportedExecutor struct{ goos string }

func (e unsupportedExecutor) Run(context.Context, string) ([]byte, []byte, error) {
	return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, e.goos)
}
