package installer

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"runtimed/pkg/types"
)

const (
	lineNotInstalled = "NOT INSTALLED"
	lineNotRunning   = "NOT RUNNING"
	lineRunning      = "RUNNING"
)

// ParseCheckOutput reads the check script output. The last recognized line
// wins; ok is false when no line was recognized.
func ParseCheckOutput(out string) (st types.InstallStatus, ok bool) {
	s := bufio.NewScanner(strings.NewReader(out))
	for s.Scan() {
		switch strings.TrimSpace(s.Text()) {
		case lineNotInstalled:
			st, ok = types.InstallStatus{}, true
		case lineNotRunning:
			st, ok = types.InstallStatus{Installed: true}, true
		case lineRunning:
			st, ok = types.InstallStatus{Installed: true, Running: true}, true
		}
	}
	return st, ok
}

// ScriptProbe detects the engine by running the platform check script.
type ScriptProbe struct {
	Dir    string
	GOOS   string
	Runner Runner
}

func (p ScriptProbe) Check(ctx context.Context) (types.InstallStatus, error) {
	name, err := CheckScriptName(p.GOOS)
	if err != nil {
		return types.InstallStatus{}, err
	}
	path, err := ScriptPath(p.Dir, name, p.GOOS)
	if err != nil {
		return types.InstallStatus{}, err
	}
	r := p.Runner
	if r == nil {
		r = ExecRunner{}
	}
	var stdout, stderr []byte
	if p.GOOS == "windows" {
		stdout, stderr, err = r.Run(ctx, "cmd", "/C", path)
	} else {
		stdout, stderr, err = r.Run(ctx, "sh", path)
	}
	if err != nil {
		return types.InstallStatus{}, fmt.Errorf("docker check failed: %w: %s", err, strings.TrimSpace(string(stderr)))
	}
	st, _ := ParseCheckOutput(string(stdout))
	return st, nil
}
