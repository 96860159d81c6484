package engine

import (
	"context"
	"os/exec"

	"github.com/docker/docker/client"

	"runtimed/pkg/types"
)

// Probe reports whether Docker is installed and its daemon is running.
type Probe struct {
	cli      client.APIClient
	lookPath func(string) (string, error)
}

func NewProbe(cli client.APIClient) *Probe {
	return &Probe{cli: cli, lookPath: exec.LookPath}
}

// Check never fails; an unreachable daemon is reported as not running.
func (p *Probe) Check(ctx context.Context) (types.InstallStatus, error) {
	var st types.InstallStatus
	if _, err := p.lookPath("docker"); err == nil {
		st.Installed = true
	}
	if p.cli != nil {
		if _, err := p.cli.Ping(ctx); err == nil {
			st.Installed = true
			st.Running = true
		}
	}
	return st, nil
}
