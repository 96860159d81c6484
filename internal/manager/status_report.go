package manager

import (
	"time"

	"runtimed/pkg/types"
)

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		State:       m.state,
		Ready:       m.ready,
		Port:        m.port,
		ContainerID: m.containerID,
		Action:      m.action,
		LastError:   m.lastErr,
		LastOpID:    m.lastOpID,
		LastRun:     m.lastRun,
		Reconciles:  m.reconciles,
		Failures:    m.failures,
	}
}

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	s := m.Snapshot()
	now := time.Now()
	resp := types.StatusResponse{
		State:           string(s.State),
		Ready:           s.Ready,
		Image:           m.cfg.Image,
		ContainerID:     s.ContainerID,
		Port:            s.Port,
		LastAction:      string(s.Action),
		LastError:       s.LastError,
		LastOpID:        s.LastOpID,
		ReconcilesTotal: s.Reconciles,
		FailuresTotal:   s.Failures,
		Subscribers:     m.bus.Len(),
		UptimeSeconds:   int64(now.Sub(m.startTime).Seconds()),
		ServerTimeUnix:  now.Unix(),
	}
	if !s.LastRun.IsZero() {
		resp.LastRunUnix = s.LastRun.Unix()
	}
	if id, err := m.Identity(); err == nil {
		resp.Container = id.Name
	}
	return resp
}
