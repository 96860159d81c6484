package manager

import "time"

// State represents the coordinator lifecycle state.
type State string

const (
	StateIdle        State = "idle"
	StateReconciling State = "reconciling"
)

// RunState is the engine-reported state of a container.
type RunState string

const (
	RunStateAbsent  RunState = "absent"
	RunStateCreated RunState = "created"
	RunStateRunning RunState = "running"
	// RunStateExited covers every non-running state a container can be
	// started from again (exited, paused, dead, ...).
	RunStateExited RunState = "exited"
)

// Action records which branch of the reconciliation produced the runtime.
type Action string

const (
	ActionNone     Action = ""
	ActionReuse    Action = "reuse"
	ActionStart    Action = "start"
	ActionRecreate Action = "recreate"
	ActionCreate   Action = "create"
)

// ContainerFilter narrows a container listing.
type ContainerFilter struct {
	Name     string
	Ancestor string
	// All includes stopped containers.
	All bool
}

// ContainerSummary is a listing entry.
type ContainerSummary struct {
	ID             string
	Names          []string
	State          RunState
	PublishedPorts []int
}

// HasName reports whether the container is named exactly name.
func (c ContainerSummary) HasName(name string) bool {
	for _, n := range c.Names {
		if n == name || n == "/"+name {
			return true
		}
	}
	return false
}

// ContainerRecord is an inspected container. It is only valid for the
// reconciliation pass that fetched it.
type ContainerRecord struct {
	ID       string
	Name     string
	RunState RunState
	// Bindings maps container ports (tcp) to the published host port.
	Bindings map[int]int
}

// HostPortFor returns the host port bound to containerPort, or 0.
func (r ContainerRecord) HostPortFor(containerPort int) int {
	if r.Bindings == nil {
		return 0
	}
	return r.Bindings[containerPort]
}

// Mount is a host directory bind-mounted into the container.
type Mount struct {
	Source string
	Target string
}

// CreateSpec describes the runtime container to create.
type CreateSpec struct {
	Name          string
	Image         string
	ContainerPort int
	HostPort      int
	HostIP        string
	Mounts        []Mount
	Platform      string
}

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	State       State
	Ready       bool
	Port        int
	ContainerID string
	Action      Action
	LastError   string
	LastOpID    string
	LastRun     time.Time
	Reconciles  uint64
	Failures    uint64
}
