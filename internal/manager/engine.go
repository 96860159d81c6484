package manager

import (
	"context"
	"errors"
	"io"

	"runtimed/pkg/types"
)

// ErrNotFound is returned by Engine implementations when a container or image
// does not exist.
var ErrNotFound = errors.New("not found")

// Engine is the subset of the container engine API the reconciler needs.
// RemoveContainer must treat a missing container as success.
type Engine interface {
	ListContainers(ctx context.Context, f ContainerFilter) ([]ContainerSummary, error)
	InspectContainer(ctx context.Context, id string) (ContainerRecord, error)
	CreateContainer(ctx context.Context, spec CreateSpec) (string, error)
	StartContainer(ctx context.Context, id string) error
	StopContainer(ctx context.Context, id string) error
	RemoveContainer(ctx context.Context, id string, force bool) error
	ImageExists(ctx context.Context, ref string) (bool, error)
	// PullImage returns the engine's JSON progress stream (jsonmessage).
	PullImage(ctx context.Context, ref, platform string) (io.ReadCloser, error)
}

// PortStore is the durable runtime port record.
type PortStore interface {
	Load(ctx context.Context) (int, error)
	Save(ctx context.Context, port int) error
}

// Probe reports whether the container engine is installed and running.
type Probe interface {
	Check(ctx context.Context) (types.InstallStatus, error)
}
