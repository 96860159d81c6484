// Package enginetest provides an in-memory container engine for tests.
package enginetest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/docker/docker/pkg/jsonmessage"

	"runtimed/internal/manager"
)

// Container is a container known to the fake engine.
type Container struct {
	ID    string
	Name  string
	Image string
	State manager.RunState
	// Bindings maps container ports to host ports.
	Bindings map[int]int
}

func (c Container) hostPorts() []int {
	out := make([]int, 0, len(c.Bindings))
	for _, hp := range c.Bindings {
		out = append(out, hp)
	}
	sort.Ints(out)
	return out
}

// Engine implements manager.Engine in memory. Zero values of the knobs give a
// well-behaved engine: pulls succeed and started containers keep running.
type Engine struct {
	mu         sync.Mutex
	containers map[string]*Container
	images     map[string]bool
	nextID     int
	calls      map[string]int
	creates    []manager.CreateSpec

	// PullStream is replayed as the engine progress stream on every pull.
	PullStream []jsonmessage.JSONMessage
	// PullErr fails PullImage before any stream is returned.
	PullErr error
	// FailStarts makes the next n starts leave the container exited.
	FailStarts int
	// FailCreates makes the next n creates register the container and then
	// return an error without its id, like a create the client gave up on.
	FailCreates int
	// StartErr fails every start.
	StartErr error
	// ListErr fails every listing.
	ListErr error
	// BeforeList runs outside the engine lock at the start of each listing.
	BeforeList func(manager.ContainerFilter)
}

func New() *Engine {
	return &Engine{
		containers: make(map[string]*Container),
		images:     make(map[string]bool),
		calls:      make(map[string]int),
	}
}

// AddImage marks ref as present locally.
func (e *Engine) AddImage(ref string) {
	e.mu.Lock()
	e.images[ref] = true
	e.mu.Unlock()
}

// AddContainer registers c and returns its id. An empty ID is generated.
func (e *Engine) AddContainer(c Container) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c.ID == "" {
		c.ID = e.newID()
	}
	if c.State == "" {
		c.State = manager.RunStateCreated
	}
	e.containers[c.ID] = &c
	return c.ID
}

// Calls returns how often op was invoked (list, inspect, create, start, stop,
// remove, image_exists, pull).
func (e *Engine) Calls(op string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[op]
}

// Creates returns the specs passed to CreateContainer in order.
func (e *Engine) Creates() []manager.CreateSpec {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]manager.CreateSpec, len(e.creates))
	copy(out, e.creates)
	return out
}

// ByName returns the container named name.
func (e *Engine) ByName(name string) (Container, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.containers {
		if c.Name == name {
			return *c, true
		}
	}
	return Container{}, false
}

// Len returns the number of containers.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.containers)
}

func (e *Engine) newID() string {
	e.nextID++
	return fmt.Sprintf("%064x", e.nextID)
}

func (e *Engine) lookup(idOrName string) *Container {
	if c, ok := e.containers[idOrName]; ok {
		return c
	}
	for _, c := range e.containers {
		if c.Name == idOrName || strings.HasPrefix(c.ID, idOrName) {
			return c
		}
	}
	return nil
}

func (e *Engine) ListContainers(ctx context.Context, f manager.ContainerFilter) ([]manager.ContainerSummary, error) {
	if e.BeforeList != nil {
		e.BeforeList(f)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls["list"]++
	if e.ListErr != nil {
		return nil, e.ListErr
	}
	ids := make([]string, 0, len(e.containers))
	for id := range e.containers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []manager.ContainerSummary
	for _, id := range ids {
		c := e.containers[id]
		if f.Name != "" && !strings.Contains(c.Name, f.Name) {
			continue
		}
		if f.Ancestor != "" && c.Image != f.Ancestor {
			continue
		}
		if !f.All && c.State != manager.RunStateRunning {
			continue
		}
		out = append(out, manager.ContainerSummary{
			ID:             c.ID,
			Names:          []string{"/" + c.Name},
			State:          c.State,
			PublishedPorts: c.hostPorts(),
		})
	}
	return out, nil
}

func (e *Engine) InspectContainer(ctx context.Context, id string) (manager.ContainerRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls["inspect"]++
	c := e.lookup(id)
	if c == nil {
		return manager.ContainerRecord{}, fmt.Errorf("no such container %s: %w", id, manager.ErrNotFound)
	}
	b := make(map[int]int, len(c.Bindings))
	for k, v := range c.Bindings {
		b[k] = v
	}
	return manager.ContainerRecord{ID: c.ID, Name: c.Name, RunState: c.State, Bindings: b}, nil
}

func (e *Engine) CreateContainer(ctx context.Context, spec manager.CreateSpec) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls["create"]++
	e.creates = append(e.creates, spec)
	for _, c := range e.containers {
		if c.Name == spec.Name {
			return "", fmt.Errorf("conflict: the container name %q is already in use by %s", spec.Name, c.ID)
		}
	}
	if !e.images[spec.Image] {
		return "", fmt.Errorf("no such image: %s: %w", spec.Image, manager.ErrNotFound)
	}
	c := &Container{
		ID:       e.newID(),
		Name:     spec.Name,
		Image:    spec.Image,
		State:    manager.RunStateCreated,
		Bindings: map[int]int{spec.ContainerPort: spec.HostPort},
	}
	e.containers[c.ID] = c
	if e.FailCreates > 0 {
		e.FailCreates--
		return "", fmt.Errorf("create %s: %w", spec.Name, context.DeadlineExceeded)
	}
	return c.ID, nil
}

// StartContainer fails like the engine does when another running container
// already publishes one of the requested host ports.
func (e *Engine) StartContainer(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls["start"]++
	c := e.lookup(id)
	if c == nil {
		return fmt.Errorf("no such container %s: %w", id, manager.ErrNotFound)
	}
	if e.StartErr != nil {
		return e.StartErr
	}
	for _, hp := range c.hostPorts() {
		for _, o := range e.containers {
			if o.ID == c.ID || o.State != manager.RunStateRunning {
				continue
			}
			for _, op := range o.hostPorts() {
				if op == hp {
					return fmt.Errorf("bind for 0.0.0.0:%d failed: port is already allocated", hp)
				}
			}
		}
	}
	if e.FailStarts > 0 {
		e.FailStarts--
		c.State = manager.RunStateExited
		return nil
	}
	c.State = manager.RunStateRunning
	return nil
}

func (e *Engine) StopContainer(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls["stop"]++
	c := e.lookup(id)
	if c == nil {
		return fmt.Errorf("no such container %s: %w", id, manager.ErrNotFound)
	}
	c.State = manager.RunStateExited
	return nil
}

func (e *Engine) RemoveContainer(ctx context.Context, id string, force bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls["remove"]++
	c := e.lookup(id)
	if c == nil {
		return nil
	}
	if c.State == manager.RunStateRunning && !force {
		return errors.New("cannot remove a running container, stop it first or force removal")
	}
	delete(e.containers, c.ID)
	return nil
}

func (e *Engine) ImageExists(ctx context.Context, ref string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls["image_exists"]++
	return e.images[ref], nil
}

// PullImage replays PullStream. The image becomes present unless the stream
// carries an error message.
func (e *Engine) PullImage(ctx context.Context, ref, platform string) (io.ReadCloser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls["pull"]++
	if e.PullErr != nil {
		return nil, e.PullErr
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	failed := false
	for _, m := range e.PullStream {
		if m.Error != nil || m.ErrorMessage != "" {
			failed = true
		}
		if err := enc.Encode(m); err != nil {
			return nil, err
		}
	}
	if !failed {
		e.images[ref] = true
	}
	return io.NopCloser(&buf), nil
}

// Layer builds a layer progress message.
func Layer(id, status string, current, total int64) jsonmessage.JSONMessage {
	return jsonmessage.JSONMessage{
		ID:       id,
		Status:   status,
		Progress: &jsonmessage.JSONProgress{Current: current, Total: total},
	}
}

// Status builds a message without progress, e.g. "Pulling fs layer".
func Status(id, status string) jsonmessage.JSONMessage {
	return jsonmessage.JSONMessage{ID: id, Status: status}
}

// Failure builds a stream error message.
func Failure(msg string) jsonmessage.JSONMessage {
	return jsonmessage.JSONMessage{Error: &jsonmessage.JSONError{Message: msg}, ErrorMessage: msg}
}

var _ manager.Engine = (*Engine)(nil)
