package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"runtimed/internal/common/fsutil"
)

// result is the outcome of one reconciliation pass.
type result struct {
	port        int
	containerID string
	action      Action
}

// reconciliation holds the state of a single pass. Container records are
// fetched fresh and never outlive it.
type reconciliation struct {
	m       *Manager
	ref     ImageReference
	ident   ContainerIdentity
	opID    string
	retried bool
}

func (m *Manager) reconcile(ctx context.Context, opID string) (result, error) {
	ref, err := m.validate()
	if err != nil {
		return result{}, err
	}
	rc := &reconciliation{m: m, ref: ref, ident: DeriveIdentity(m.cfg.ContainerPrefix, ref.Raw), opID: opID}
	log := m.log.With().Str("op_id", opID).Str("container", rc.ident.Name).Logger()
	log.Debug().Str("event", "reconcile_start").Str("image", ref.Raw).Msg("reconciling runtime container")

	existing, err := rc.find(ctx)
	if err != nil {
		return result{}, err
	}
	if existing == nil {
		return rc.createFresh(ctx, 0, ActionCreate)
	}

	var rec ContainerRecord
	err = m.runStep(ctx, "inspect", func(ctx context.Context) error {
		var ierr error
		rec, ierr = m.cfg.Engine.InspectContainer(ctx, existing.ID)
		return ierr
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Removed between list and inspect.
			return rc.createFresh(ctx, 0, ActionCreate)
		}
		return result{}, opError(KindInspectFailed, "inspect container", err)
	}

	hostPort := rec.HostPortFor(m.cfg.ContainerPort)
	if hostPort == 0 {
		log.Info().Str("event", "no_binding").Str("id", rec.ID).Msg("container has no port binding, recreating")
		if err := rc.remove(ctx, rec.ID, false); err != nil {
			return result{}, err
		}
		return rc.createFresh(ctx, 0, ActionRecreate)
	}

	held, err := m.ports.PortHeldByOther(ctx, hostPort, rec.ID)
	if err != nil {
		return result{}, err
	}
	if held {
		newPort, err := m.ports.FindAvailablePort(ctx)
		if err != nil {
			return result{}, err
		}
		log.Warn().Str("event", "port_conflict").Int("port", hostPort).Int("new_port", newPort).
			Msg("bound port is published by another container, recreating")
		if err := rc.remove(ctx, rec.ID, true); err != nil {
			return result{}, err
		}
		return rc.createFresh(ctx, newPort, ActionRecreate)
	}

	if rec.RunState == RunStateRunning {
		log.Info().Str("event", "reuse").Int("port", hostPort).Msg("container already running")
		return result{port: hostPort, containerID: rec.ID, action: ActionReuse}, nil
	}

	log.Info().Str("event", "start_existing").Str("state", string(rec.RunState)).Int("port", hostPort).Msg("starting existing container")
	if err := rc.startAndConfirm(ctx, rec.ID); err != nil {
		log.Warn().Str("event", "start_failed").Err(err).Msg("existing container did not start, recreating")
		rc.retried = true
		if rerr := rc.remove(ctx, rec.ID, false); rerr != nil {
			return result{}, rerr
		}
		return rc.createFresh(ctx, 0, ActionRecreate)
	}
	return result{port: hostPort, containerID: rec.ID, action: ActionStart}, nil
}

func (m *Manager) validate() (ImageReference, error) {
	ref, err := ParseImageReference(m.cfg.Image)
	if err != nil {
		return ImageReference{}, err
	}
	if m.cfg.Engine == nil {
		return ImageReference{}, configError("no container engine configured")
	}
	if m.cfg.Store == nil {
		return ImageReference{}, configError("no port store configured")
	}
	return ref, nil
}

// find lists containers of the configured image under the identity name,
// stopped ones included. Engine name filters match substrings, so only an
// exact name match counts.
func (rc *reconciliation) find(ctx context.Context) (*ContainerSummary, error) {
	return rc.list(ctx, ContainerFilter{Name: rc.ident.Name, Ancestor: rc.ref.Raw, All: true})
}

// findByName is find without the image filter. It sees containers that hold
// the identity name but were created from another image or an older digest.
func (rc *reconciliation) findByName(ctx context.Context) (*ContainerSummary, error) {
	return rc.list(ctx, ContainerFilter{Name: rc.ident.Name, All: true})
}

func (rc *reconciliation) list(ctx context.Context, f ContainerFilter) (*ContainerSummary, error) {
	var cs []ContainerSummary
	err := rc.m.runStep(ctx, "list", func(ctx context.Context) error {
		var lerr error
		cs, lerr = rc.m.cfg.Engine.ListContainers(ctx, f)
		return lerr
	})
	if err != nil {
		return nil, opError(KindInspectFailed, "list containers", err)
	}
	for i := range cs {
		if cs[i].HasName(rc.ident.Name) {
			return &cs[i], nil
		}
	}
	return nil, nil
}

// createFresh pulls the image if needed, clears any container left under the
// identity name and creates the container on port, allocating one when port
// is 0. A container that fails to reach the running
// state is removed and recreated once on a freshly allocated port.
func (rc *reconciliation) createFresh(ctx context.Context, port int, action Action) (result, error) {
	m := rc.m
	err := m.runStep(ctx, "pull", func(ctx context.Context) error {
		_, perr := m.puller.Ensure(ctx, rc.ref, rc.opID)
		return perr
	})
	if err != nil {
		return result{}, err
	}
	if err := rc.ensureOutputDir(); err != nil {
		return result{}, err
	}
	// The name is unique per engine. Whatever still holds it would make the
	// create fail with a conflict.
	if err := rc.removeByName(ctx); err != nil {
		return result{}, err
	}

	for {
		if port == 0 {
			p, err := m.ports.FindAvailablePort(ctx)
			if err != nil {
				return result{}, err
			}
			port = p
		}

		id, err := rc.create(ctx, port)
		if err == nil {
			err = rc.startAndConfirm(ctx, id)
		}
		if err == nil {
			return result{port: port, containerID: id, action: action}, nil
		}
		if rc.retried {
			// Create failures keep their own kind and phase.
			return result{}, opError(KindStartFailed, "start container", err)
		}
		rc.retried = true
		m.log.Warn().Str("event", "start_retry").Str("op_id", rc.opID).Int("port", port).Err(err).
			Msg("container did not reach running state, recreating once")
		if id != "" {
			if rerr := rc.remove(ctx, id, false); rerr != nil {
				return result{}, rerr
			}
		} else if rerr := rc.removeByName(ctx); rerr != nil {
			return result{}, rerr
		}
		port = 0
		action = ActionRecreate
	}
}

func (rc *reconciliation) create(ctx context.Context, port int) (string, error) {
	m := rc.m
	spec := CreateSpec{
		Name:          rc.ident.Name,
		Image:         rc.ref.Raw,
		ContainerPort: m.cfg.ContainerPort,
		HostPort:      port,
		HostIP:        m.cfg.HostIP,
		Platform:      m.cfg.Platform,
	}
	if dir := m.cfg.OutputDir(); dir != "" {
		spec.Mounts = []Mount{{Source: dir, Target: m.cfg.OutputMount}}
	}
	var id string
	err := m.runStep(ctx, "create", func(ctx context.Context) error {
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.String(attrContainer, spec.Name),
			attribute.Int(attrPort, port),
		)
		var cerr error
		id, cerr = m.cfg.Engine.CreateContainer(ctx, spec)
		return cerr
	})
	if err != nil {
		return "", opError(KindEngine, fmt.Sprintf("create container on port %d", port), err)
	}
	m.log.Info().Str("event", "created").Str("op_id", rc.opID).Str("id", id).Int("port", port).Msg("container created")
	return id, nil
}

// startAndConfirm starts id and verifies it is still running after the
// confirmation delay.
func (rc *reconciliation) startAndConfirm(ctx context.Context, id string) error {
	m := rc.m
	return m.runStep(ctx, "start", func(ctx context.Context) error {
		if err := m.cfg.Engine.StartContainer(ctx, id); err != nil {
			return fmt.Errorf("start container: %w", err)
		}
		t := time.NewTimer(m.cfg.StartConfirmDelay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		rec, err := m.cfg.Engine.InspectContainer(ctx, id)
		if err != nil {
			return fmt.Errorf("confirm container running: %w", err)
		}
		if rec.RunState != RunStateRunning {
			return fmt.Errorf("container %s is %s after start", shortID(id), rec.RunState)
		}
		return nil
	})
}

// remove stops (when requested) and force-removes id. A missing container is
// not an error.
func (rc *reconciliation) remove(ctx context.Context, id string, stop bool) error {
	m := rc.m
	err := m.runStep(ctx, "remove", func(ctx context.Context) error {
		if stop {
			if err := m.cfg.Engine.StopContainer(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
				m.log.Debug().Str("id", id).Err(err).Msg("stop before remove failed, forcing removal")
			}
		}
		if err := m.cfg.Engine.RemoveContainer(ctx, id, true); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return opError(KindEngine, "remove container", err)
	}
	m.log.Info().Str("event", "removed").Str("op_id", rc.opID).Str("id", id).Msg("container removed")
	return nil
}

// removeByName force-removes whatever container holds the identity name,
// whatever its image. It also clears a half-created container that left no
// id behind.
func (rc *reconciliation) removeByName(ctx context.Context) error {
	c, err := rc.findByName(ctx)
	if err != nil || c == nil {
		return err
	}
	rc.m.log.Info().Str("event", "clear_name").Str("op_id", rc.opID).Str("id", c.ID).Str("state", string(c.State)).
		Msg("removing container holding the runtime name")
	return rc.remove(ctx, c.ID, false)
}

func (rc *reconciliation) ensureOutputDir() error {
	dir := rc.m.cfg.OutputDir()
	if dir == "" {
		return nil
	}
	if err := fsutil.EnsureDir(dir); err != nil {
		return opError(KindConfig, "create output directory", err)
	}
	return nil
}
