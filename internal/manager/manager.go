package manager

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"runtimed/pkg/types"
)

const ensureKey = "ensure"

type Manager struct {
	mu          sync.RWMutex
	state       State
	ready       bool
	port        int
	containerID string
	action      Action
	lastErr     string
	lastOpID    string
	lastRun     time.Time
	reconciles  uint64
	failures    uint64

	cfg       ManagerConfig
	flight    *singleflight.Group
	bus       *Broadcaster
	publisher EventPublisher
	log       zerolog.Logger
	tracer    trace.Tracer
	startTime time.Time

	ports  *PortAllocator
	puller *ImagePuller
}

// EnsureRuntimeReady brings the runtime container to a running state on a
// known port. Concurrent callers share one in-flight reconciliation and all
// observe its outcome. A caller whose ctx ends stops waiting; the
// reconciliation itself runs to completion.
func (m *Manager) EnsureRuntimeReady(ctx context.Context) (bool, error) {
	ch := m.flight.DoChan(ensureKey, func() (any, error) {
		return nil, m.runEnsure(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return false, r.Err
		}
		return true, nil
	}
}

func (m *Manager) runEnsure(ctx context.Context) (err error) {
	opID := uuid.NewString()
	started := time.Now()

	m.mu.Lock()
	m.state = StateReconciling
	m.lastOpID = opID
	m.mu.Unlock()

	ctx, span := m.startOperation(ctx, opID, m.cfg.Image)
	var res result
	defer func() {
		m.finish(opID, started, res, err)
		recordSpanError(span, err)
		span.End()
	}()

	res, err = m.reconcile(ctx, opID)
	if err != nil {
		return err
	}
	span.SetAttributes(
		attribute.String(attrAction, string(res.action)),
		attribute.Int(attrPort, res.port),
	)
	if serr := m.cfg.Store.Save(ctx, res.port); serr != nil {
		m.log.Error().Str("event", "port_store_save").Int("port", res.port).Err(serr).Msg("failed to persist runtime port")
	}
	return nil
}

// finish always returns the coordinator to idle.
func (m *Manager) finish(opID string, started time.Time, res result, err error) {
	dur := time.Since(started)
	reconcileDuration.Observe(dur.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateIdle
	m.lastRun = time.Now()
	m.reconciles++
	if err != nil {
		m.ready = false
		m.lastErr = err.Error()
		m.failures++
		reconcileTotal.WithLabelValues("error", string(KindOf(err))).Inc()
		runtimePort.Set(0)
		m.log.Error().Str("event", "reconcile_failed").Str("op_id", opID).Dur("dur", dur).Err(err).Msg("runtime not ready")
		return
	}
	m.ready = true
	m.port = res.port
	m.containerID = res.containerID
	m.action = res.action
	m.lastErr = ""
	reconcileTotal.WithLabelValues("ok", string(res.action)).Inc()
	runtimePort.Set(float64(res.port))
	m.log.Info().Str("event", "runtime_ready").Str("op_id", opID).Str("action", string(res.action)).
		Int("port", res.port).Dur("dur", dur).Msg("runtime ready")
}

// CheckInstalled delegates engine presence detection to the configured probe.
func (m *Manager) CheckInstalled(ctx context.Context) (types.InstallStatus, error) {
	if m.cfg.Probe == nil {
		return types.InstallStatus{}, configError("no engine probe configured")
	}
	return m.cfg.Probe.Check(ctx)
}

// Ready reports whether the last reconciliation succeeded.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready
}

// Port returns the bound port, falling back to the durable record when no
// reconciliation has succeeded in this process.
func (m *Manager) Port(ctx context.Context) (int, error) {
	m.mu.RLock()
	p := m.port
	m.mu.RUnlock()
	if p > 0 {
		return p, nil
	}
	if m.cfg.Store == nil {
		return 0, configError("no port store configured")
	}
	return m.cfg.Store.Load(ctx)
}

// Identity returns the container identity derived from the configured image.
func (m *Manager) Identity() (ContainerIdentity, error) {
	ref, err := ParseImageReference(m.cfg.Image)
	if err != nil {
		return ContainerIdentity{}, err
	}
	return DeriveIdentity(m.cfg.ContainerPrefix, ref.Raw), nil
}

// Subscribe returns a channel of progress events and a cancel func.
func (m *Manager) Subscribe(buf int) (<-chan Event, func()) {
	return m.bus.Subscribe(buf)
}

// SetEventPublisher replaces the event publisher. Nil restores the no-op default.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	m.mu.Lock()
	m.publisher = p
	m.mu.Unlock()
}

func (m *Manager) emit(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	observeEvent(e)
	m.bus.Publish(e)
	m.mu.RLock()
	pub := m.publisher
	m.mu.RUnlock()
	pub.Publish(e)
}
