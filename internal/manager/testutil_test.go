package manager_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"runtimed/internal/enginetest"
	"runtimed/internal/manager"
	"runtimed/internal/portstore"
	"runtimed/pkg/types"
)

const testImage = "voicestudio/model-library:latest"

type fixture struct {
	eng   *enginetest.Engine
	store *portstore.Memory
	pub   *manager.MemoryPublisher
	m     *manager.Manager
	cfg   manager.ManagerConfig
}

func newFixture(t *testing.T, mutate ...func(*manager.ManagerConfig)) *fixture {
	t.Helper()
	f := &fixture{eng: enginetest.New(), store: portstore.NewMemory(), pub: manager.NewMemoryPublisher()}
	f.cfg = manager.ManagerConfig{
		Engine:            f.eng,
		Store:             f.store,
		Image:             testImage,
		DataDir:           t.TempDir(),
		StartConfirmDelay: time.Millisecond,
		Publisher:         f.pub,
	}
	for _, fn := range mutate {
		fn(&f.cfg)
	}
	f.m = manager.NewWithConfig(f.cfg)
	return f
}

func (f *fixture) name(t *testing.T) string {
	t.Helper()
	id, err := f.m.Identity()
	if err != nil {
		t.Fatalf("identity: %v", err)
	}
	return id.Name
}

func (f *fixture) ensure(t *testing.T) (bool, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return f.m.EnsureRuntimeReady(ctx)
}

func (f *fixture) mustEnsure(t *testing.T) {
	t.Helper()
	ok, err := f.ensure(t)
	if err != nil || !ok {
		t.Fatalf("EnsureRuntimeReady ok=%v err=%v", ok, err)
	}
}

func (f *fixture) storedPort(t *testing.T) int {
	t.Helper()
	p, err := f.store.Load(context.Background())
	if err != nil {
		t.Fatalf("store load: %v", err)
	}
	return p
}

// occupy registers an unmanaged running container publishing port.
func (f *fixture) occupy(port int) {
	f.eng.AddContainer(enginetest.Container{
		Name:     fmt.Sprintf("unrelated-%d", port),
		Image:    "nginx:latest",
		State:    manager.RunStateRunning,
		Bindings: map[int]int{80: port},
	})
}

type fakeProbe struct {
	st  types.InstallStatus
	err error
}

func (p fakeProbe) Check(context.Context) (types.InstallStatus, error) { return p.st, p.err }
