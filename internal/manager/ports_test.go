package manager_test

import (
	"context"
	"testing"

	"runtimed/internal/enginetest"
	"runtimed/internal/manager"
)

func TestFindAvailablePort_LowestFree(t *testing.T) {
	eng := enginetest.New()
	a := manager.NewPortAllocator(eng, 3100, 3110)
	p, err := a.FindAvailablePort(context.Background())
	if err != nil || p != 3100 {
		t.Fatalf("port=%d err=%v", p, err)
	}
	eng.AddContainer(enginetest.Container{Name: "x", State: manager.RunStateRunning, Bindings: map[int]int{80: 3100}})
	// stopped containers still hold their published port
	eng.AddContainer(enginetest.Container{Name: "y", State: manager.RunStateExited, Bindings: map[int]int{80: 3101}})
	p, err = a.FindAvailablePort(context.Background())
	if err != nil || p != 3102 {
		t.Fatalf("port=%d err=%v", p, err)
	}
}

func TestFindAvailablePort_NeverReturnsPublishedPort(t *testing.T) {
	eng := enginetest.New()
	used := map[int]bool{3100: true, 3101: true, 3103: true, 3105: true}
	for p := range used {
		eng.AddContainer(enginetest.Container{Name: "c", State: manager.RunStateRunning, Bindings: map[int]int{80: p}})
	}
	p, err := manager.NewPortAllocator(eng, 3100, 3110).FindAvailablePort(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if used[p] || p != 3102 {
		t.Fatalf("port=%d", p)
	}
}

func TestFindAvailablePort_RangeExhausted(t *testing.T) {
	eng := enginetest.New()
	for p := 3100; p <= 3110; p++ {
		eng.AddContainer(enginetest.Container{Name: "c", State: manager.RunStateRunning, Bindings: map[int]int{80: p}})
	}
	_, err := manager.NewPortAllocator(eng, 3100, 3110).FindAvailablePort(context.Background())
	if !manager.IsNoPortAvailable(err) {
		t.Fatalf("want NoPortAvailable, got %v", err)
	}
}

func TestFindAvailablePort_InvalidRange(t *testing.T) {
	eng := enginetest.New()
	for _, r := range [][2]int{{0, 10}, {3110, 3100}, {65000, 70000}} {
		_, err := manager.NewPortAllocator(eng, r[0], r[1]).FindAvailablePort(context.Background())
		if !manager.IsConfigError(err) {
			t.Fatalf("range %v: want config error, got %v", r, err)
		}
	}
	if _, err := manager.NewPortAllocator(nil, 3100, 3110).FindAvailablePort(context.Background()); !manager.IsConfigError(err) {
		t.Fatalf("nil engine: got %v", err)
	}
}

func TestFindAvailablePort_ListFailure(t *testing.T) {
	eng := enginetest.New()
	eng.ListErr = context.DeadlineExceeded
	_, err := manager.NewPortAllocator(eng, 3100, 3110).FindAvailablePort(context.Background())
	if !manager.IsInspectFailed(err) {
		t.Fatalf("want InspectFailed, got %v", err)
	}
}

func TestPortHeldByOther(t *testing.T) {
	eng := enginetest.New()
	own := eng.AddContainer(enginetest.Container{Name: "own", Bindings: map[int]int{8000: 3104}})
	a := manager.NewPortAllocator(eng, 3100, 3110)
	held, err := a.PortHeldByOther(context.Background(), 3104, own)
	if err != nil || held {
		t.Fatalf("held=%v err=%v", held, err)
	}
	eng.AddContainer(enginetest.Container{Name: "other", Bindings: map[int]int{80: 3104}})
	if held, _ := a.PortHeldByOther(context.Background(), 3104, own); !held {
		t.Fatalf("conflict not detected")
	}
}
