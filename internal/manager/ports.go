package manager

import (
	"context"
	"fmt"
)

// PortAllocator hands out host ports from a fixed inclusive range. Every
// container known to the engine is treated as an occupant of the port
// namespace, managed or not.
type PortAllocator struct {
	engine Engine
	start  int
	end    int
}

func NewPortAllocator(e Engine, start, end int) *PortAllocator {
	return &PortAllocator{engine: e, start: start, end: end}
}

// Range returns the inclusive port range.
func (a *PortAllocator) Range() (int, int) { return a.start, a.end }

// publishedPorts maps each published host port to the containers holding it.
// The same port may be published on different host IPs.
func (a *PortAllocator) publishedPorts(ctx context.Context) (map[int][]string, error) {
	if a.engine == nil {
		return nil, configError("no container engine configured")
	}
	cs, err := a.engine.ListContainers(ctx, ContainerFilter{All: true})
	if err != nil {
		return nil, opError(KindInspectFailed, "list published ports", err)
	}
	used := make(map[int][]string)
	for _, c := range cs {
		for _, p := range c.PublishedPorts {
			if p > 0 {
				used[p] = append(used[p], c.ID)
			}
		}
	}
	return used, nil
}

// FindAvailablePort returns the lowest port in range that no container
// publishes. An exhausted range is terminal.
func (a *PortAllocator) FindAvailablePort(ctx context.Context) (int, error) {
	if a.start <= 0 || a.end < a.start || a.end > 65535 {
		return 0, configError("invalid port range %d-%d", a.start, a.end)
	}
	used, err := a.publishedPorts(ctx)
	if err != nil {
		return 0, err
	}
	for p := a.start; p <= a.end; p++ {
		if _, taken := used[p]; !taken {
			return p, nil
		}
	}
	return 0, &OperationError{
		Kind:  KindNoPortAvailable,
		Phase: "allocate port",
		Err:   fmt.Errorf("no available ports found in range %d-%d", a.start, a.end),
	}
}

// PortHeldByOther reports whether a container other than excludeID publishes port.
func (a *PortAllocator) PortHeldByOther(ctx context.Context, port int, excludeID string) (bool, error) {
	used, err := a.publishedPorts(ctx)
	if err != nil {
		return false, err
	}
	for _, id := range used[port] {
		if id != excludeID {
			return true, nil
		}
	}
	return false, nil
}
