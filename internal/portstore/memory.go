package portstore

import (
	"context"
	"sync"
)

// Memory keeps the port in process memory.
type Memory struct {
	mu    sync.Mutex
	port  int
	saves int
}

func NewMemory() *Memory { return &Memory{} }

func (s *Memory) Load(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == 0 {
		s.port = DefaultPort
	}
	return s.port, nil
}

func (s *Memory) Save(ctx context.Context, port int) error {
	if err := validPort(port); err != nil {
		return err
	}
	s.mu.Lock()
	s.port = port
	s.saves++
	s.mu.Unlock()
	return nil
}

// Saves returns how many times Save succeeded.
func (s *Memory) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
