package guard

import (
	"context"
	"sync"
)

// Memory is a process-local Guard for tests and single-node deployments.
type Memory struct {
	mu      sync.Mutex
	counter uint64
}

func NewMemory() *Memory {
	return &Memory{}
}

func (g *Memory) Current(_ context.Context) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counter, nil
}

func (g *Memory) CompareAndIncrement(_ context.Context, observed uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.counter != observed {
		return ErrConflict
	}
	g.counter++
	return nil
}
