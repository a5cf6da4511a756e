package engine

import (
	"context"
	"sync"

	"whisperd/internal/domain"
)

// ActiveCounter is the slice of the job store the gate needs.
type ActiveCounter interface {
	CountActiveByOwner(ctx context.Context, ownerID string) (int, error)
}

// Gate caps simultaneous active jobs per owner. Admission is a check-then-act
// against the store, so the count and the subsequent create run under one
// per-owner mutex; within a single process no owner can slip past the limit.
type Gate struct {
	counter ActiveCounter
	limit   int

	mu     sync.Mutex
	owners map[string]*sync.Mutex
}

// NewGate builds a gate with the given per-owner limit.
func NewGate(counter ActiveCounter, limit int) *Gate {
	return &Gate{
		counter: counter,
		limit:   limit,
		owners:  make(map[string]*sync.Mutex),
	}
}

// Limit returns the configured per-owner cap.
func (g *Gate) Limit() int {
	return g.limit
}

// Admit counts the owner's active jobs and, when below the limit, runs create
// while still holding the owner's lock. It returns ErrAdmissionDenied when
// the limit is reached; errors from the count or from create pass through.
func (g *Gate) Admit(ctx context.Context, ownerID string, create func(context.Context) error) error {
	lock := g.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	active, err := g.counter.CountActiveByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	if active >= g.limit {
		return domain.ErrAdmissionDenied
	}
	return create(ctx)
}

func (g *Gate) ownerLock(ownerID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.owners[ownerID]
	if !ok {
		lock = &sync.Mutex{}
		g.owners[ownerID] = lock
	}
	return lock
}
