package repository

import (
	"sync"

	"backtest-backend/internal/domain"
)

// InMemoryRenderStateRepository is the single-slot "latest accepted result".
// Two writers can race on it (a fast-path render and a background strategy
// completion overlapping with a newer request); the sequence number settles
// the race: anything older than what the slot holds is a discardable no-op.
type InMemoryRenderStateRepository struct {
	mu    sync.RWMutex
	state *domain.RenderState
}

func NewInMemoryRenderStateRepository() *InMemoryRenderStateRepository {
	return &InMemoryRenderStateRepository{}
}

// Publish stores the state unless a newer sequence is already held. Equal
// sequences are accepted: the phases of one run advance under one sequence.
// Returns whether the state was accepted.
func (r *InMemoryRenderStateRepository) Publish(state domain.RenderState) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != nil && state.Sequence < r.state.Sequence {
		return false
	}
	s := state
	r.state = &s
	return true
}

// Latest returns a copy of the held state, if any.
func (r *InMemoryRenderStateRepository) Latest() (domain.RenderState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state == nil {
		return domain.RenderState{}, false
	}
	return *r.state, true
}

var _ domain.RenderStateRepository = (*InMemoryRenderStateRepository)(nil)
