package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest-backend/internal/domain"
)

func TestRenderStatePublishOrdering(t *testing.T) {
	repo := NewInMemoryRenderStateRepository()

	_, ok := repo.Latest()
	assert.False(t, ok, "empty repository holds nothing")

	assert.True(t, repo.Publish(domain.RenderState{Sequence: 1, Phase: domain.PhaseCandlesReady}))
	assert.True(t, repo.Publish(domain.RenderState{Sequence: 2, Phase: domain.PhaseCandlesReady}))

	// A stale completion from the superseded run is a silent no-op.
	assert.False(t, repo.Publish(domain.RenderState{Sequence: 1, Phase: domain.PhaseStrategyReady}))

	state, ok := repo.Latest()
	require.True(t, ok)
	assert.Equal(t, uint64(2), state.Sequence)
	assert.Equal(t, domain.PhaseCandlesReady, state.Phase)
}

func TestRenderStateEqualSequenceAdvancesPhase(t *testing.T) {
	repo := NewInMemoryRenderStateRepository()

	require.True(t, repo.Publish(domain.RenderState{Sequence: 3, Phase: domain.PhaseCandlesReady}))
	require.True(t, repo.Publish(domain.RenderState{Sequence: 3, Phase: domain.PhaseStrategyRunning}))
	require.True(t, repo.Publish(domain.RenderState{Sequence: 3, Phase: domain.PhaseStrategyReady}))

	state, ok := repo.Latest()
	require.True(t, ok)
	assert.Equal(t, domain.PhaseStrategyReady, state.Phase)
}

func TestRenderStateLatestReturnsCopy(t *testing.T) {
	repo := NewInMemoryRenderStateRepository()
	repo.Publish(domain.RenderState{Sequence: 1, Symbol: "BTCUSDT"})

	state, _ := repo.Latest()
	state.Symbol = "mutated"

	held, _ := repo.Latest()
	assert.Equal(t, "BTCUSDT", held.Symbol)
}
