package usecase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitos/option_ladder_bot/internal/domain"
	"github.com/vitos/option_ladder_bot/internal/usecase"
)

func TestRegistry_SecondStartRejected(t *testing.T) {
	registry := usecase.NewRegistry(zap.NewNop())
	h := newEngineHarness(t, false)

	require.NoError(t, registry.Start("strat-1", h.engine))
	assert.True(t, registry.IsRunning("strat-1"))

	err := registry.Start("strat-1", h.engine)
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	require.NoError(t, registry.Stop("strat-1"))
}

func TestRegistry_StopRemovesAndAllowsRestart(t *testing.T) {
	registry := usecase.NewRegistry(zap.NewNop())
	h := newEngineHarness(t, false)

	require.NoError(t, registry.Start("strat-1", h.engine))
	require.NoError(t, registry.Stop("strat-1"))
	assert.False(t, registry.IsRunning("strat-1"))

	h2 := newEngineHarness(t, false)
	require.NoError(t, registry.Start("strat-1", h2.engine))
	require.NoError(t, registry.Stop("strat-1"))
}

func TestRegistry_StopUnknownStrategy(t *testing.T) {
	registry := usecase.NewRegistry(zap.NewNop())

	err := registry.Stop("nope")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestRegistry_EngineExitDeregistersItself(t *testing.T) {
	registry := usecase.NewRegistry(zap.NewNop())
	h := newEngineHarness(t, false)

	require.NoError(t, registry.Start("strat-1", h.engine))

	// a fatal stream fault makes the engine exit on its own
	h.nextPlaced(t)
	h.nextPlaced(t)
	h.nextPlaced(t)
	h.stream.fatal <- domain.Errorf(domain.KindFatal, "stream", "gone")

	deadline := time.After(3 * time.Second)
	for registry.IsRunning("strat-1") {
		select {
		case <-deadline:
			t.Fatal("engine exit did not deregister the strategy")
		case <-time.After(10 * time.Millisecond):
		}
	}

	assert.Empty(t, registry.ListActive())
}
