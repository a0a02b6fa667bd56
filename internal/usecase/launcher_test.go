package usecase_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitos/option_ladder_bot/internal/domain"
	"github.com/vitos/option_ladder_bot/internal/usecase"
)

type memTokenRepo struct {
	token string
}

func (m *memTokenRepo) ActiveToken(ctx context.Context) (string, error) {
	if m.token == "" {
		return "", domain.Errorf(domain.KindValidation, "tokens", "no active access token for today")
	}
	return m.token, nil
}

func (m *memTokenRepo) SaveToken(ctx context.Context, token string) error {
	m.token = token
	return nil
}

func newLauncherHarness(token string) (*usecase.Launcher, *memStrategyRepo, *memLevelRepo, *memOrderRepo) {
	strategies := &memStrategyRepo{}
	levels := &memLevelRepo{}
	orders := &memOrderRepo{}
	registry := usecase.NewRegistry(zap.NewNop())

	newVenue := func(string) domain.Venue { return &chainVenue{chain: testChain()} }
	newStream := func(string) domain.OrderStream { return newChanStream() }

	launcher := usecase.NewLauncher(strategies, levels, orders, &memTokenRepo{token: token},
		registry, newVenue, newStream, nil, zap.NewNop())
	return launcher, strategies, levels, orders
}

func createInput() usecase.CreateStrategyInput {
	return usecase.CreateStrategyInput{
		UserID:          "user-1",
		Index:           "NSE:NIFTY50-INDEX",
		StrikeDistance:  0,
		StrikeDirection: domain.DirectionCall,
		Quantity:        1,
		TargetPct:       5,
		Template: map[string]usecase.LevelTemplate{
			"1": {Percentage: 10, TargetPct: 5, Quantity: 1},
		},
	}
}

func TestLauncher_CreateStrategyResolvesBothLegs(t *testing.T) {
	launcher, strategies, levels, _ := newLauncherHarness("tok")

	s, err := launcher.CreateStrategy(context.Background(), createInput())
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)

	// main leg on the requested side, hedge on the opposite
	assert.Equal(t, ceSymbol(25000), s.MainInstrument)
	assert.Equal(t, peSymbol(25000), s.HedgingInstrument)
	assert.Equal(t, domain.DirectionCall, s.StrikeDirection)

	strategies.mu.Lock()
	assert.NotNil(t, strategies.strategy)
	strategies.mu.Unlock()

	ladder, err := levels.GetLevelsByStrategy(context.Background(), s.ID, s.MainInstrument)
	require.NoError(t, err)
	assert.Len(t, ladder, 2)
}

func TestLauncher_CreateStrategyValidation(t *testing.T) {
	launcher, _, _, _ := newLauncherHarness("tok")

	in := createInput()
	in.Quantity = 0
	_, err := launcher.CreateStrategy(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	in = createInput()
	in.StrikeDirection = "sideways"
	_, err = launcher.CreateStrategy(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestLauncher_CreateStrategyNeedsToken(t *testing.T) {
	launcher, _, _, _ := newLauncherHarness("")

	_, err := launcher.CreateStrategy(context.Background(), createInput())
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestLauncher_StartAndStop(t *testing.T) {
	launcher, _, _, _ := newLauncherHarness("tok")

	s, err := launcher.CreateStrategy(context.Background(), createInput())
	require.NoError(t, err)

	require.NoError(t, launcher.StartStrategy(context.Background(), s.ID))

	status, err := launcher.Status(context.Background(), s.ID)
	require.NoError(t, err)
	assert.True(t, status.IsRunning)

	require.NoError(t, launcher.StopStrategy(context.Background(), s.ID))

	status, err = launcher.Status(context.Background(), s.ID)
	require.NoError(t, err)
	assert.False(t, status.IsRunning)
}

// Each start binds the engine to its own log stream so mid-run faults land
// in the strategy's file, not the shared process log.
func TestLauncher_StartUsesPerStrategyLogger(t *testing.T) {
	strategies := &memStrategyRepo{}
	levels := &memLevelRepo{}
	orders := &memOrderRepo{}
	registry := usecase.NewRegistry(zap.NewNop())

	var mu sync.Mutex
	var loggedIDs []string
	newLogger := func(strategyID string) *zap.Logger {
		mu.Lock()
		loggedIDs = append(loggedIDs, strategyID)
		mu.Unlock()
		return zap.NewNop()
	}

	launcher := usecase.NewLauncher(strategies, levels, orders, &memTokenRepo{token: "tok"},
		registry,
		func(string) domain.Venue { return &chainVenue{chain: testChain()} },
		func(string) domain.OrderStream { return newChanStream() },
		newLogger, zap.NewNop())

	s, err := launcher.CreateStrategy(context.Background(), createInput())
	require.NoError(t, err)
	require.NoError(t, launcher.StartStrategy(context.Background(), s.ID))
	defer launcher.StopStrategy(context.Background(), s.ID)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, loggedIDs, 1)
	assert.Equal(t, s.ID, loggedIDs[0])
}

func TestLauncher_StartUnknownStrategy(t *testing.T) {
	launcher, _, _, _ := newLauncherHarness("tok")

	err := launcher.StartStrategy(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}
