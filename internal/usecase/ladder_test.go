package usecase_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitos/option_ladder_bot/internal/domain"
	"github.com/vitos/option_ladder_bot/internal/usecase"
)

// memLevelRepo is an in-memory LevelRepository tracking write counts.
type memLevelRepo struct {
	mu      sync.Mutex
	levels  []*domain.Level
	nextID  int64
	creates int
	updates int
}

func (m *memLevelRepo) GetLevelsByStrategy(ctx context.Context, strategyID, instrument string) ([]*domain.Level, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Level
	for _, l := range m.levels {
		if l.StrategyID == strategyID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memLevelRepo) CreateLevels(ctx context.Context, levels []*domain.Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	for _, l := range levels {
		m.nextID++
		l.ID = m.nextID
		cp := *l
		m.levels = append(m.levels, &cp)
	}
	return nil
}

func (m *memLevelRepo) UpdateLevels(ctx context.Context, levels []*domain.Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	for _, l := range levels {
		for _, existing := range m.levels {
			if existing.StrategyID == l.StrategyID && existing.LevelNumber == l.LevelNumber {
				existing.MainPercentage = l.MainPercentage
				existing.MainTarget = l.MainTarget
				existing.HedgingLimitPrice = l.HedgingLimitPrice
			}
		}
	}
	return nil
}

func ladderStrategy() *domain.Strategy {
	return &domain.Strategy{
		ID:              "strat-1",
		MainInstrument:  "NSE:NIFTY25SEP25000CE",
		StrikeDirection: domain.DirectionCall,
	}
}

func TestMaterialize_AnchorFormulas(t *testing.T) {
	repo := &memLevelRepo{}
	m := usecase.NewMaterializer(repo, zap.NewNop())

	levels, err := m.Materialize(context.Background(), ladderStrategy(), usecase.LadderParams{
		AnchorPrice:   100,
		TargetPct:     5,
		HedgeLimitPct: 20,
		Quantity:      1,
		Template: map[string]usecase.LevelTemplate{
			"1": {Percentage: 10, TargetPct: 5, Quantity: 5},
		},
		TickSize: 0.05,
	})
	require.NoError(t, err)
	require.Len(t, levels, 2)

	anchor := levels[0]
	assert.Equal(t, 0, anchor.LevelNumber)
	assert.InDelta(t, 100, anchor.MainPercentage, 1e-9)
	assert.InDelta(t, 105, anchor.MainTarget, 1e-9)
	assert.InDelta(t, 80, anchor.HedgingLimitPrice, 1e-9)
	assert.Equal(t, 1, anchor.MainQuantity)

	l1 := levels[1]
	assert.Equal(t, 1, l1.LevelNumber)
	assert.InDelta(t, 90, l1.MainPercentage, 1e-9)
	assert.InDelta(t, 94.5, l1.MainTarget, 1e-9)
	assert.Equal(t, 5, l1.MainQuantity)
}

// Each rung carries its own target and hedge parameters, decoded from the
// wire shape the create request submits.
func TestMaterialize_PerLevelTargetAndHedge(t *testing.T) {
	repo := &memLevelRepo{}
	m := usecase.NewMaterializer(repo, zap.NewNop())

	raw := `{"1": {"main_percentage": 10, "main_target": 20, "main_quantity": 1,
		"hedge_percentage": 25, "hedge_market_quantity": 2, "hedge_limit_quantity": 3}}`
	var tpl map[string]usecase.LevelTemplate
	require.NoError(t, json.Unmarshal([]byte(raw), &tpl))

	levels, err := m.Materialize(context.Background(), ladderStrategy(), usecase.LadderParams{
		AnchorPrice: 100,
		TargetPct:   5,
		Quantity:    1,
		Template:    tpl,
		TickSize:    0.05,
	})
	require.NoError(t, err)
	require.Len(t, levels, 2)

	l1 := levels[1]
	assert.InDelta(t, 90, l1.MainPercentage, 1e-9)
	assert.InDelta(t, 108, l1.MainTarget, 1e-9) // 90 * 1.20, not the anchor target
	assert.InDelta(t, 75, l1.HedgingLimitPrice, 1e-9)
	assert.Equal(t, 2, l1.HedgingQuantity)
	assert.Equal(t, 3, l1.HedgingLimitQuantity)

	// re-materializing without a hedge percent keeps the stored limit price
	again, err := m.Materialize(context.Background(), ladderStrategy(), usecase.LadderParams{
		AnchorPrice: 100,
		TargetPct:   5,
		Quantity:    1,
		Template: map[string]usecase.LevelTemplate{
			"1": {Percentage: 10, TargetPct: 20, Quantity: 1},
		},
		TickSize: 0.05,
	})
	require.NoError(t, err)
	assert.InDelta(t, 75, again[1].HedgingLimitPrice, 1e-9)
}

// Depths are measured against the anchor, not against the previous level.
func TestMaterialize_NotCompounded(t *testing.T) {
	repo := &memLevelRepo{}
	m := usecase.NewMaterializer(repo, zap.NewNop())

	levels, err := m.Materialize(context.Background(), ladderStrategy(), usecase.LadderParams{
		AnchorPrice: 200,
		TargetPct:   2,
		Quantity:    1,
		Template: map[string]usecase.LevelTemplate{
			"1": {Percentage: 10, TargetPct: 2, Quantity: 1},
			"2": {Percentage: 20, TargetPct: 2, Quantity: 1},
			"3": {Percentage: 30, TargetPct: 2, Quantity: 1},
		},
		TickSize: 0.05,
	})
	require.NoError(t, err)
	require.Len(t, levels, 4)

	assert.InDelta(t, 180, levels[1].MainPercentage, 1e-9)
	assert.InDelta(t, 160, levels[2].MainPercentage, 1e-9)
	assert.InDelta(t, 140, levels[3].MainPercentage, 1e-9)
}

func TestMaterialize_UpdatesInPlace(t *testing.T) {
	repo := &memLevelRepo{}
	m := usecase.NewMaterializer(repo, zap.NewNop())
	s := ladderStrategy()

	params := usecase.LadderParams{
		AnchorPrice: 100,
		TargetPct:   5,
		Quantity:    1,
		Template: map[string]usecase.LevelTemplate{
			"1": {Percentage: 10, TargetPct: 5, Quantity: 1},
		},
		TickSize: 0.05,
	}
	first, err := m.Materialize(context.Background(), s, params)
	require.NoError(t, err)

	// flip hands in a new anchor; the same rows are repriced
	params.AnchorPrice = 120
	second, err := m.Materialize(context.Background(), s, params)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.creates)
	assert.Equal(t, 1, repo.updates)
	require.Len(t, second, 2)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[1].ID, second[1].ID)
	assert.InDelta(t, 120, second[0].MainPercentage, 1e-9)
	assert.InDelta(t, 108, second[1].MainPercentage, 1e-9)
}

func TestMaterialize_MalformedTemplateWritesNothing(t *testing.T) {
	repo := &memLevelRepo{}
	m := usecase.NewMaterializer(repo, zap.NewNop())

	cases := map[string]map[string]usecase.LevelTemplate{
		"bad key":         {"one": {Percentage: 10, TargetPct: 5, Quantity: 1}},
		"zero key":        {"0": {Percentage: 10, TargetPct: 5, Quantity: 1}},
		"pct too deep":    {"1": {Percentage: 110, TargetPct: 5, Quantity: 1}},
		"zero percentage": {"1": {Percentage: 0, TargetPct: 5, Quantity: 1}},
		"zero target":     {"1": {Percentage: 10, Quantity: 1}},
		"zero quantity":   {"1": {Percentage: 10, TargetPct: 5, Quantity: 0}},
		"bad hedge pct":   {"1": {Percentage: 10, TargetPct: 5, Quantity: 1, HedgePct: 100}},
	}

	for name, tpl := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := m.Materialize(context.Background(), ladderStrategy(), usecase.LadderParams{
				AnchorPrice: 100,
				TargetPct:   5,
				Quantity:    1,
				Template:    tpl,
				TickSize:    0.05,
			})
			require.Error(t, err)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		})
	}

	assert.Equal(t, 0, repo.creates)
	assert.Equal(t, 0, repo.updates)
}

func TestMaterialize_BadAnchor(t *testing.T) {
	repo := &memLevelRepo{}
	m := usecase.NewMaterializer(repo, zap.NewNop())

	_, err := m.Materialize(context.Background(), ladderStrategy(), usecase.LadderParams{AnchorPrice: 0, TargetPct: 5})
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Equal(t, 0, repo.creates)
}
