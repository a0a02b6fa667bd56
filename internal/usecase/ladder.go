package usecase

import (
	"context"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/vitos/option_ladder_bot/internal/domain"
)

// LevelTemplate describes one rung below the anchor: how far below the
// anchor price it sits, its own target above that entry, how many lots it
// trades, and the optional hedge leg. Field names follow the template
// payload submitted on create.
type LevelTemplate struct {
	Percentage         float64 `yaml:"main_percentage" json:"main_percentage"`
	TargetPct          float64 `yaml:"main_target" json:"main_target"`
	Quantity           int     `yaml:"main_quantity" json:"main_quantity"`
	HedgePct           float64 `yaml:"hedge_percentage" json:"hedge_percentage"`
	HedgeQuantity      int     `yaml:"hedge_market_quantity" json:"hedge_market_quantity"`
	HedgeLimitQuantity int     `yaml:"hedge_limit_quantity" json:"hedge_limit_quantity"`
}

// LadderParams is everything Materialize needs besides the strategy row.
type LadderParams struct {
	AnchorPrice   float64
	TargetPct     float64
	HedgeLimitPct float64
	Quantity      int
	// Template maps level number (as a string key, "1" upward) to its
	// per-level parameters. Level 0 is implicit, built from the anchor
	// and the strategy-wide target/hedge values above.
	Template map[string]LevelTemplate
	TickSize float64
}

// Materializer expands a strategy's template into concrete level rows.
type Materializer struct {
	levels domain.LevelRepository
	logger *zap.Logger
}

func NewMaterializer(levels domain.LevelRepository, logger *zap.Logger) *Materializer {
	return &Materializer{levels: levels, logger: logger}
}

// Materialize builds the full ladder from a single anchor price. Every level
// is priced against the anchor, never against the previous level. The
// template is validated in full before anything is written; a malformed
// template leaves storage untouched. When the ladder already exists the rows
// are updated in place so order history keyed by level id survives a flip.
func (m *Materializer) Materialize(ctx context.Context, s *domain.Strategy, p LadderParams) ([]*domain.Level, error) {
	if p.AnchorPrice <= 0 {
		return nil, domain.Errorf(domain.KindValidation, "ladder.Materialize", "anchor price must be positive, got %v", p.AnchorPrice)
	}
	if p.TickSize <= 0 {
		p.TickSize = DefaultTickSize
	}

	numbers := make([]int, 0, len(p.Template))
	for key, tpl := range p.Template {
		n, err := strconv.Atoi(key)
		if err != nil || n < 1 {
			return nil, domain.Errorf(domain.KindValidation, "ladder.Materialize", "bad template key %q", key)
		}
		if tpl.Percentage <= 0 || tpl.Percentage >= 100 {
			return nil, domain.Errorf(domain.KindValidation, "ladder.Materialize", "level %d percentage %v out of range", n, tpl.Percentage)
		}
		if tpl.TargetPct <= 0 {
			return nil, domain.Errorf(domain.KindValidation, "ladder.Materialize", "level %d target %v must be positive", n, tpl.TargetPct)
		}
		if tpl.Quantity <= 0 {
			return nil, domain.Errorf(domain.KindValidation, "ladder.Materialize", "level %d quantity must be positive", n)
		}
		if tpl.HedgePct < 0 || tpl.HedgePct >= 100 {
			return nil, domain.Errorf(domain.KindValidation, "ladder.Materialize", "level %d hedge percentage %v out of range", n, tpl.HedgePct)
		}
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	now := time.Now()
	anchor := domain.Level{
		StrategyID:           s.ID,
		LevelNumber:          0,
		CreatedAt:            now,
		MainPercentage:       RoundToTick(p.AnchorPrice, p.TickSize),
		MainQuantity:         p.Quantity,
		MainTarget:           RoundToTick(p.AnchorPrice*(1+p.TargetPct/100), p.TickSize),
		HedgingQuantity:      s.HedgingQuantity,
		HedgingLimitQuantity: s.HedgingLimitQuantity,
	}
	if p.HedgeLimitPct > 0 {
		anchor.HedgingLimitPrice = RoundToTick(p.AnchorPrice*(1-p.HedgeLimitPct/100), p.TickSize)
	}

	out := make([]*domain.Level, 0, len(numbers)+1)
	out = append(out, &anchor)
	for _, n := range numbers {
		tpl := p.Template[strconv.Itoa(n)]
		entry := p.AnchorPrice * (1 - tpl.Percentage/100)
		lv := &domain.Level{
			StrategyID:           s.ID,
			LevelNumber:          n,
			MainPercentage:       RoundToTick(entry, p.TickSize),
			MainQuantity:         tpl.Quantity,
			MainTarget:           RoundToTick(entry*(1+tpl.TargetPct/100), p.TickSize),
			HedgingQuantity:      tpl.HedgeQuantity,
			HedgingLimitQuantity: tpl.HedgeLimitQuantity,
			CreatedAt:            now,
		}
		if tpl.HedgePct > 0 {
			lv.HedgingLimitPrice = RoundToTick(p.AnchorPrice*(1-tpl.HedgePct/100), p.TickSize)
		}
		out = append(out, lv)
	}

	existing, err := m.levels.GetLevelsByStrategy(ctx, s.ID, s.MainInstrument)
	if err != nil {
		return nil, err
	}

	if len(existing) > 0 {
		byNumber := make(map[int]*domain.Level, len(existing))
		for _, lv := range existing {
			byNumber[lv.LevelNumber] = lv
		}
		for _, lv := range out {
			if prev, ok := byNumber[lv.LevelNumber]; ok {
				lv.ID = prev.ID
				lv.IsSkip = prev.IsSkip
				// no hedge percent this round keeps the prior limit price
				if lv.HedgingLimitPrice == 0 {
					lv.HedgingLimitPrice = prev.HedgingLimitPrice
				}
			}
		}
		if err := m.levels.UpdateLevels(ctx, out); err != nil {
			return nil, err
		}
		m.logger.Info("ladder re-materialized",
			zap.String("strategy_id", s.ID),
			zap.Float64("anchor", p.AnchorPrice),
			zap.Int("levels", len(out)))
		return out, nil
	}

	if err := m.levels.CreateLevels(ctx, out); err != nil {
		return nil, err
	}
	m.logger.Info("ladder materialized",
		zap.String("strategy_id", s.ID),
		zap.Float64("anchor", p.AnchorPrice),
		zap.Int("levels", len(out)))
	return out, nil
}
