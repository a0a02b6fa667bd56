package domain

import "time"

// Level is one rung of a strategy's ladder. Level 0 is the anchor; every
// other level carries prices derived from the single anchor price at
// materialization time. Levels are upserted per flip, never deleted
// individually.
type Level struct {
	ID                   int64
	StrategyID           string
	LevelNumber          int     // 0 = anchor, unique per strategy
	MainPercentage       float64 // entry price for the main leg
	MainQuantity         int
	MainTarget           float64 // exit price for the main leg
	HedgingQuantity      int
	HedgingLimitPrice    float64
	HedgingLimitQuantity int
	IsSkip               bool
	CreatedAt            time.Time
}
