package domain

import "time"

// Strike directions for the main and hedge legs.
const (
	DirectionCall = "call"
	DirectionPut  = "put"
)

// FlipDirection returns the opposite strike direction.
func FlipDirection(direction string) string {
	if direction == DirectionCall {
		return DirectionPut
	}
	return DirectionCall
}

// Strategy is one configured ladder: the main option leg, the optional hedge
// leg, and the parameters the ladder was built from. MainInstrument and
// HedgingInstrument are mutable, they change on every flip.
type Strategy struct {
	ID                    string
	UserID                string
	MainInstrument        string
	HedgingInstrument     string
	OriginalPrice         float64
	IsActive              bool
	IsHedging             bool
	StrikeDistance        int
	StrikeDirection       string // "call" or "put"
	HedgingStrikeDistance int
	HedgingQuantity       int
	HedgingLimitPrice     float64
	HedgingLimitQuantity  int
	CreatedAt             time.Time
}
