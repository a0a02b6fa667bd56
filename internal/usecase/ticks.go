package usecase

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/vitos/option_ladder_bot/internal/domain"
)

// DefaultTickSize is the NSE options tick.
const DefaultTickSize = 0.05

// RoundToTick snaps p to the nearest multiple of tick, ties away from zero.
// Snapping an already-aligned price is a no-op.
func RoundToTick(p, tick float64) float64 {
	if tick <= 0 {
		return p
	}
	return math.Round(p/tick) * tick
}

// LotSize returns the contract lot size for an index symbol. FINNIFTY is
// matched before NIFTY because its symbol contains "NIFTY".
func LotSize(symbol string) int {
	s := strings.ToUpper(symbol)
	switch {
	case strings.Contains(s, "BANKNIFTY"):
		return 15
	case strings.Contains(s, "FINNIFTY"):
		return 25
	case strings.Contains(s, "MIDCP") || strings.Contains(s, "MIDCAP"):
		return 50
	case strings.Contains(s, "NIFTY"):
		return 75
	}
	return 1
}

// ChainResolver picks tradable contracts out of the venue's option chain.
type ChainResolver struct {
	venue       domain.Venue
	strikeCount int
}

func NewChainResolver(venue domain.Venue, strikeCount int) *ChainResolver {
	if strikeCount <= 0 {
		strikeCount = 20
	}
	return &ChainResolver{venue: venue, strikeCount: strikeCount}
}

// Resolve returns the contract strikeDistance steps from the at-the-money
// strike on the given side. Distance is signed relative to the chain: zero
// is the middle strike, positive walks toward higher strikes for calls and
// lower strikes for puts.
func (r *ChainResolver) Resolve(ctx context.Context, index, expiry string, strikeDistance int, direction string) (*domain.Instrument, error) {
	chain, err := r.venue.GetOptionChain(ctx, index, expiry, r.strikeCount)
	if err != nil {
		return nil, err
	}

	optionType := "CE"
	if direction == domain.DirectionPut {
		optionType = "PE"
	}

	var side []domain.OptionContract
	for _, c := range chain.Contracts {
		if c.OptionType == optionType {
			side = append(side, c)
		}
	}
	if len(side) == 0 {
		return nil, domain.Errorf(domain.KindValidation, "resolver.Resolve",
			"no %s contracts in chain for %s", optionType, index)
	}

	sort.Slice(side, func(i, j int) bool { return side[i].StrikePrice < side[j].StrikePrice })

	mid := len(side) / 2
	idx := mid + strikeDistance
	if direction == domain.DirectionPut {
		idx = mid - strikeDistance
	}
	if idx < 0 || idx >= len(side) {
		return nil, domain.Errorf(domain.KindValidation, "resolver.Resolve",
			"strike distance %d out of chain range for %s", strikeDistance, index)
	}

	c := side[idx]
	return &domain.Instrument{Symbol: c.Symbol, Price: c.LTP}, nil
}
