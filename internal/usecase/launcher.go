package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vitos/option_ladder_bot/internal/domain"
)

// VenueFactory builds a venue adapter bound to a session token.
type VenueFactory func(accessToken string) domain.Venue

// StreamFactory builds an order-update stream bound to a session token.
type StreamFactory func(accessToken string) domain.OrderStream

// LoggerFactory builds the log stream a running strategy writes to. Engine
// faults land here, not in any HTTP response.
type LoggerFactory func(strategyID string) *zap.Logger

// CreateStrategyInput is the request to set up a new ladder strategy.
type CreateStrategyInput struct {
	UserID                string                   `json:"userId"`
	Index                 string                   `json:"index"`
	Expiry                string                   `json:"expiry"`
	StrikeDistance        int                      `json:"strikeDistance"`
	StrikeDirection       string                   `json:"strikeDirection"`
	Quantity              int                      `json:"quantity"`
	TargetPct             float64                  `json:"targetPct"`
	IsHedging             bool                     `json:"isHedging"`
	HedgingStrikeDistance int                      `json:"hedgingStrikeDistance"`
	HedgingQuantity       int                      `json:"hedgingQuantity"`
	HedgeLimitPct         float64                  `json:"hedgeLimitPct"`
	HedgingLimitQuantity  int                      `json:"hedgingLimitQuantity"`
	Template              map[string]LevelTemplate `json:"template"`
}

// StrategyStatus is the externally visible state of one strategy.
type StrategyStatus struct {
	Strategy  *domain.Strategy `json:"strategy"`
	IsRunning bool             `json:"isRunning"`
}

// Launcher assembles and runs strategy engines: it resolves instruments,
// materializes ladders, builds per-strategy venue sessions from the stored
// access token, and hands engines to the registry.
type Launcher struct {
	strategies domain.StrategyRepository
	levels     domain.LevelRepository
	orders     domain.OrderRepository
	tokens     domain.TokenRepository
	registry   *Registry
	newVenue   VenueFactory
	newStream  StreamFactory
	newLogger  LoggerFactory
	logger     *zap.Logger

	mu     sync.Mutex
	params map[string]EngineParams
}

func NewLauncher(
	strategies domain.StrategyRepository,
	levels domain.LevelRepository,
	orders domain.OrderRepository,
	tokens domain.TokenRepository,
	registry *Registry,
	newVenue VenueFactory,
	newStream StreamFactory,
	newLogger LoggerFactory,
	logger *zap.Logger,
) *Launcher {
	return &Launcher{
		strategies: strategies,
		levels:     levels,
		orders:     orders,
		tokens:     tokens,
		registry:   registry,
		newVenue:   newVenue,
		newStream:  newStream,
		newLogger:  newLogger,
		logger:     logger,
		params:     make(map[string]EngineParams),
	}
}

// CreateStrategy resolves the main and hedge instruments from the option
// chain, persists the strategy row and materializes its ladder from the main
// instrument's current price.
func (l *Launcher) CreateStrategy(ctx context.Context, in CreateStrategyInput) (*domain.Strategy, error) {
	if in.Index == "" || in.Quantity <= 0 || in.TargetPct <= 0 {
		return nil, domain.Errorf(domain.KindValidation, "launcher.CreateStrategy", "index, quantity and targetPct are required")
	}
	if in.StrikeDirection != domain.DirectionCall && in.StrikeDirection != domain.DirectionPut {
		return nil, domain.Errorf(domain.KindValidation, "launcher.CreateStrategy", "strikeDirection must be %q or %q", domain.DirectionCall, domain.DirectionPut)
	}

	token, err := l.tokens.ActiveToken(ctx)
	if err != nil {
		return nil, err
	}
	venue := l.newVenue(token)
	resolver := NewChainResolver(venue, 0)

	main, err := resolver.Resolve(ctx, in.Index, in.Expiry, in.StrikeDistance, in.StrikeDirection)
	if err != nil {
		return nil, err
	}
	hedge, err := resolver.Resolve(ctx, in.Index, in.Expiry, in.HedgingStrikeDistance, domain.FlipDirection(in.StrikeDirection))
	if err != nil {
		return nil, err
	}

	s := &domain.Strategy{
		ID:                    uuid.NewString(),
		UserID:                in.UserID,
		MainInstrument:        main.Symbol,
		HedgingInstrument:     hedge.Symbol,
		OriginalPrice:         main.Price,
		IsHedging:             in.IsHedging,
		StrikeDistance:        in.StrikeDistance,
		StrikeDirection:       in.StrikeDirection,
		HedgingStrikeDistance: in.HedgingStrikeDistance,
		HedgingQuantity:       in.HedgingQuantity,
		HedgingLimitPrice:     RoundToTick(main.Price*(1-in.HedgeLimitPct/100), DefaultTickSize),
		HedgingLimitQuantity:  in.HedgingLimitQuantity,
		CreatedAt:             time.Now(),
	}
	if err := l.strategies.SaveStrategy(ctx, s); err != nil {
		return nil, err
	}

	materializer := NewMaterializer(l.levels, l.logger)
	if _, err := materializer.Materialize(ctx, s, LadderParams{
		AnchorPrice:   main.Price,
		TargetPct:     in.TargetPct,
		HedgeLimitPct: in.HedgeLimitPct,
		Quantity:      in.Quantity,
		Template:      in.Template,
		TickSize:      DefaultTickSize,
	}); err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.params[s.ID] = EngineParams{
		Index:         in.Index,
		Expiry:        in.Expiry,
		TargetPct:     in.TargetPct,
		HedgeLimitPct: in.HedgeLimitPct,
		Quantity:      in.Quantity,
		Template:      in.Template,
		TickSize:      DefaultTickSize,
	}
	l.mu.Unlock()

	l.logger.Info("strategy created",
		zap.String("strategy_id", s.ID),
		zap.String("main", main.Symbol),
		zap.String("hedge", hedge.Symbol))
	return s, nil
}

// StartStrategy builds a fresh engine for the id and hands it to the
// registry. The venue session is rebuilt from the current day's token on
// every start.
func (l *Launcher) StartStrategy(ctx context.Context, strategyID string) error {
	s, err := l.strategies.GetStrategy(ctx, strategyID)
	if err != nil {
		return err
	}
	if s == nil {
		return domain.Errorf(domain.KindValidation, "launcher.StartStrategy", "strategy %s not found", strategyID)
	}

	l.mu.Lock()
	params, ok := l.params[strategyID]
	l.mu.Unlock()
	if !ok {
		return domain.Errorf(domain.KindValidation, "launcher.StartStrategy", "strategy %s has no run parameters; recreate it", strategyID)
	}

	token, err := l.tokens.ActiveToken(ctx)
	if err != nil {
		return err
	}

	venue := l.newVenue(token)
	stream := l.newStream(token)
	resolver := NewChainResolver(venue, 0)

	engineLogger := l.logger.With(zap.String("strategy_id", strategyID))
	if l.newLogger != nil {
		engineLogger = l.newLogger(strategyID)
	}
	materializer := NewMaterializer(l.levels, engineLogger)

	engine := NewStrategyEngine(s, l.strategies, l.levels, l.orders, venue, stream, resolver, materializer, params,
		engineLogger)

	if err := l.registry.Start(strategyID, engine); err != nil {
		return err
	}
	if err := l.strategies.SetActive(ctx, strategyID, true); err != nil {
		l.logger.Error("marking strategy active failed", zap.Error(err))
	}
	return nil
}

// StopStrategy winds a running strategy down.
func (l *Launcher) StopStrategy(ctx context.Context, strategyID string) error {
	return l.registry.Stop(strategyID)
}

// Status returns the stored strategy plus whether it is live.
func (l *Launcher) Status(ctx context.Context, strategyID string) (*StrategyStatus, error) {
	s, err := l.strategies.GetStrategy(ctx, strategyID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.Errorf(domain.KindValidation, "launcher.Status", "strategy %s not found", strategyID)
	}
	return &StrategyStatus{Strategy: s, IsRunning: l.registry.IsRunning(strategyID)}, nil
}

// ListStrategies returns every stored strategy.
func (l *Launcher) ListStrategies(ctx context.Context) ([]*domain.Strategy, error) {
	return l.strategies.ListStrategies(ctx)
}

// Levels returns the materialized ladder for a strategy's current main
// instrument.
func (l *Launcher) Levels(ctx context.Context, strategyID string) ([]*domain.Level, error) {
	s, err := l.strategies.GetStrategy(ctx, strategyID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.Errorf(domain.KindValidation, "launcher.Levels", "strategy %s not found", strategyID)
	}
	return l.levels.GetLevelsByStrategy(ctx, strategyID, s.MainInstrument)
}

// Orders returns the full order history of a strategy.
func (l *Launcher) Orders(ctx context.Context, strategyID string) ([]*domain.Order, error) {
	return l.orders.ListOrdersByStrategy(ctx, strategyID)
}

// SaveToken stores the venue session token for the day.
func (l *Launcher) SaveToken(ctx context.Context, token string) error {
	if token == "" {
		return domain.Errorf(domain.KindValidation, "launcher.SaveToken", "token is required")
	}
	return l.tokens.SaveToken(ctx, token)
}
