package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/vitos/option_ladder_bot/internal/domain"
)

const (
	orderRetryAttempts = 10
	orderRetryDelay    = 2 * time.Second

	productTypeMargin = "MARGIN"
	validityDay       = "DAY"
)

// EngineParams carries the per-run ladder parameters a Strategy row does not
// store directly.
type EngineParams struct {
	Index         string
	Expiry        string
	TargetPct     float64
	HedgeLimitPct float64
	Quantity      int
	Template      map[string]LevelTemplate
	TickSize      float64
}

// StrategyEngine drives one ladder strategy: it seeds the position with a
// market order at the anchor, then walks the ladder by keeping at most two
// resting limit orders alive (the entry for the next deeper level and the
// exit for the current one) and reacting to whichever fills first. When the
// anchor-level exit fills the whole position is closed and the strategy
// flips to the opposite option side.
type StrategyEngine struct {
	strategy   *domain.Strategy
	strategies domain.StrategyRepository
	levels     domain.LevelRepository
	orders     domain.OrderRepository
	venue      domain.Venue
	stream     domain.OrderStream
	resolver   domain.InstrumentResolver
	ladder     *Materializer
	logger     *zap.Logger
	params     EngineParams

	mu        sync.Mutex
	ladderRow []*domain.Level
	index     int

	// the at-most-two resting orders of the current iteration
	pendingEntry *domain.Order
	pendingExit  *domain.Order

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewStrategyEngine(
	s *domain.Strategy,
	strategies domain.StrategyRepository,
	levels domain.LevelRepository,
	orders domain.OrderRepository,
	venue domain.Venue,
	stream domain.OrderStream,
	resolver domain.InstrumentResolver,
	ladder *Materializer,
	params EngineParams,
	logger *zap.Logger,
) *StrategyEngine {
	return &StrategyEngine{
		strategy:   s,
		strategies: strategies,
		levels:     levels,
		orders:     orders,
		venue:      venue,
		stream:     stream,
		resolver:   resolver,
		ladder:     ladder,
		params:     params,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}
}

// Stop asks the engine to wind down. Idempotent; the caller joins on the
// goroutine running Run.
func (e *StrategyEngine) Stop() {
	e.stopOnce.Do(func() { close(e.stopCh) })
}

// Run executes ladder cycles until stopped or a fatal fault. One cycle is a
// full ladder lifecycle ending in exit-and-flip; the loop then starts the
// next cycle on the flipped instruments.
func (e *StrategyEngine) Run(ctx context.Context) error {
	defer e.cleanup()

	for {
		select {
		case <-e.stopCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := e.runCycle(ctx); err != nil {
			if errors.Is(err, errStopped) {
				return nil
			}
			return err
		}
	}
}

// errStopped is the internal signal that a cycle ended because Stop was
// called, not because of a fault.
var errStopped = errors.New("engine stopped")

func (e *StrategyEngine) runCycle(ctx context.Context) error {
	if err := e.stream.CheckAndStart(); err != nil {
		return err
	}

	if err := e.fetchLevels(ctx); err != nil {
		return err
	}

	if err := e.placeInitialOrders(ctx); err != nil {
		return err
	}

	for {
		if err := e.placeIterationOrders(ctx); err != nil {
			return err
		}

		update, err := e.waitForConfirmation(ctx)
		if err != nil {
			return err
		}

		flipped, err := e.handleFill(ctx, update)
		if err != nil {
			return err
		}
		if flipped {
			// new cycle on the flipped instruments
			return nil
		}
	}
}

// fetchLevels loads the ladder for the strategy's current main instrument
// and resets the level pointer to the anchor.
func (e *StrategyEngine) fetchLevels(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rows, err := e.levels.GetLevelsByStrategy(ctx, e.strategy.ID, e.strategy.MainInstrument)
	if err != nil {
		return domain.E(domain.KindTransient, "engine.fetchLevels", err)
	}
	if len(rows) == 0 {
		return domain.Errorf(domain.KindConsistency, "engine.fetchLevels",
			"no levels for strategy %s instrument %s", e.strategy.ID, e.strategy.MainInstrument)
	}

	e.ladderRow = rows
	e.index = 0
	e.pendingEntry = nil
	e.pendingExit = nil
	return nil
}

func (e *StrategyEngine) levelAt(n int) *domain.Level {
	for _, lv := range e.ladderRow {
		if lv.LevelNumber == n {
			return lv
		}
	}
	return nil
}

func (e *StrategyEngine) maxLevel() int {
	max := 0
	for _, lv := range e.ladderRow {
		if lv.LevelNumber > max {
			max = lv.LevelNumber
		}
	}
	return max
}

// placeInitialOrders opens the position: a market buy of the main leg at the
// anchor level, plus the hedge market buy when hedging is on. Market fills
// are recorded as completed immediately.
func (e *StrategyEngine) placeInitialOrders(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	anchor := e.levelAt(0)
	if anchor == nil {
		return domain.Errorf(domain.KindConsistency, "engine.placeInitialOrders", "ladder has no anchor level")
	}

	qty := anchor.MainQuantity * LotSize(e.strategy.MainInstrument)
	resp, err := e.placeOrder(ctx, domain.OrderRequest{
		Symbol:      e.strategy.MainInstrument,
		Qty:         qty,
		Type:        domain.OrderTypeMarket,
		Side:        domain.SideBuy,
		ProductType: productTypeMargin,
		Validity:    validityDay,
	})
	if err != nil {
		return err
	}

	price, perr := e.venue.GetOrderTradedPrice(ctx, resp.OrderID)
	if perr != nil {
		e.logger.Warn("traded price lookup failed, keeping level price",
			zap.String("order_id", resp.OrderID), zap.Error(perr))
		price = anchor.MainPercentage
	}

	row := &domain.Order{
		LevelID:          anchor.ID,
		EntryOrderID:     resp.OrderID,
		EntryOrderStatus: domain.StatusCompleted,
		OrderSide:        "buy",
		IsEntry:          true,
		IsMain:           true,
		OrderQuantity:    qty,
		EntryPrice:       price,
		EntryTime:        time.Now(),
	}
	if err := e.orders.CreateOrder(ctx, row); err != nil {
		return domain.E(domain.KindTransient, "engine.placeInitialOrders", err)
	}

	e.logger.Info("initial position opened",
		zap.String("strategy_id", e.strategy.ID),
		zap.String("instrument", e.strategy.MainInstrument),
		zap.Float64("price", price),
		zap.Int("qty", qty))

	e.hedgeEntry(ctx, anchor)
	return nil
}

// placeIterationOrders keeps the two resting orders of the current iteration
// alive: the exit for the current level and the entry for the next deeper
// level. Per level the rule is: place an exit if an open entry exists there,
// otherwise place an entry.
func (e *StrategyEngine) placeIterationOrders(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.levelAt(e.index)
	if current == nil {
		return domain.Errorf(domain.KindConsistency, "engine.placeIterationOrders", "level %d missing", e.index)
	}

	if e.pendingExit == nil {
		row, err := e.orderForLevel(ctx, current)
		if err != nil {
			return err
		}
		if row != nil && row.ExitOrderStatus == domain.StatusPending {
			e.pendingExit = row
		}
	}

	if e.index < e.maxLevel() && e.pendingEntry == nil {
		next := e.levelAt(e.index + 1)
		if next == nil {
			return domain.Errorf(domain.KindConsistency, "engine.placeIterationOrders", "level %d missing", e.index+1)
		}
		if !next.IsSkip {
			row, err := e.orderForLevel(ctx, next)
			if err != nil {
				return err
			}
			if row != nil && row.EntryOrderStatus == domain.StatusPending {
				e.pendingEntry = row
			}
		}
	}

	return nil
}

// orderForLevel places the one order a level needs right now: an exit limit
// when the level already holds an open entry, an entry limit otherwise.
func (e *StrategyEngine) orderForLevel(ctx context.Context, lv *domain.Level) (*domain.Order, error) {
	open, err := e.orders.FindOpenOrder(ctx, lv.ID, true)
	if err != nil {
		return nil, domain.E(domain.KindTransient, "engine.orderForLevel", err)
	}

	if open != nil {
		if open.ExitOrderID != "" {
			// exit already resting
			return open, nil
		}
		return e.placeExitOrder(ctx, lv, open)
	}
	return e.placeEntryOrder(ctx, lv)
}

func (e *StrategyEngine) placeEntryOrder(ctx context.Context, lv *domain.Level) (*domain.Order, error) {
	qty := lv.MainQuantity * LotSize(e.strategy.MainInstrument)
	resp, err := e.placeOrder(ctx, domain.OrderRequest{
		Symbol:      e.strategy.MainInstrument,
		Qty:         qty,
		Type:        domain.OrderTypeLimit,
		Side:        domain.SideBuy,
		ProductType: productTypeMargin,
		LimitPrice:  RoundToTick(lv.MainPercentage, e.params.TickSize),
		Validity:    validityDay,
	})
	if err != nil {
		return nil, err
	}

	row := &domain.Order{
		LevelID:          lv.ID,
		EntryOrderID:     resp.OrderID,
		EntryOrderStatus: domain.StatusPending,
		OrderSide:        "buy",
		IsEntry:          true,
		IsMain:           true,
		OrderQuantity:    qty,
		EntryPrice:       lv.MainPercentage,
		EntryTime:        time.Now(),
	}
	if err := e.orders.CreateOrder(ctx, row); err != nil {
		return nil, domain.E(domain.KindTransient, "engine.placeEntryOrder", err)
	}

	e.logger.Info("entry order placed",
		zap.String("strategy_id", e.strategy.ID),
		zap.Int("level", lv.LevelNumber),
		zap.Float64("price", lv.MainPercentage),
		zap.String("order_id", resp.OrderID))
	return row, nil
}

func (e *StrategyEngine) placeExitOrder(ctx context.Context, lv *domain.Level, open *domain.Order) (*domain.Order, error) {
	resp, err := e.placeOrder(ctx, domain.OrderRequest{
		Symbol:      e.strategy.MainInstrument,
		Qty:         open.OrderQuantity,
		Type:        domain.OrderTypeLimit,
		Side:        domain.SideSell,
		ProductType: productTypeMargin,
		LimitPrice:  RoundToTick(lv.MainTarget, e.params.TickSize),
		Validity:    validityDay,
	})
	if err != nil {
		return nil, err
	}

	open.ExitOrderID = resp.OrderID
	open.ExitOrderStatus = domain.StatusPending
	open.ExitPrice = lv.MainTarget
	if err := e.orders.UpdateOrder(ctx, open); err != nil {
		return nil, domain.E(domain.KindTransient, "engine.placeExitOrder", err)
	}

	e.logger.Info("exit order placed",
		zap.String("strategy_id", e.strategy.ID),
		zap.Int("level", lv.LevelNumber),
		zap.Float64("price", lv.MainTarget),
		zap.String("order_id", resp.OrderID))
	return open, nil
}

// waitForConfirmation blocks until one of the two resting orders fills, the
// engine is stopped, or the stream goes terminal. Updates for unrelated
// orders are discarded.
func (e *StrategyEngine) waitForConfirmation(ctx context.Context) (domain.OrderUpdate, error) {
	for {
		select {
		case <-e.stopCh:
			return domain.OrderUpdate{}, errStopped
		case <-ctx.Done():
			return domain.OrderUpdate{}, ctx.Err()
		case err := <-e.stream.Fatal():
			return domain.OrderUpdate{}, domain.E(domain.KindFatal, "engine.waitForConfirmation", err)
		case update := <-e.stream.Updates():
			if domain.StatusFromVenue(update.Status) != domain.StatusCompleted {
				continue
			}
			e.mu.Lock()
			relevant := (e.pendingEntry != nil && update.OrderID == e.pendingEntry.EntryOrderID) ||
				(e.pendingExit != nil && update.OrderID == e.pendingExit.ExitOrderID)
			e.mu.Unlock()
			if !relevant {
				e.logger.Debug("discarding unrelated order update", zap.String("order_id", update.OrderID))
				continue
			}
			return update, nil
		}
	}
}

// handleFill routes a fill to the entry or exit handler. Returns true when
// the cycle ended in exit-and-flip.
func (e *StrategyEngine) handleFill(ctx context.Context, update domain.OrderUpdate) (bool, error) {
	e.mu.Lock()
	isEntry := e.pendingEntry != nil && update.OrderID == e.pendingEntry.EntryOrderID
	e.mu.Unlock()

	if isEntry {
		return false, e.handleEntryFill(ctx, update)
	}
	return e.handleExitFill(ctx, update)
}

// handleEntryFill advances the ladder one level deeper: record the fill,
// hedge it, cancel the now-stale exit at the previous level, move the
// pointer down.
func (e *StrategyEngine) handleEntryFill(ctx context.Context, update domain.OrderUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	row, err := e.orders.FindByEntryOrderID(ctx, update.OrderID)
	if err != nil {
		return domain.E(domain.KindTransient, "engine.handleEntryFill", err)
	}
	if row == nil {
		// fill for an order we have no row for: log the fault and abandon
		// this branch rather than guessing at state
		e.logger.Error("entry fill with no matching order row",
			zap.String("strategy_id", e.strategy.ID),
			zap.String("order_id", update.OrderID))
		e.pendingEntry = nil
		return nil
	}

	row.EntryOrderStatus = domain.StatusCompleted
	if update.TradedPrice > 0 {
		row.EntryPrice = update.TradedPrice
	}
	if err := e.orders.UpdateOrder(ctx, row); err != nil {
		return domain.E(domain.KindTransient, "engine.handleEntryFill", err)
	}

	filledLevel := e.levelAt(e.index + 1)
	e.logger.Info("entry filled",
		zap.String("strategy_id", e.strategy.ID),
		zap.Int("level", e.index+1),
		zap.Float64("price", row.EntryPrice))

	if filledLevel != nil {
		e.hedgeEntry(ctx, filledLevel)
	}

	if e.pendingExit != nil {
		e.cancelExitLeg(ctx, e.pendingExit)
		e.pendingExit = nil
	}
	e.pendingEntry = nil
	e.index++
	return nil
}

// handleExitFill retreats the ladder one level, or, at the anchor, closes
// out and flips the whole strategy.
func (e *StrategyEngine) handleExitFill(ctx context.Context, update domain.OrderUpdate) (bool, error) {
	e.mu.Lock()

	row := e.pendingExit
	if row == nil || row.ExitOrderID != update.OrderID {
		e.mu.Unlock()
		e.logger.Error("exit fill with no matching resting order",
			zap.String("strategy_id", e.strategy.ID),
			zap.String("order_id", update.OrderID))
		return false, nil
	}

	row.ExitOrderStatus = domain.StatusCompleted
	row.IsComplete = true
	row.ExitTime = time.Now()
	if update.TradedPrice > 0 {
		row.ExitPrice = update.TradedPrice
	}
	if err := e.orders.UpdateOrder(ctx, row); err != nil {
		e.mu.Unlock()
		return false, domain.E(domain.KindTransient, "engine.handleExitFill", err)
	}

	level := e.levelAt(e.index)
	e.logger.Info("exit filled",
		zap.String("strategy_id", e.strategy.ID),
		zap.Int("level", e.index),
		zap.Float64("price", row.ExitPrice))

	if level != nil {
		e.hedgeExit(ctx, level)
	}
	e.pendingExit = nil

	if e.index == 0 {
		e.mu.Unlock()
		if err := e.exitAndFlip(ctx); err != nil {
			return false, err
		}
		return true, nil
	}

	if e.pendingEntry != nil {
		e.cancelEntryLeg(ctx, e.pendingEntry)
		e.pendingEntry = nil
	}
	e.index--
	e.mu.Unlock()
	return false, nil
}

// exitAndFlip closes the whole position and restarts the strategy on the
// opposite option side: cancel every resting order, flatten positions,
// resolve fresh instruments for the flipped direction, re-materialize the
// ladder from the new main price.
func (e *StrategyEngine) exitAndFlip(ctx context.Context) error {
	e.logger.Info("anchor exit filled, flipping strategy",
		zap.String("strategy_id", e.strategy.ID),
		zap.String("direction", e.strategy.StrikeDirection))

	e.cancelAllPending(ctx)

	if err := e.venue.ExitAllPositions(ctx); err != nil {
		e.logger.Warn("exit all positions failed", zap.Error(err))
	}

	newDirection := domain.FlipDirection(e.strategy.StrikeDirection)

	main, err := e.resolver.Resolve(ctx, e.params.Index, e.params.Expiry, e.strategy.StrikeDistance, newDirection)
	if err != nil {
		return domain.E(domain.KindFatal, "engine.exitAndFlip", err)
	}
	hedge, err := e.resolver.Resolve(ctx, e.params.Index, e.params.Expiry, e.strategy.HedgingStrikeDistance, domain.FlipDirection(newDirection))
	if err != nil {
		return domain.E(domain.KindFatal, "engine.exitAndFlip", err)
	}

	if err := e.strategies.UpdateInstruments(ctx, e.strategy.ID, main.Symbol, hedge.Symbol, newDirection); err != nil {
		return domain.E(domain.KindTransient, "engine.exitAndFlip", err)
	}

	e.mu.Lock()
	e.strategy.MainInstrument = main.Symbol
	e.strategy.HedgingInstrument = hedge.Symbol
	e.strategy.StrikeDirection = newDirection
	e.strategy.OriginalPrice = main.Price
	e.mu.Unlock()

	if _, err := e.ladder.Materialize(ctx, e.strategy, LadderParams{
		AnchorPrice:   main.Price,
		TargetPct:     e.params.TargetPct,
		HedgeLimitPct: e.params.HedgeLimitPct,
		Quantity:      e.params.Quantity,
		Template:      e.params.Template,
		TickSize:      e.params.TickSize,
	}); err != nil {
		return domain.E(domain.KindFatal, "engine.exitAndFlip", err)
	}

	e.logger.Info("strategy flipped",
		zap.String("strategy_id", e.strategy.ID),
		zap.String("main", main.Symbol),
		zap.String("hedge", hedge.Symbol),
		zap.String("direction", newDirection))
	return nil
}

// hedgeEntry places the hedge-side market buy for a filled main entry. Hedge
// faults never stop the main ladder; they are logged and skipped.
func (e *StrategyEngine) hedgeEntry(ctx context.Context, lv *domain.Level) {
	if !e.strategy.IsHedging || lv.HedgingQuantity <= 0 {
		return
	}

	qty := lv.HedgingQuantity * LotSize(e.strategy.HedgingInstrument)
	resp, err := e.placeOrder(ctx, domain.OrderRequest{
		Symbol:      e.strategy.HedgingInstrument,
		Qty:         qty,
		Type:        domain.OrderTypeMarket,
		Side:        domain.SideBuy,
		ProductType: productTypeMargin,
		Validity:    validityDay,
	})
	if err != nil {
		e.logger.Error("hedge entry failed, continuing without hedge",
			zap.String("strategy_id", e.strategy.ID),
			zap.Int("level", lv.LevelNumber),
			zap.Error(err))
		return
	}

	row := &domain.Order{
		LevelID:          lv.ID,
		EntryOrderID:     resp.OrderID,
		EntryOrderStatus: domain.StatusCompleted,
		OrderSide:        "buy",
		IsEntry:          true,
		IsMain:           false,
		OrderQuantity:    qty,
		EntryTime:        time.Now(),
	}
	if err := e.orders.CreateOrder(ctx, row); err != nil {
		e.logger.Error("recording hedge entry failed", zap.Error(err))
	}
}

// hedgeExit closes the hedge leg opened for a level, if one exists.
func (e *StrategyEngine) hedgeExit(ctx context.Context, lv *domain.Level) {
	if !e.strategy.IsHedging {
		return
	}

	open, err := e.orders.FindOpenOrder(ctx, lv.ID, false)
	if err != nil || open == nil {
		if err != nil {
			e.logger.Error("hedge exit lookup failed", zap.Error(err))
		}
		return
	}

	resp, err := e.placeOrder(ctx, domain.OrderRequest{
		Symbol:      e.strategy.HedgingInstrument,
		Qty:         open.OrderQuantity,
		Type:        domain.OrderTypeMarket,
		Side:        domain.SideSell,
		ProductType: productTypeMargin,
		Validity:    validityDay,
	})
	if err != nil {
		e.logger.Error("hedge exit failed, continuing",
			zap.String("strategy_id", e.strategy.ID),
			zap.Int("level", lv.LevelNumber),
			zap.Error(err))
		return
	}

	open.ExitOrderID = resp.OrderID
	open.ExitOrderStatus = domain.StatusCompleted
	open.IsComplete = true
	open.ExitTime = time.Now()
	if err := e.orders.UpdateOrder(ctx, open); err != nil {
		e.logger.Error("recording hedge exit failed", zap.Error(err))
	}
}

// cancelEntryLeg cancels a resting entry and clears its leg on the row. The
// row itself stays for the audit trail.
func (e *StrategyEngine) cancelEntryLeg(ctx context.Context, row *domain.Order) {
	if err := e.venue.CancelOrder(ctx, row.EntryOrderID); err != nil {
		e.logger.Warn("cancel entry order failed",
			zap.String("order_id", row.EntryOrderID), zap.Error(err))
	}
	row.EntryOrderID = ""
	row.EntryPrice = 0
	row.EntryOrderStatus = domain.StatusCancelled
	if err := e.orders.UpdateOrder(ctx, row); err != nil {
		e.logger.Error("recording entry cancel failed", zap.Error(err))
	}
}

func (e *StrategyEngine) cancelExitLeg(ctx context.Context, row *domain.Order) {
	if err := e.venue.CancelOrder(ctx, row.ExitOrderID); err != nil {
		e.logger.Warn("cancel exit order failed",
			zap.String("order_id", row.ExitOrderID), zap.Error(err))
	}
	row.ExitOrderID = ""
	row.ExitPrice = 0
	row.ExitOrderStatus = domain.StatusCancelled
	if err := e.orders.UpdateOrder(ctx, row); err != nil {
		e.logger.Error("recording exit cancel failed", zap.Error(err))
	}
}

// cancelAllPending cancels every resting order of the strategy, used on flip
// and on stop.
func (e *StrategyEngine) cancelAllPending(ctx context.Context) {
	rows, err := e.orders.ListPendingOrders(ctx, e.strategy.ID)
	if err != nil {
		e.logger.Error("listing pending orders failed", zap.Error(err))
		return
	}
	for _, row := range rows {
		if row.ExitOrderID != "" && row.ExitOrderStatus == domain.StatusPending {
			e.cancelExitLeg(ctx, row)
		} else if row.EntryOrderStatus == domain.StatusPending {
			e.cancelEntryLeg(ctx, row)
		}
	}
	e.mu.Lock()
	e.pendingEntry = nil
	e.pendingExit = nil
	e.mu.Unlock()
}

// placeOrder submits one order with retries: transient faults retry on a
// fixed cadence, anything else aborts immediately.
func (e *StrategyEngine) placeOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResponse, error) {
	op := func() (*domain.OrderResponse, error) {
		resp, err := e.venue.PlaceOrder(ctx, req)
		if err != nil {
			if domain.IsTransient(err) {
				e.logger.Warn("order placement failed, retrying",
					zap.String("symbol", req.Symbol), zap.Error(err))
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return resp, nil
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(orderRetryDelay)),
		backoff.WithMaxTries(orderRetryAttempts))
}

// cleanup runs on every exit path: cancel resting orders, flatten, release
// the stream, mark the strategy inactive.
func (e *StrategyEngine) cleanup() {
	// the run context may already be cancelled; cleanup gets its own bound
	cctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	e.cancelAllPending(cctx)
	if err := e.venue.ExitAllPositions(cctx); err != nil {
		e.logger.Warn("exit all positions on shutdown failed", zap.Error(err))
	}
	e.stream.Stop()
	if err := e.strategies.SetActive(cctx, e.strategy.ID, false); err != nil {
		e.logger.Error("marking strategy inactive failed", zap.Error(err))
	}
	e.logger.Info("strategy engine stopped", zap.String("strategy_id", e.strategy.ID))
}
