package domain

import "context"

// Order types and sides as the venue encodes them.
const (
	OrderTypeLimit  = 1
	OrderTypeMarket = 2

	SideBuy  = 1
	SideSell = -1
)

// OrderRequest is one order submission to the venue.
type OrderRequest struct {
	Symbol      string  `json:"symbol"`
	Qty         int     `json:"qty"`
	Type        int     `json:"type"` // 1 limit, 2 market
	Side        int     `json:"side"` // 1 buy, -1 sell
	ProductType string  `json:"productType"`
	LimitPrice  float64 `json:"limitPrice,omitempty"`
	Validity    string  `json:"validity"`
}

// OrderResponse is the venue's answer to an order submission.
type OrderResponse struct {
	OrderID string
	Status  string
	Message string
}

// Venue is the trading-venue API. Every call is a network call subject to
// transient failure; implementations tag errors with an ErrorKind.
type Venue interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (*OrderResponse, error)
	CancelOrder(ctx context.Context, orderID string) error
	ExitAllPositions(ctx context.Context) error
	GetQuote(ctx context.Context, symbols []string) (map[string]float64, error)
	GetOptionChain(ctx context.Context, index, expiry string, strikeCount int) (*OptionChain, error)
	GetOrderTradedPrice(ctx context.Context, orderID string) (float64, error)
}

// OrderStream is one persistent subscription to the venue's order-update
// channel. Exactly one reader consumes Updates.
type OrderStream interface {
	// CheckAndStart connects only if not already connected; cheap to call
	// before every wait-for-confirmation phase.
	CheckAndStart() error
	Subscribe() error
	Unsubscribe() error
	Updates() <-chan OrderUpdate
	// Fatal delivers at most one error, after reconnect attempts are
	// exhausted. The strategy cannot proceed without fills past that point.
	Fatal() <-chan error
	Stop()
}

// InstrumentResolver selects a tradable option from the chain by signed
// strike distance and direction.
type InstrumentResolver interface {
	Resolve(ctx context.Context, index, expiry string, strikeDistance int, direction string) (*Instrument, error)
}

// StrategyRepository defines storage operations for strategies.
type StrategyRepository interface {
	SaveStrategy(ctx context.Context, s *Strategy) error
	GetStrategy(ctx context.Context, id string) (*Strategy, error)
	ListStrategies(ctx context.Context) ([]*Strategy, error)
	// UpdateInstruments persists the instrument swap performed on flip.
	UpdateInstruments(ctx context.Context, id, mainInstrument, hedgingInstrument, strikeDirection string) error
	SetActive(ctx context.Context, id string, active bool) error
}

// LevelRepository defines storage operations for ladder levels. The batch
// calls are atomic: either every level in the slice is written or none.
type LevelRepository interface {
	// GetLevelsByStrategy returns the ladder ordered by level number. The
	// instrument is passed explicitly: rows only match while the strategy
	// still trades that main instrument, so a concurrent flip cannot be
	// observed as a partial view.
	GetLevelsByStrategy(ctx context.Context, strategyID, instrument string) ([]*Level, error)
	CreateLevels(ctx context.Context, levels []*Level) error
	UpdateLevels(ctx context.Context, levels []*Level) error
}

// OrderRepository defines storage operations for order legs.
type OrderRepository interface {
	CreateOrder(ctx context.Context, o *Order) error
	UpdateOrder(ctx context.Context, o *Order) error
	FindByEntryOrderID(ctx context.Context, entryOrderID string) (*Order, error)
	// FindOpenOrder returns the single open entry leg for (level, isMain),
	// or nil when none exists.
	FindOpenOrder(ctx context.Context, levelID int64, isMain bool) (*Order, error)
	// ListPendingOrders returns every order with a resting leg, the set
	// cancelled on stop and on flip.
	ListPendingOrders(ctx context.Context, strategyID string) ([]*Order, error)
	ListOrdersByStrategy(ctx context.Context, strategyID string) ([]*Order, error)
}

// TokenRepository holds the venue session credential.
type TokenRepository interface {
	// ActiveToken returns the active same-day token and purges stale rows.
	ActiveToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
}
