package domain

import "time"

// OrderStatus is the lifecycle state of one order leg.
type OrderStatus int

const (
	StatusNone      OrderStatus = 0
	StatusCompleted OrderStatus = 1
	StatusPending   OrderStatus = 2
	StatusCancelled OrderStatus = 3
)

// StatusFromVenue maps a venue order-state string onto an OrderStatus.
func StatusFromVenue(state string) OrderStatus {
	switch state {
	case "Filled":
		return StatusCompleted
	case "PreSubmitted", "Submitted", "PendingSubmit":
		return StatusPending
	case "Cancelled":
		return StatusCancelled
	}
	return StatusNone
}

// Order is one leg of one level: either the main leg or the hedge leg
// (IsMain), holding both its entry and exit sides. Cancellation is a status
// transition, rows are never deleted.
type Order struct {
	ID               int64
	LevelID          int64
	EntryOrderID     string
	EntryOrderStatus OrderStatus
	ExitOrderID      string
	ExitOrderStatus  OrderStatus
	OrderSide        string // "buy" or "sell"
	IsEntry          bool
	IsComplete       bool
	IsMain           bool
	OrderQuantity    int
	EntryPrice       float64
	ExitPrice        float64
	EntryTime        time.Time
	ExitTime         time.Time
}

// OrderUpdate is one message from the venue's order-update stream.
type OrderUpdate struct {
	OrderID     string  `json:"id"`
	Status      string  `json:"status"`
	TradedPrice float64 `json:"tradedPrice"`
}

// AccessToken is the venue session credential. At most one active same-day
// token is valid; prior-day tokens are purged on lookup.
type AccessToken struct {
	Token     string
	IsActive  bool
	CreatedAt time.Time
}
