package domain

// OptionContract is one row of an option chain.
type OptionContract struct {
	Symbol      string  `json:"symbol"`
	StrikePrice float64 `json:"strike_price"`
	OptionType  string  `json:"option_type"` // "CE" or "PE"
	LTP         float64 `json:"ltp"`
}

// OptionChain is the venue's chain for one index/expiry.
type OptionChain struct {
	Index      string
	Expiry     string
	Contracts  []OptionContract
	ExpiryDate map[string]string // expiry label -> venue timestamp
}

// Instrument is a resolved tradable option and its last traded price.
type Instrument struct {
	Symbol string
	Price  float64
}
