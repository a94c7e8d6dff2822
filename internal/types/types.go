// Package types provides common type definitions for the swipe-trader system.
package types

// TradeAction represents the direction of a trade
type TradeAction string

const (
	// ActionBuy represents a buy (SOL -> token) trade
	ActionBuy TradeAction = "BUY"
	// ActionSell represents a sell (token -> SOL) trade
	ActionSell TradeAction = "SELL"
)

// Valid reports whether the action is one of the known trade actions
func (a TradeAction) Valid() bool {
	return a == ActionBuy || a == ActionSell
}

// FillKind distinguishes how a trade fill was produced
type FillKind string

const (
	// FillAggregator represents a fill executed through the swap aggregator
	FillAggregator FillKind = "aggregator"
	// FillSimulated represents a fill computed locally without a signer
	FillSimulated FillKind = "simulated"
)

const (
	// NativeSOLMint is the wrapped SOL mint address used as the quote asset
	NativeSOLMint = "So11111111111111111111111111111111111111112"

	// LamportsPerSOL is the number of base units in one SOL
	LamportsPerSOL = 1_000_000_000

	// SOLDecimals is the decimal scale of the native SOL mint
	SOLDecimals = 9

	// DefaultTokenDecimals is the fallback scale when the on-chain
	// decimals lookup fails
	DefaultTokenDecimals = 6

	// DefaultSlippageBps is the default slippage tolerance, double the
	// aggregator's own 50 bps default to reduce failed quotes on
	// volatile tokens
	DefaultSlippageBps = 100

	// DefaultTradeAmount is the default trade size in SOL for a newly
	// created user
	DefaultTradeAmount = 0.001

	// DustEpsilon is the holding size below which a portfolio entry is
	// removed
	DustEpsilon = 1e-6
)

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
