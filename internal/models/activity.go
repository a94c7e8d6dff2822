package models

import (
	"time"

	"github.com/swipe-trader/internal/types"
)

// Activity is an append-only record of a completed trade. Amount is
// denominated in SOL for BUY and in token units for SELL. TransactionID is
// empty for simulated fills.
type Activity struct {
	ID            string            `json:"id" db:"id"`
	Account       string            `json:"user_address" db:"account"`
	Token         Token             `json:"token" db:"token"`
	Action        types.TradeAction `json:"action" db:"action"`
	Amount        float64           `json:"amount" db:"amount"`
	TransactionID string            `json:"transaction_id,omitempty" db:"transaction_id"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
}
