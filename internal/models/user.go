package models

import "time"

// User represents a wallet-identified user. Users are created lazily on
// first lookup with the default trade amount.
type User struct {
	Account            string    `json:"account" db:"account"`
	Email              *string   `json:"email,omitempty" db:"email"`
	DefaultTradeAmount float64   `json:"default_trade_amount" db:"default_trade_amount"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}
