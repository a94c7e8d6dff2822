// Package models provides data models for the swipe-trader system.
package models

import "time"

// Token represents an immutable snapshot of a tradable asset as reported
// by the discovery provider or the aggregator. Snapshots are replaced
// wholesale on refresh, never mutated.
type Token struct {
	Address   string     `json:"address" db:"address"`
	Name      string     `json:"name" db:"name"`
	Symbol    string     `json:"symbol" db:"symbol"`
	LogoURI   string     `json:"logo" db:"logo_uri"`
	Price     float64    `json:"price" db:"price"`
	Change24h *float64   `json:"change_24h,omitempty" db:"change_24h"`
	MarketCap *float64   `json:"market_cap,omitempty" db:"market_cap"`
	Volume24h *float64   `json:"volume_24h,omitempty" db:"volume_24h"`
	Liquidity *float64   `json:"liquidity,omitempty" db:"liquidity"`
	CreatedAt *time.Time `json:"createdAt,omitempty" db:"created_at"`
	URL       string     `json:"url,omitempty" db:"url"`
}

// PortfolioEntry is a Token extended with holding quantities. HeldAmount
// and HeldValueUSD are always written together; value is a snapshot of
// amount x price at the time of the last trade, not a live valuation.
type PortfolioEntry struct {
	Token
	HeldAmount   float64 `json:"amount" db:"held_amount"`
	HeldValueUSD float64 `json:"value_usd" db:"held_value_usd"`
}
