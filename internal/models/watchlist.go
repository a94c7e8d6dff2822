package models

import "time"

// Watchlist holds the set of tokens a user is watching, keyed by token
// address with no duplicates. Adding an already-present address is a
// no-op. Version follows the same compare-and-swap scheme as Portfolio.
type Watchlist struct {
	Account     string    `json:"user_address" db:"account"`
	Tokens      []Token   `json:"tokens" db:"tokens"`
	Version     int64     `json:"-" db:"version"`
	LastUpdated time.Time `json:"updated_at" db:"last_updated"`
}

// Contains reports whether the watchlist already tracks the given address.
func (w *Watchlist) Contains(address string) bool {
	for i := range w.Tokens {
		if w.Tokens[i].Address == address {
			return true
		}
	}
	return false
}

// Remove deletes the token with the given address. It returns true if an
// entry was removed.
func (w *Watchlist) Remove(address string) bool {
	for i := range w.Tokens {
		if w.Tokens[i].Address == address {
			w.Tokens = append(w.Tokens[:i], w.Tokens[i+1:]...)
			return true
		}
	}
	return false
}
