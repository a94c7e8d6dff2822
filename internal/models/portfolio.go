package models

import "time"

// Portfolio holds a user's tracked positions, keyed by token address with
// no duplicates. Version is an optimistic-concurrency token incremented on
// every write; repository updates compare-and-swap on it.
type Portfolio struct {
	Account     string           `json:"user_address" db:"account"`
	Entries     []PortfolioEntry `json:"tokens" db:"entries"`
	Version     int64            `json:"-" db:"version"`
	LastUpdated time.Time        `json:"updated_at" db:"last_updated"`
}

// Entry returns a pointer to the entry for the given token address, or nil
// if the portfolio does not track it.
func (p *Portfolio) Entry(address string) *PortfolioEntry {
	for i := range p.Entries {
		if p.Entries[i].Address == address {
			return &p.Entries[i]
		}
	}
	return nil
}

// RemoveEntry deletes the entry for the given token address, preserving
// the order of the remaining entries.
func (p *Portfolio) RemoveEntry(address string) {
	for i := range p.Entries {
		if p.Entries[i].Address == address {
			p.Entries = append(p.Entries[:i], p.Entries[i+1:]...)
			return
		}
	}
}
