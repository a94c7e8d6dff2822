package service

import (
	"context"
	"fmt"
	"math"

	apperrors "github.com/swipe-trader/internal/errors"
	"github.com/swipe-trader/internal/models"
	"github.com/swipe-trader/internal/types"
)

// WatchlistStore is the watchlist record surface
type WatchlistStore interface {
	Get(ctx context.Context, account string) (*models.Watchlist, error)
	Update(ctx context.Context, watchlist *models.Watchlist) error
}

// UserStore is the user record surface
type UserStore interface {
	Get(ctx context.Context, account string) (*models.User, error)
	UpdateDefaultAmount(ctx context.Context, account string, amount float64) (*models.User, error)
}

// BalanceProvider reports the native SOL balance of an account in lamports
type BalanceProvider interface {
	Balance(ctx context.Context, account string) (uint64, error)
}

// PortfolioValue is the aggregated valuation of an account's holdings
type PortfolioValue struct {
	Account     string  `json:"user_address"`
	TokensUSD   float64 `json:"tokens_usd"`
	SOLBalance  float64 `json:"sol_balance"`
	SOLValueUSD float64 `json:"sol_value_usd"`
	TotalUSD    float64 `json:"total_usd"`
	TokenCount  int     `json:"token_count"`
}

// WalletService serves the watchlist, user preference, and portfolio
// valuation surface.
type WalletService struct {
	users      UserStore
	portfolios PortfolioStore
	watchlists WatchlistStore
	balances   BalanceProvider
	// solPrice is the SOL/USD reference used when valuing the native
	// balance
	solPrice float64
}

// NewWalletService creates a new wallet view-model service. balances may
// be nil when no cluster endpoint is configured.
func NewWalletService(
	users UserStore,
	portfolios PortfolioStore,
	watchlists WatchlistStore,
	balances BalanceProvider,
	solReferencePrice float64,
) *WalletService {
	return &WalletService{
		users:      users,
		portfolios: portfolios,
		watchlists: watchlists,
		balances:   balances,
		solPrice:   solReferencePrice,
	}
}

// User returns the user record, creating it with defaults on first access
func (s *WalletService) User(ctx context.Context, account string) (*models.User, error) {
	if account == "" {
		return nil, apperrors.NewInvalidInputError("account", "must not be empty")
	}
	return s.users.Get(ctx, account)
}

// UpdateDefaultAmount persists the per-user default trade size
func (s *WalletService) UpdateDefaultAmount(ctx context.Context, account string, amount float64) (*models.User, error) {
	if account == "" {
		return nil, apperrors.NewInvalidInputError("account", "must not be empty")
	}
	if amount <= 0 {
		return nil, apperrors.NewInvalidInputError("amount", "must be positive")
	}
	return s.users.UpdateDefaultAmount(ctx, account, amount)
}

// Portfolio returns the account's tracked holdings
func (s *WalletService) Portfolio(ctx context.Context, account string) (*models.Portfolio, error) {
	if account == "" {
		return nil, apperrors.NewInvalidInputError("account", "must not be empty")
	}
	return s.portfolios.Get(ctx, account)
}

// Value aggregates the USD value of tracked holdings plus the native SOL
// balance when a cluster client is available.
func (s *WalletService) Value(ctx context.Context, account string) (*PortfolioValue, error) {
	portfolio, err := s.Portfolio(ctx, account)
	if err != nil {
		return nil, err
	}

	value := &PortfolioValue{
		Account:    account,
		TokenCount: len(portfolio.Entries),
	}
	for _, entry := range portfolio.Entries {
		value.TokensUSD += entry.HeldValueUSD
	}

	if s.balances != nil {
		lamports, err := s.balances.Balance(ctx, account)
		if err == nil {
			value.SOLBalance = float64(lamports) / types.LamportsPerSOL
			value.SOLValueUSD = value.SOLBalance * s.solPrice
		}
	}

	value.TotalUSD = value.TokensUSD + value.SOLValueUSD
	return value, nil
}

// Watchlist returns the account's watched tokens
func (s *WalletService) Watchlist(ctx context.Context, account string) (*models.Watchlist, error) {
	if account == "" {
		return nil, apperrors.NewInvalidInputError("account", "must not be empty")
	}
	return s.watchlists.Get(ctx, account)
}

// AddToWatchlist appends a token to the watchlist. Adding a token that is
// already present is a no-op and returns the unchanged record.
func (s *WalletService) AddToWatchlist(ctx context.Context, account string, token models.Token) (*models.Watchlist, error) {
	if account == "" {
		return nil, apperrors.NewInvalidInputError("account", "must not be empty")
	}
	if token.Address == "" {
		return nil, apperrors.NewInvalidInputError("token", "missing token address")
	}

	watchlist, err := s.watchlists.Get(ctx, account)
	if err != nil {
		return nil, err
	}
	if watchlist.Contains(token.Address) {
		return watchlist, nil
	}

	watchlist.Tokens = append(watchlist.Tokens, token)
	if err := s.watchlists.Update(ctx, watchlist); err != nil {
		return nil, err
	}
	return watchlist, nil
}

// RemoveFromWatchlist removes a token from the watchlist. Removing an
// absent token is a no-op and returns the unchanged record.
func (s *WalletService) RemoveFromWatchlist(ctx context.Context, account, address string) (*models.Watchlist, error) {
	if account == "" {
		return nil, apperrors.NewInvalidInputError("account", "must not be empty")
	}
	if address == "" {
		return nil, apperrors.NewInvalidInputError("address", "must not be empty")
	}

	watchlist, err := s.watchlists.Get(ctx, account)
	if err != nil {
		return nil, err
	}
	if !watchlist.Remove(address) {
		return watchlist, nil
	}

	if err := s.watchlists.Update(ctx, watchlist); err != nil {
		return nil, err
	}
	return watchlist, nil
}

// FormatBalance renders a token amount for display. Small non-zero
// balances get eight decimal places so dust does not round to zero; all
// other amounts use the requested precision, defaulting to two.
func FormatBalance(amount float64, decimals int) string {
	if decimals <= 0 {
		decimals = 2
	}
	if amount != 0 && math.Abs(amount) < 0.01 {
		return fmt.Sprintf("%.8f", amount)
	}
	return fmt.Sprintf("%.*f", decimals, amount)
}

// FormatPrice renders a USD price, widening precision for sub-cent prices
func FormatPrice(price float64) string {
	if price != 0 && math.Abs(price) < 0.01 {
		return fmt.Sprintf("$%.8f", price)
	}
	return fmt.Sprintf("$%.2f", price)
}

// FormatChange renders a signed 24h percentage change
func FormatChange(change float64) string {
	if change >= 0 {
		return fmt.Sprintf("+%.2f%%", change)
	}
	return fmt.Sprintf("%.2f%%", change)
}

// FormatLargeNumber abbreviates market caps and volumes for display
func FormatLargeNumber(n float64) string {
	abs := math.Abs(n)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("$%.2fB", n/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("$%.2fM", n/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("$%.2fK", n/1e3)
	default:
		return fmt.Sprintf("$%.2f", n)
	}
}
