// Package service implements the trade orchestration, token discovery,
// and portfolio view-model workflows on top of the storage repositories
// and external adapters.
package service

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/swipe-trader/internal/adapter"
	apperrors "github.com/swipe-trader/internal/errors"
	"github.com/swipe-trader/internal/logging"
	"github.com/swipe-trader/internal/models"
	"github.com/swipe-trader/internal/types"
)

// reconcileAttempts bounds the compare-and-swap retry loop on the
// portfolio record.
const reconcileAttempts = 3

// QuoteProvider is the aggregator surface the orchestrator depends on
type QuoteProvider interface {
	GetQuote(ctx context.Context, inputMint, outputMint string, amountBaseUnits uint64, slippageBps int) (*adapter.Quote, error)
	BuildSwapTransaction(ctx context.Context, quote *adapter.Quote, signerAccount string) (*adapter.SwapTransaction, error)
}

// ChainClient is the cluster surface the orchestrator depends on
type ChainClient interface {
	SignAndSubmit(ctx context.Context, unsignedTxBase64 string, signer adapter.TransactionSigner) (string, error)
	TokenDecimals(ctx context.Context, mint string) int
}

// PortfolioStore is the portfolio record surface
type PortfolioStore interface {
	Get(ctx context.Context, account string) (*models.Portfolio, error)
	Update(ctx context.Context, portfolio *models.Portfolio) error
}

// ActivityStore is the activity log surface
type ActivityStore interface {
	Append(ctx context.Context, activity *models.Activity) (*models.Activity, error)
	List(ctx context.Context, account string, limit int) ([]*models.Activity, error)
}

// TradeInput describes one requested trade. Amount is denominated in SOL
// for BUY and in token units for SELL.
type TradeInput struct {
	Account string            `json:"account"`
	Token   models.Token      `json:"token"`
	Amount  float64           `json:"amount"`
	Action  types.TradeAction `json:"action"`
}

// TradeResult is the orchestration outcome. TransactionID is empty for
// simulated fills. Warning carries non-fatal bookkeeping failures that
// occurred after the swap itself succeeded.
type TradeResult struct {
	Success       bool              `json:"success"`
	Action        types.TradeAction `json:"action"`
	FillKind      types.FillKind    `json:"fillKind"`
	FillAmount    float64           `json:"fillAmount"`
	TransactionID string            `json:"transactionId,omitempty"`
	Warning       string            `json:"warning,omitempty"`
}

// fill is the resolved outcome of the swap step, one of the two variants
// selected up front by whether a signer capability is present.
type fill struct {
	kind types.FillKind
	// realized output: token units for BUY, SOL units for SELL
	realized float64
	// tokenDelta is the portfolio mutation size in token units
	tokenDelta float64
	txID       string
}

// TradeService orchestrates a swipe into a quote, a signed swap, an
// activity entry, and a portfolio reconciliation.
type TradeService struct {
	quotes     QuoteProvider
	chain      ChainClient
	portfolios PortfolioStore
	activities ActivityStore
	// signer is the optional wallet capability; nil selects the
	// simulated fill path and the aggregator is never contacted
	signer adapter.TransactionSigner

	slippageBps int
	// solPrice is the explicit SOL/USD reference used by the simulated
	// SELL conversion
	solPrice float64

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewTradeService creates a new trade orchestrator. signer may be nil, in
// which case all trades are simulated.
func NewTradeService(
	quotes QuoteProvider,
	chain ChainClient,
	portfolios PortfolioStore,
	activities ActivityStore,
	signer adapter.TransactionSigner,
	slippageBps int,
	solReferencePrice float64,
) *TradeService {
	if slippageBps <= 0 {
		slippageBps = types.DefaultSlippageBps
	}
	return &TradeService{
		quotes:      quotes,
		chain:       chain,
		portfolios:  portfolios,
		activities:  activities,
		signer:      signer,
		slippageBps: slippageBps,
		solPrice:    solReferencePrice,
		inFlight:    make(map[string]struct{}),
	}
}

// Execute runs one trade end to end. Failures in the quote, build, or
// submit steps abort with no store writes; activity and portfolio writes
// after a known fill are best-effort and surface as warnings only.
func (s *TradeService) Execute(ctx context.Context, input *TradeInput) (*TradeResult, error) {
	if err := validateTradeInput(input); err != nil {
		return nil, err
	}

	if !s.acquire(input.Account) {
		return nil, apperrors.NewTradeInFlightError(input.Account)
	}
	defer s.release(input.Account)

	var (
		f   *fill
		err error
	)
	if s.signer == nil {
		f = s.simulateFill(input)
	} else {
		f, err = s.aggregatorFill(ctx, input)
		if err != nil {
			return nil, err
		}
	}

	result := &TradeResult{
		Success:       true,
		Action:        input.Action,
		FillKind:      f.kind,
		FillAmount:    f.realized,
		TransactionID: f.txID,
	}

	if err := s.record(ctx, input, f); err != nil {
		logging.WithFields(map[string]interface{}{
			"account": input.Account,
			"token":   input.Token.Address,
		}).WithError(err).Warn("activity recording failed after completed trade")
		result.Warning = "trade completed but activity recording failed"
	}

	if err := s.reconcile(ctx, input, f); err != nil {
		logging.WithFields(map[string]interface{}{
			"account": input.Account,
			"token":   input.Token.Address,
		}).WithError(err).Warn("portfolio reconciliation failed after completed trade")
		if result.Warning != "" {
			result.Warning += "; portfolio reconciliation failed"
		} else {
			result.Warning = "trade completed but portfolio reconciliation failed"
		}
	}

	return result, nil
}

// Activities returns the account's most recent trades, newest first
func (s *TradeService) Activities(ctx context.Context, account string, limit int) ([]*models.Activity, error) {
	if account == "" {
		return nil, apperrors.NewInvalidInputError("account", "must not be empty")
	}
	return s.activities.List(ctx, account, limit)
}

// validateTradeInput rejects bad input before any network call
func validateTradeInput(input *TradeInput) error {
	if input == nil {
		return apperrors.NewInvalidInputError("input", "missing trade input")
	}
	if input.Account == "" {
		return apperrors.NewInvalidInputError("account", "must not be empty")
	}
	if input.Amount <= 0 {
		return apperrors.NewInvalidInputError("amount", "must be positive")
	}
	if input.Token.Address == "" {
		return apperrors.NewInvalidInputError("token", "missing token address")
	}
	if input.Token.Price <= 0 {
		return apperrors.NewInvalidInputError("token", "missing token price")
	}
	if !input.Action.Valid() {
		return apperrors.NewInvalidInputError("action", "must be BUY or SELL")
	}
	return nil
}

// aggregatorFill runs the live QUOTING -> BUILDING -> SUBMITTING sequence.
// The quote's output amount is the source of truth for the realized fill,
// not the pre-trade price estimate.
func (s *TradeService) aggregatorFill(ctx context.Context, input *TradeInput) (*fill, error) {
	decimals := s.chain.TokenDecimals(ctx, input.Token.Address)

	var inputMint, outputMint string
	var amountBaseUnits uint64
	if input.Action == types.ActionBuy {
		inputMint, outputMint = types.NativeSOLMint, input.Token.Address
		amountBaseUnits = toBaseUnits(input.Amount, types.SOLDecimals)
	} else {
		inputMint, outputMint = input.Token.Address, types.NativeSOLMint
		amountBaseUnits = toBaseUnits(input.Amount, decimals)
	}

	quote, err := s.quotes.GetQuote(ctx, inputMint, outputMint, amountBaseUnits, s.slippageBps)
	if err != nil {
		return nil, err
	}

	swapTx, err := s.quotes.BuildSwapTransaction(ctx, quote, s.signer.Account())
	if err != nil {
		return nil, err
	}

	txID, err := s.chain.SignAndSubmit(ctx, swapTx.SwapTransaction, s.signer)
	if err != nil {
		return nil, err
	}

	outAmount, err := quote.OutAmountBaseUnits()
	if err != nil {
		// The swap already landed; a malformed out amount only degrades
		// bookkeeping, never rolls back the trade.
		logging.WithError(err).Warn("quote output amount unparseable, recording zero fill")
		outAmount = 0
	}

	f := &fill{kind: types.FillAggregator, txID: txID}
	if input.Action == types.ActionBuy {
		f.realized = fromBaseUnits(outAmount, decimals)
		f.tokenDelta = f.realized
	} else {
		f.realized = fromBaseUnits(outAmount, types.SOLDecimals)
		f.tokenDelta = input.Amount
	}
	return f, nil
}

// simulateFill computes a fill from the token's listed price without
// contacting the aggregator. BUY fills are amount/price token units; SELL
// fills convert token value to SOL through the explicit reference price.
func (s *TradeService) simulateFill(input *TradeInput) *fill {
	f := &fill{kind: types.FillSimulated}
	if input.Action == types.ActionBuy {
		f.realized = input.Amount / input.Token.Price
		f.tokenDelta = f.realized
	} else {
		f.realized = input.Amount * input.Token.Price / s.solPrice
		f.tokenDelta = input.Amount
	}
	return f
}

// record appends the activity entry for a known fill
func (s *TradeService) record(ctx context.Context, input *TradeInput, f *fill) error {
	_, err := s.activities.Append(ctx, &models.Activity{
		Account:       input.Account,
		Token:         input.Token,
		Action:        input.Action,
		Amount:        input.Amount,
		TransactionID: f.txID,
	})
	return err
}

// reconcile applies the portfolio mutation under a bounded
// compare-and-swap retry loop.
func (s *TradeService) reconcile(ctx context.Context, input *TradeInput, f *fill) error {
	var err error
	for attempt := 0; attempt < reconcileAttempts; attempt++ {
		var portfolio *models.Portfolio
		portfolio, err = s.portfolios.Get(ctx, input.Account)
		if err != nil {
			return err
		}

		if !applyFill(portfolio, &input.Token, input.Action, f.tokenDelta) {
			// Selling an untracked token: the store is advisory, not
			// authoritative for on-chain balance, so this is a no-op.
			return nil
		}

		err = s.portfolios.Update(ctx, portfolio)
		if err == nil {
			return nil
		}
		if !apperrors.HasCode(err, apperrors.CodeStoreConflict) {
			return err
		}
	}
	return err
}

// applyFill mutates the portfolio in memory and reports whether a write is
// needed.
func applyFill(portfolio *models.Portfolio, token *models.Token, action types.TradeAction, tokenDelta float64) bool {
	entry := portfolio.Entry(token.Address)

	if action == types.ActionBuy {
		if entry == nil {
			portfolio.Entries = append(portfolio.Entries, models.PortfolioEntry{
				Token:        *token,
				HeldAmount:   tokenDelta,
				HeldValueUSD: tokenDelta * token.Price,
			})
		} else {
			entry.HeldAmount += tokenDelta
			entry.HeldValueUSD += tokenDelta * token.Price
		}
		return true
	}

	if entry == nil {
		return false
	}

	newAmount := entry.HeldAmount - tokenDelta
	if newAmount <= types.DustEpsilon {
		portfolio.RemoveEntry(token.Address)
	} else {
		entry.HeldAmount = newAmount
		entry.HeldValueUSD = newAmount * token.Price
	}
	return true
}

func (s *TradeService) acquire(account string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.inFlight[account]; held {
		return false
	}
	s.inFlight[account] = struct{}{}
	return true
}

func (s *TradeService) release(account string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, account)
}

// toBaseUnits converts a human-denominated amount into base units at the
// given decimal scale, truncating sub-unit dust.
func toBaseUnits(amount float64, decimals int) uint64 {
	d := decimal.NewFromFloat(amount).Shift(int32(decimals)).Truncate(0)
	return d.BigInt().Uint64()
}

// fromBaseUnits converts base units back to a human-denominated amount
func fromBaseUnits(amount uint64, decimals int) float64 {
	f, _ := decimal.NewFromUint64(amount).Shift(int32(-decimals)).Float64()
	return f
}
