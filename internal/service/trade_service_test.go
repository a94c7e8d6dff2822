package service

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/swipe-trader/internal/adapter"
	apperrors "github.com/swipe-trader/internal/errors"
	"github.com/swipe-trader/internal/models"
	"github.com/swipe-trader/internal/types"
)

// Mock stores and adapters for testing

type mockPortfolioStore struct {
	mu         sync.Mutex
	portfolios map[string]*models.Portfolio
	updateErr  error
	// conflictsLeft forces the next N updates to fail with STORE_CONFLICT
	conflictsLeft int
	updateCalls   int
}

func newMockPortfolioStore() *mockPortfolioStore {
	return &mockPortfolioStore{portfolios: make(map[string]*models.Portfolio)}
}

func (m *mockPortfolioStore) Get(ctx context.Context, account string) (*models.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.portfolios[account]; ok {
		copied := *p
		copied.Entries = append([]models.PortfolioEntry(nil), p.Entries...)
		return &copied, nil
	}
	return &models.Portfolio{Account: account, Entries: []models.PortfolioEntry{}}, nil
}

func (m *mockPortfolioStore) Update(ctx context.Context, portfolio *models.Portfolio) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.conflictsLeft > 0 {
		m.conflictsLeft--
		return apperrors.NewStoreConflictError("portfolio", portfolio.Account)
	}
	if m.updateErr != nil {
		return m.updateErr
	}
	copied := *portfolio
	copied.Version++
	m.portfolios[portfolio.Account] = &copied
	return nil
}

type mockActivityStore struct {
	mu         sync.Mutex
	activities []*models.Activity
	appendErr  error
}

func (m *mockActivityStore) Append(ctx context.Context, activity *models.Activity) (*models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return nil, m.appendErr
	}
	activity.CreatedAt = time.Now().UTC()
	m.activities = append(m.activities, activity)
	return activity, nil
}

func (m *mockActivityStore) List(ctx context.Context, account string, limit int) ([]*models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Activity
	for i := len(m.activities) - 1; i >= 0 && len(out) < limit; i-- {
		if m.activities[i].Account == account {
			out = append(out, m.activities[i])
		}
	}
	return out, nil
}

type mockQuoteProvider struct {
	quoteErr  error
	buildErr  error
	outAmount string
	lastQuote *adapter.Quote
}

func (m *mockQuoteProvider) GetQuote(ctx context.Context, inputMint, outputMint string, amountBaseUnits uint64, slippageBps int) (*adapter.Quote, error) {
	if m.quoteErr != nil {
		return nil, m.quoteErr
	}
	m.lastQuote = &adapter.Quote{
		InputMint:   inputMint,
		OutputMint:  outputMint,
		InAmount:    "1000000",
		OutAmount:   m.outAmount,
		SlippageBps: slippageBps,
	}
	return m.lastQuote, nil
}

func (m *mockQuoteProvider) BuildSwapTransaction(ctx context.Context, quote *adapter.Quote, signerAccount string) (*adapter.SwapTransaction, error) {
	if m.buildErr != nil {
		return nil, m.buildErr
	}
	return &adapter.SwapTransaction{SwapTransaction: "dGVzdA==", LastValidBlockHeight: 100}, nil
}

type mockChainClient struct {
	submitErr error
	decimals  int
	txID      string
}

func (m *mockChainClient) SignAndSubmit(ctx context.Context, unsignedTxBase64 string, signer adapter.TransactionSigner) (string, error) {
	if m.submitErr != nil {
		return "", m.submitErr
	}
	return m.txID, nil
}

func (m *mockChainClient) TokenDecimals(ctx context.Context, mint string) int {
	if m.decimals == 0 {
		return types.DefaultTokenDecimals
	}
	return m.decimals
}

type mockSigner struct{ account string }

func (m *mockSigner) Account() string { return m.account }

func (m *mockSigner) SignAndSend(ctx context.Context, tx *solana.Transaction) (string, error) {
	return "", nil
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

var testToken = models.Token{
	Address: "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R",
	Name:    "Raydium",
	Symbol:  "RAY",
	Price:   10.0,
}

func newSimulatedService(portfolios *mockPortfolioStore, activities *mockActivityStore) *TradeService {
	return NewTradeService(&mockQuoteProvider{}, &mockChainClient{}, portfolios, activities, nil, 100, 89.42)
}

func TestTradeService_SimulatedBuy(t *testing.T) {
	portfolios := newMockPortfolioStore()
	activities := &mockActivityStore{}
	svc := newSimulatedService(portfolios, activities)

	result, err := svc.Execute(context.Background(), &TradeInput{
		Account: "test-account",
		Token:   testToken,
		Amount:  0.01,
		Action:  types.ActionBuy,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !result.Success {
		t.Error("Expected success")
	}
	if result.FillKind != types.FillSimulated {
		t.Errorf("Expected simulated fill, got %s", result.FillKind)
	}
	if result.TransactionID != "" {
		t.Errorf("Simulated fill should have no transaction ID, got %q", result.TransactionID)
	}

	// 0.01 SOL at a $10 token price buys 0.001 tokens
	if !approxEqual(result.FillAmount, 0.001) {
		t.Errorf("Expected fill amount 0.001, got %v", result.FillAmount)
	}

	portfolio, _ := portfolios.Get(context.Background(), "test-account")
	entry := portfolio.Entry(testToken.Address)
	if entry == nil {
		t.Fatal("Expected portfolio entry after buy")
	}
	if !approxEqual(entry.HeldAmount, 0.001) {
		t.Errorf("Expected held amount 0.001, got %v", entry.HeldAmount)
	}
	if !approxEqual(entry.HeldValueUSD, 0.01) {
		t.Errorf("Expected held value 0.01, got %v", entry.HeldValueUSD)
	}

	if len(activities.activities) != 1 {
		t.Fatalf("Expected 1 activity, got %d", len(activities.activities))
	}
	if activities.activities[0].Action != types.ActionBuy {
		t.Errorf("Expected BUY activity, got %s", activities.activities[0].Action)
	}
	if activities.activities[0].Amount != 0.01 {
		t.Errorf("Activity amount should be the requested SOL amount, got %v", activities.activities[0].Amount)
	}
}

func TestTradeService_SimulatedSell(t *testing.T) {
	portfolios := newMockPortfolioStore()
	portfolios.portfolios["test-account"] = &models.Portfolio{
		Account: "test-account",
		Entries: []models.PortfolioEntry{
			{Token: testToken, HeldAmount: 5, HeldValueUSD: 50},
		},
	}
	activities := &mockActivityStore{}
	svc := newSimulatedService(portfolios, activities)

	result, err := svc.Execute(context.Background(), &TradeInput{
		Account: "test-account",
		Token:   testToken,
		Amount:  2,
		Action:  types.ActionSell,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	// Selling 2 tokens at $10 with SOL at $89.42 yields 20/89.42 SOL
	expected := 2 * 10.0 / 89.42
	if !approxEqual(result.FillAmount, expected) {
		t.Errorf("Expected fill amount %v, got %v", expected, result.FillAmount)
	}

	portfolio, _ := portfolios.Get(context.Background(), "test-account")
	entry := portfolio.Entry(testToken.Address)
	if entry == nil {
		t.Fatal("Expected remaining entry after partial sell")
	}
	if !approxEqual(entry.HeldAmount, 3) {
		t.Errorf("Expected held amount 3, got %v", entry.HeldAmount)
	}
	if !approxEqual(entry.HeldValueUSD, 30) {
		t.Errorf("Expected held value 30, got %v", entry.HeldValueUSD)
	}
}

func TestTradeService_SellRemovesDust(t *testing.T) {
	portfolios := newMockPortfolioStore()
	portfolios.portfolios["test-account"] = &models.Portfolio{
		Account: "test-account",
		Entries: []models.PortfolioEntry{
			{Token: testToken, HeldAmount: 1.0000005, HeldValueUSD: 10},
		},
	}
	svc := newSimulatedService(portfolios, &mockActivityStore{})

	_, err := svc.Execute(context.Background(), &TradeInput{
		Account: "test-account",
		Token:   testToken,
		Amount:  1,
		Action:  types.ActionSell,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	portfolio, _ := portfolios.Get(context.Background(), "test-account")
	if portfolio.Entry(testToken.Address) != nil {
		t.Error("Residual position below dust threshold should be removed")
	}
}

func TestTradeService_SellUntrackedTokenIsNoOp(t *testing.T) {
	portfolios := newMockPortfolioStore()
	activities := &mockActivityStore{}
	svc := newSimulatedService(portfolios, activities)

	result, err := svc.Execute(context.Background(), &TradeInput{
		Account: "test-account",
		Token:   testToken,
		Amount:  1,
		Action:  types.ActionSell,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Success {
		t.Error("Selling an untracked token should still succeed")
	}
	if portfolios.updateCalls != 0 {
		t.Errorf("Expected no portfolio write, got %d", portfolios.updateCalls)
	}
	if len(activities.activities) != 1 {
		t.Errorf("Activity should still be recorded, got %d entries", len(activities.activities))
	}
}

func TestTradeService_InvalidInput(t *testing.T) {
	svc := newSimulatedService(newMockPortfolioStore(), &mockActivityStore{})

	cases := []struct {
		name  string
		input *TradeInput
	}{
		{"zero amount", &TradeInput{Account: "a", Token: testToken, Amount: 0, Action: types.ActionBuy}},
		{"negative amount", &TradeInput{Account: "a", Token: testToken, Amount: -1, Action: types.ActionBuy}},
		{"empty account", &TradeInput{Account: "", Token: testToken, Amount: 1, Action: types.ActionBuy}},
		{"missing token address", &TradeInput{Account: "a", Token: models.Token{Price: 10}, Amount: 1, Action: types.ActionBuy}},
		{"missing price", &TradeInput{Account: "a", Token: models.Token{Address: "x"}, Amount: 1, Action: types.ActionBuy}},
		{"bad action", &TradeInput{Account: "a", Token: testToken, Amount: 1, Action: "HOLD"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Execute(context.Background(), tc.input)
			if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
				t.Errorf("Expected INVALID_INPUT, got %v", err)
			}
		})
	}
}

func TestTradeService_QuoteFailureAbortsWithoutWrites(t *testing.T) {
	portfolios := newMockPortfolioStore()
	activities := &mockActivityStore{}
	quotes := &mockQuoteProvider{quoteErr: apperrors.NewQuoteUnavailableError(nil)}
	chain := &mockChainClient{txID: "sig"}
	svc := NewTradeService(quotes, chain, portfolios, activities, &mockSigner{account: "signer"}, 100, 89.42)

	_, err := svc.Execute(context.Background(), &TradeInput{
		Account: "test-account",
		Token:   testToken,
		Amount:  0.01,
		Action:  types.ActionBuy,
	})
	if !apperrors.HasCode(err, apperrors.CodeQuoteUnavailable) {
		t.Fatalf("Expected QUOTE_UNAVAILABLE, got %v", err)
	}
	if len(activities.activities) != 0 {
		t.Error("Failed quote must not record an activity")
	}
	if portfolios.updateCalls != 0 {
		t.Error("Failed quote must not write the portfolio")
	}
}

func TestTradeService_SubmitFailureAbortsWithoutWrites(t *testing.T) {
	portfolios := newMockPortfolioStore()
	activities := &mockActivityStore{}
	quotes := &mockQuoteProvider{outAmount: "5000000"}
	chain := &mockChainClient{submitErr: apperrors.NewSubmitFailedError(nil)}
	svc := NewTradeService(quotes, chain, portfolios, activities, &mockSigner{account: "signer"}, 100, 89.42)

	_, err := svc.Execute(context.Background(), &TradeInput{
		Account: "test-account",
		Token:   testToken,
		Amount:  0.01,
		Action:  types.ActionBuy,
	})
	if !apperrors.HasCode(err, apperrors.CodeSubmitFailed) {
		t.Fatalf("Expected SUBMIT_FAILED, got %v", err)
	}
	if len(activities.activities) != 0 || portfolios.updateCalls != 0 {
		t.Error("Failed submit must leave no store writes")
	}
}

func TestTradeService_AggregatorBuyUsesQuoteOutAmount(t *testing.T) {
	portfolios := newMockPortfolioStore()
	activities := &mockActivityStore{}
	// 5_000_000 base units at 6 decimals is 5 tokens
	quotes := &mockQuoteProvider{outAmount: "5000000"}
	chain := &mockChainClient{decimals: 6, txID: "test-signature"}
	svc := NewTradeService(quotes, chain, portfolios, activities, &mockSigner{account: "signer"}, 100, 89.42)

	result, err := svc.Execute(context.Background(), &TradeInput{
		Account: "test-account",
		Token:   testToken,
		Amount:  0.5,
		Action:  types.ActionBuy,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.FillKind != types.FillAggregator {
		t.Errorf("Expected aggregator fill, got %s", result.FillKind)
	}
	if result.TransactionID != "test-signature" {
		t.Errorf("Expected transaction ID from submit, got %q", result.TransactionID)
	}
	if result.FillAmount != 5 {
		t.Errorf("Expected realized fill 5 tokens, got %v", result.FillAmount)
	}

	portfolio, _ := portfolios.Get(context.Background(), "test-account")
	entry := portfolio.Entry(testToken.Address)
	if entry == nil || entry.HeldAmount != 5 {
		t.Errorf("Expected held amount 5, got %+v", entry)
	}
}

func TestTradeService_AggregatorSellConvertsLamports(t *testing.T) {
	portfolios := newMockPortfolioStore()
	portfolios.portfolios["test-account"] = &models.Portfolio{
		Account: "test-account",
		Entries: []models.PortfolioEntry{
			{Token: testToken, HeldAmount: 10, HeldValueUSD: 100},
		},
	}
	// 250_000_000 lamports is 0.25 SOL
	quotes := &mockQuoteProvider{outAmount: "250000000"}
	chain := &mockChainClient{decimals: 6, txID: "sell-signature"}
	svc := NewTradeService(quotes, chain, portfolios, &mockActivityStore{}, &mockSigner{account: "signer"}, 100, 89.42)

	result, err := svc.Execute(context.Background(), &TradeInput{
		Account: "test-account",
		Token:   testToken,
		Amount:  2,
		Action:  types.ActionSell,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.FillAmount != 0.25 {
		t.Errorf("Expected realized fill 0.25 SOL, got %v", result.FillAmount)
	}

	portfolio, _ := portfolios.Get(context.Background(), "test-account")
	entry := portfolio.Entry(testToken.Address)
	if entry == nil || entry.HeldAmount != 8 {
		t.Errorf("Portfolio should decrement by the sold token amount, got %+v", entry)
	}
}

func TestTradeService_ActivityFailureIsNonFatal(t *testing.T) {
	portfolios := newMockPortfolioStore()
	activities := &mockActivityStore{appendErr: apperrors.NewStoreUnavailableError("append activity", nil)}
	svc := newSimulatedService(portfolios, activities)

	result, err := svc.Execute(context.Background(), &TradeInput{
		Account: "test-account",
		Token:   testToken,
		Amount:  0.01,
		Action:  types.ActionBuy,
	})
	if err != nil {
		t.Fatalf("Execute should not fail on activity write errors: %v", err)
	}
	if !result.Success {
		t.Error("Expected success despite activity failure")
	}
	if result.Warning == "" {
		t.Error("Expected a warning about the failed activity write")
	}

	// Portfolio reconciliation still ran
	portfolio, _ := portfolios.Get(context.Background(), "test-account")
	if portfolio.Entry(testToken.Address) == nil {
		t.Error("Portfolio should still be reconciled")
	}
}

func TestTradeService_ReconcileRetriesOnConflict(t *testing.T) {
	portfolios := newMockPortfolioStore()
	portfolios.conflictsLeft = 2
	svc := newSimulatedService(portfolios, &mockActivityStore{})

	result, err := svc.Execute(context.Background(), &TradeInput{
		Account: "test-account",
		Token:   testToken,
		Amount:  0.01,
		Action:  types.ActionBuy,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Warning != "" {
		t.Errorf("Retry within bounds should clear the conflict, got warning %q", result.Warning)
	}
	if portfolios.updateCalls != 3 {
		t.Errorf("Expected 3 update attempts, got %d", portfolios.updateCalls)
	}

	portfolio, _ := portfolios.Get(context.Background(), "test-account")
	if portfolio.Entry(testToken.Address) == nil {
		t.Error("Expected entry after retried reconcile")
	}
}

func TestTradeService_ReconcileGivesUpAfterBoundedRetries(t *testing.T) {
	portfolios := newMockPortfolioStore()
	portfolios.conflictsLeft = 10
	svc := newSimulatedService(portfolios, &mockActivityStore{})

	result, err := svc.Execute(context.Background(), &TradeInput{
		Account: "test-account",
		Token:   testToken,
		Amount:  0.01,
		Action:  types.ActionBuy,
	})
	if err != nil {
		t.Fatalf("Execute should not fail on reconcile exhaustion: %v", err)
	}
	if result.Warning == "" {
		t.Error("Expected a warning after reconcile retries were exhausted")
	}
	if portfolios.updateCalls != reconcileAttempts {
		t.Errorf("Expected %d update attempts, got %d", reconcileAttempts, portfolios.updateCalls)
	}
}

func TestTradeService_RejectsConcurrentTradeForAccount(t *testing.T) {
	svc := newSimulatedService(newMockPortfolioStore(), &mockActivityStore{})

	if !svc.acquire("busy-account") {
		t.Fatal("First acquire should succeed")
	}
	defer svc.release("busy-account")

	_, err := svc.Execute(context.Background(), &TradeInput{
		Account: "busy-account",
		Token:   testToken,
		Amount:  0.01,
		Action:  types.ActionBuy,
	})
	if !apperrors.HasCode(err, apperrors.CodeTradeInFlight) {
		t.Fatalf("Expected TRADE_IN_FLIGHT, got %v", err)
	}

	// A different account is unaffected
	if _, err := svc.Execute(context.Background(), &TradeInput{
		Account: "other-account",
		Token:   testToken,
		Amount:  0.01,
		Action:  types.ActionBuy,
	}); err != nil {
		t.Errorf("Other account should trade normally: %v", err)
	}
}
