// Package adapter provides clients for the external systems the service
// delegates to: the Jupiter swap aggregator, the DexScreener discovery
// API, and the Solana RPC endpoint.
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apperrors "github.com/swipe-trader/internal/errors"
)

// Quote is the aggregator's answer for a (input, output, amount) triple.
// Amounts are base-unit integers encoded as strings on the wire; quotes
// expire, so a quote is never reused across orchestrations.
type Quote struct {
	InputMint            string      `json:"inputMint"`
	OutputMint           string      `json:"outputMint"`
	InAmount             string      `json:"inAmount"`
	OutAmount            string      `json:"outAmount"`
	OtherAmountThreshold string      `json:"otherAmountThreshold"`
	SwapMode             string      `json:"swapMode"`
	SlippageBps          int         `json:"slippageBps"`
	PriceImpactPct       string      `json:"priceImpactPct"`
	RoutePlan            []RouteStep `json:"routePlan"`
}

// RouteStep is one hop of the aggregator's routing plan
type RouteStep struct {
	SwapInfo struct {
		AmmKey     string `json:"ammKey"`
		Label      string `json:"label"`
		InputMint  string `json:"inputMint"`
		OutputMint string `json:"outputMint"`
		InAmount   string `json:"inAmount"`
		OutAmount  string `json:"outAmount"`
	} `json:"swapInfo"`
	Percent int `json:"percent"`
}

// OutAmountBaseUnits parses the quote's output amount
func (q *Quote) OutAmountBaseUnits() (uint64, error) {
	return strconv.ParseUint(q.OutAmount, 10, 64)
}

// SwapTransaction is the buildable, still-unsigned swap returned by the
// aggregator.
type SwapTransaction struct {
	SwapTransaction      string `json:"swapTransaction"` // base64
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

// JupiterClient talks to the Jupiter v6 quote/swap API.
type JupiterClient struct {
	baseURL string
	client  *http.Client
}

// NewJupiterClient creates a new Jupiter API client
func NewJupiterClient(baseURL string, timeout time.Duration) *JupiterClient {
	return &JupiterClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// GetQuote requests a quote for swapping amountBaseUnits of inputMint into
// outputMint within the given slippage tolerance.
func (c *JupiterClient) GetQuote(ctx context.Context, inputMint, outputMint string, amountBaseUnits uint64, slippageBps int) (*Quote, error) {
	params := url.Values{}
	params.Set("inputMint", inputMint)
	params.Set("outputMint", outputMint)
	params.Set("amount", strconv.FormatUint(amountBaseUnits, 10))
	params.Set("slippageBps", strconv.Itoa(slippageBps))

	endpoint := fmt.Sprintf("%s/quote?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewQuoteUnavailableError(err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.NewQuoteUnavailableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperrors.NewQuoteUnavailableError(
			fmt.Errorf("quote api returned status %d: %s", resp.StatusCode, string(body)))
	}

	var quote Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, apperrors.NewQuoteUnavailableError(fmt.Errorf("failed to decode quote: %w", err))
	}

	if quote.OutAmount == "" {
		return nil, apperrors.NewQuoteUnavailableError(fmt.Errorf("quote missing output amount"))
	}

	return &quote, nil
}

// BuildSwapTransaction converts a quote into an unsigned transaction for
// the given signer account. Native SOL is wrapped and unwrapped
// automatically.
func (c *JupiterClient) BuildSwapTransaction(ctx context.Context, quote *Quote, signerAccount string) (*SwapTransaction, error) {
	payload := map[string]interface{}{
		"quoteResponse":    quote,
		"userPublicKey":    signerAccount,
		"wrapAndUnwrapSol": true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.NewBuildFailedError(err)
	}

	endpoint := fmt.Sprintf("%s/swap", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewBuildFailedError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.NewBuildFailedError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperrors.NewBuildFailedError(
			fmt.Errorf("swap api returned status %d: %s", resp.StatusCode, string(respBody)))
	}

	var swapTx SwapTransaction
	if err := json.NewDecoder(resp.Body).Decode(&swapTx); err != nil {
		return nil, apperrors.NewBuildFailedError(fmt.Errorf("failed to decode swap transaction: %w", err))
	}

	if swapTx.SwapTransaction == "" {
		return nil, apperrors.NewBuildFailedError(fmt.Errorf("swap response missing transaction"))
	}

	return &swapTx, nil
}
