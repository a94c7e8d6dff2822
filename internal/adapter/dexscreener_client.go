package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	apperrors "github.com/swipe-trader/internal/errors"
	"github.com/swipe-trader/internal/logging"
	"github.com/swipe-trader/internal/models"
	"github.com/swipe-trader/internal/types"
)

const (
	trendingQuery     = "raydium"
	maxTrendingTokens = 20
	solanaChainID     = "solana"
	raydiumDexID      = "raydium"
)

// dexScreenerPair mirrors the DexScreener pair schema, trimmed to the
// fields the service maps.
type dexScreenerPair struct {
	ChainID   string `json:"chainId"`
	DexID     string `json:"dexId"`
	URL       string `json:"url"`
	BaseToken struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	PriceUsd    string `json:"priceUsd"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	MarketCap     float64 `json:"marketCap"`
	PairCreatedAt int64   `json:"pairCreatedAt"`
	Info          struct {
		ImageURL string `json:"imageUrl"`
	} `json:"info"`
}

type dexScreenerResponse struct {
	Pairs []dexScreenerPair `json:"pairs"`
}

// DexScreenerClient fetches trending Solana token descriptors from the
// DexScreener API.
type DexScreenerClient struct {
	baseURL string
	client  *http.Client
}

// NewDexScreenerClient creates a new DexScreener API client
func NewDexScreenerClient(baseURL string, timeout time.Duration) *DexScreenerClient {
	return &DexScreenerClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// TrendingTokens returns up to 20 Solana/Raydium token snapshots sorted by
// 24h volume descending. On provider failure it returns the fixed fallback
// set rather than an empty list, so the caller always has descriptors to
// show.
func (c *DexScreenerClient) TrendingTokens(ctx context.Context) ([]models.Token, error) {
	endpoint := fmt.Sprintf("%s/latest/dex/search?q=%s", c.baseURL, trendingQuery)

	pairs, err := c.fetchPairs(ctx, endpoint)
	if err != nil {
		logging.WithError(err).Warn("token discovery failed, serving fallback set")
		return FallbackTokens(), apperrors.NewDiscoveryUnavailableError(err)
	}

	var tokens []models.Token
	for i := range pairs {
		token, ok := mapPair(&pairs[i])
		if !ok {
			continue
		}
		tokens = append(tokens, token)
		if len(tokens) == maxTrendingTokens {
			break
		}
	}

	if len(tokens) == 0 {
		return FallbackTokens(), apperrors.NewDiscoveryUnavailableError(fmt.Errorf("no solana raydium pairs in response"))
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		return volume(tokens[i]) > volume(tokens[j])
	})

	return tokens, nil
}

// TokenByAddress returns the snapshot for a single token, or a not found
// error when no Raydium pair exists for it.
func (c *DexScreenerClient) TokenByAddress(ctx context.Context, address string) (*models.Token, error) {
	endpoint := fmt.Sprintf("%s/latest/dex/tokens/%s", c.baseURL, address)

	pairs, err := c.fetchPairs(ctx, endpoint)
	if err != nil {
		return nil, apperrors.NewDiscoveryUnavailableError(err)
	}

	for i := range pairs {
		if pairs[i].BaseToken.Address != address {
			continue
		}
		if token, ok := mapPair(&pairs[i]); ok {
			return &token, nil
		}
	}

	return nil, apperrors.NewNotFoundError("token", address)
}

func (c *DexScreenerClient) fetchPairs(ctx context.Context, endpoint string) ([]dexScreenerPair, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dexscreener api returned status %d", resp.StatusCode)
	}

	var result dexScreenerResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode dexscreener response: %w", err)
	}

	return result.Pairs, nil
}

// mapPair converts a DexScreener pair to a token snapshot, rejecting pairs
// outside Solana/Raydium or without a usable price.
func mapPair(pair *dexScreenerPair) (models.Token, bool) {
	if pair.ChainID != solanaChainID || pair.DexID != raydiumDexID {
		return models.Token{}, false
	}
	if pair.BaseToken.Address == "" || pair.PriceUsd == "" {
		return models.Token{}, false
	}

	price, err := strconv.ParseFloat(pair.PriceUsd, 64)
	if err != nil || price < 0 {
		return models.Token{}, false
	}

	name := pair.BaseToken.Name
	if name == "" {
		name = pair.BaseToken.Symbol
	}

	logo := pair.Info.ImageURL
	if logo == "" {
		logo = tokenListLogo(pair.BaseToken.Address)
	}

	token := models.Token{
		Address: pair.BaseToken.Address,
		Name:    name,
		Symbol:  pair.BaseToken.Symbol,
		LogoURI: logo,
		Price:   price,
		URL:     pair.URL,
	}

	change := pair.PriceChange.H24
	token.Change24h = &change
	if pair.MarketCap > 0 {
		mc := pair.MarketCap
		token.MarketCap = &mc
	}
	vol := pair.Volume.H24
	token.Volume24h = &vol
	if pair.Liquidity.USD > 0 {
		liq := pair.Liquidity.USD
		token.Liquidity = &liq
	}
	if pair.PairCreatedAt > 0 {
		created := time.Unix(pair.PairCreatedAt, 0).UTC()
		token.CreatedAt = &created
	}

	return token, true
}

func volume(t models.Token) float64 {
	if t.Volume24h == nil {
		return 0
	}
	return *t.Volume24h
}

func tokenListLogo(address string) string {
	return fmt.Sprintf("https://raw.githubusercontent.com/solana-labs/token-list/main/assets/mainnet/%s/logo.png", address)
}

// FallbackTokens is the fixed descriptor set served when discovery is
// unavailable. Never empty.
func FallbackTokens() []models.Token {
	solChange, rayChange := 5.2, -68.8
	solMc, rayMc := 41_200_000_000.0, 645_000_000.0
	solVol, rayVol := 2_100_000_000.0, 45_000_000.0

	return []models.Token{
		{
			Address:   types.NativeSOLMint,
			Name:      "Solana",
			Symbol:    "SOL",
			LogoURI:   tokenListLogo(types.NativeSOLMint),
			Price:     89.42,
			Change24h: &solChange,
			MarketCap: &solMc,
			Volume24h: &solVol,
		},
		{
			Address:   "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R",
			Name:      "Raydium",
			Symbol:    "RAY",
			LogoURI:   tokenListLogo("4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R"),
			Price:     10.3041,
			Change24h: &rayChange,
			MarketCap: &rayMc,
			Volume24h: &rayVol,
		},
	}
}
