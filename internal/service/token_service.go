package service

import (
	"context"

	apperrors "github.com/swipe-trader/internal/errors"
	"github.com/swipe-trader/internal/logging"
	"github.com/swipe-trader/internal/models"
)

// TokenDiscovery is the market data surface for trending and per-token
// lookups.
type TokenDiscovery interface {
	TrendingTokens(ctx context.Context) ([]models.Token, error)
	TokenByAddress(ctx context.Context, address string) (*models.Token, error)
}

// TrendingCache is the snapshot cache in front of the discovery provider
type TrendingCache interface {
	GetTrending(ctx context.Context) ([]models.Token, error)
	SetTrending(ctx context.Context, tokens []models.Token) error
	InvalidateTrending(ctx context.Context) error
}

// TokenService serves token discovery, caching trending snapshots so the
// swipe deck does not hit the market data provider on every request.
type TokenService struct {
	discovery TokenDiscovery
	cache     TrendingCache
}

// NewTokenService creates a new token discovery service. cache may be nil
// to disable caching.
func NewTokenService(discovery TokenDiscovery, cache TrendingCache) *TokenService {
	return &TokenService{discovery: discovery, cache: cache}
}

// Trending returns the current trending token list. Cache and discovery
// failures degrade to the static fallback list rather than an error, so
// the deck is never empty.
func (s *TokenService) Trending(ctx context.Context) []models.Token {
	if s.cache != nil {
		cached, err := s.cache.GetTrending(ctx)
		if err != nil {
			logging.WithError(err).Warn("trending cache read failed")
		} else if cached != nil {
			return cached
		}
	}

	tokens, err := s.discovery.TrendingTokens(ctx)
	if err != nil {
		logging.WithError(err).Warn("token discovery failed, serving fallback list")
		// TrendingTokens already returns the fallback set alongside the
		// error; never cache it as a live snapshot
		return tokens
	}

	if s.cache != nil {
		if err := s.cache.SetTrending(ctx, tokens); err != nil {
			logging.WithError(err).Warn("trending cache write failed")
		}
	}
	return tokens
}

// RefreshTrending drops the cached snapshot and fetches a fresh list
func (s *TokenService) RefreshTrending(ctx context.Context) []models.Token {
	if s.cache != nil {
		if err := s.cache.InvalidateTrending(ctx); err != nil {
			logging.WithError(err).Warn("trending cache invalidation failed")
		}
	}
	return s.Trending(ctx)
}

// TokenByAddress looks up a single token by mint address
func (s *TokenService) TokenByAddress(ctx context.Context, address string) (*models.Token, error) {
	if address == "" {
		return nil, apperrors.NewInvalidInputError("address", "must not be empty")
	}
	return s.discovery.TokenByAddress(ctx, address)
}
