// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/swipe-trader/internal/logging"
	"github.com/swipe-trader/internal/models"
	"github.com/swipe-trader/internal/service"
)

// Service interfaces for dependency injection and testing

// TokenServiceInterface defines the interface for token discovery operations
type TokenServiceInterface interface {
	Trending(ctx context.Context) []models.Token
	RefreshTrending(ctx context.Context) []models.Token
	TokenByAddress(ctx context.Context, address string) (*models.Token, error)
}

// TradeServiceInterface defines the interface for trade operations
type TradeServiceInterface interface {
	Execute(ctx context.Context, input *service.TradeInput) (*service.TradeResult, error)
	Activities(ctx context.Context, account string, limit int) ([]*models.Activity, error)
}

// WalletServiceInterface defines the interface for wallet view operations
type WalletServiceInterface interface {
	User(ctx context.Context, account string) (*models.User, error)
	UpdateDefaultAmount(ctx context.Context, account string, amount float64) (*models.User, error)
	Portfolio(ctx context.Context, account string) (*models.Portfolio, error)
	Value(ctx context.Context, account string) (*service.PortfolioValue, error)
	Watchlist(ctx context.Context, account string) (*models.Watchlist, error)
	AddToWatchlist(ctx context.Context, account string, token models.Token) (*models.Watchlist, error)
	RemoveFromWatchlist(ctx context.Context, account, address string) (*models.Watchlist, error)
}

// Server represents the HTTP API server.
type Server struct {
	router        *mux.Router
	httpServer    *http.Server
	tokenService  TokenServiceInterface
	tradeService  TradeServiceInterface
	walletService WalletServiceInterface
	config        *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	tokenService TokenServiceInterface,
	tradeService TradeServiceInterface,
	walletService WalletServiceInterface,
) *Server {
	s := &Server{
		router:        mux.NewRouter(),
		tokenService:  tokenService,
		tradeService:  tradeService,
		walletService: walletService,
		config:        config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst)

	// Middleware order matters
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))
	s.router.Use(CompressionMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Token discovery endpoints
	api.HandleFunc("/tokens/trending", s.handleTrendingTokens).Methods("GET")
	api.HandleFunc("/tokens/trending/refresh", s.handleRefreshTrending).Methods("POST")
	api.HandleFunc("/tokens/{address}", s.handleGetToken).Methods("GET")

	// User endpoints
	api.HandleFunc("/users/{account}", s.handleGetUser).Methods("GET")
	api.HandleFunc("/users/{account}/default-amount", s.handleUpdateDefaultAmount).Methods("PUT")

	// Portfolio endpoints
	api.HandleFunc("/portfolios/{account}", s.handleGetPortfolio).Methods("GET")
	api.HandleFunc("/portfolios/{account}/value", s.handleGetPortfolioValue).Methods("GET")

	// Watchlist endpoints
	api.HandleFunc("/watchlists/{account}", s.handleGetWatchlist).Methods("GET")
	api.HandleFunc("/watchlists/{account}/tokens", s.handleAddWatchlistToken).Methods("POST")
	api.HandleFunc("/watchlists/{account}/tokens/{address}", s.handleRemoveWatchlistToken).Methods("DELETE")

	// Trade endpoints
	api.HandleFunc("/trades", s.handleExecuteTrade).Methods("POST")
	api.HandleFunc("/activities/{account}", s.handleGetActivities).Methods("GET")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "swipe-trader",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.WithFields(map[string]interface{}{"addr": s.httpServer.Addr}).Info("starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.L().Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
