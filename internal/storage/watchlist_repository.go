package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	apperrors "github.com/swipe-trader/internal/errors"
	"github.com/swipe-trader/internal/models"
)

// WatchlistRepository handles watchlist record persistence with the same
// JSONB document and compare-and-swap scheme as portfolios.
type WatchlistRepository struct {
	db *PostgresDB
}

// NewWatchlistRepository creates a new watchlist repository
func NewWatchlistRepository(db *PostgresDB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

// Get retrieves the watchlist for the given account, creating an empty
// record on first access.
func (r *WatchlistRepository) Get(ctx context.Context, account string) (*models.Watchlist, error) {
	watchlist, err := r.lookup(ctx, account)
	if err == nil {
		return watchlist, nil
	}
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		return nil, err
	}

	query := `
		INSERT INTO watchlists (account, tokens, version, last_updated)
		VALUES ($1, '[]'::jsonb, 0, $2)
		ON CONFLICT (account) DO NOTHING
	`
	if _, err := r.db.Pool().Exec(ctx, query, account, time.Now().UTC()); err != nil {
		return nil, apperrors.NewStoreUnavailableError("create watchlist", err)
	}

	return r.lookup(ctx, account)
}

// Update replaces the watchlist tokens under a compare-and-swap on the
// version column.
func (r *WatchlistRepository) Update(ctx context.Context, watchlist *models.Watchlist) error {
	tokensJSON, err := json.Marshal(watchlist.Tokens)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal watchlist tokens", err)
	}

	now := time.Now().UTC()
	query := `
		UPDATE watchlists
		SET tokens = $2, version = version + 1, last_updated = $3
		WHERE account = $1 AND version = $4
	`
	result, err := r.db.Pool().Exec(ctx, query, watchlist.Account, tokensJSON, now, watchlist.Version)
	if err != nil {
		return apperrors.NewStoreUnavailableError("update watchlist", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewStoreConflictError("watchlist", watchlist.Account)
	}

	watchlist.Version++
	watchlist.LastUpdated = now
	return nil
}

func (r *WatchlistRepository) lookup(ctx context.Context, account string) (*models.Watchlist, error) {
	query := `
		SELECT account, tokens, version, last_updated
		FROM watchlists
		WHERE account = $1
	`

	var watchlist models.Watchlist
	var tokensJSON []byte

	err := r.db.Pool().QueryRow(ctx, query, account).Scan(
		&watchlist.Account,
		&tokensJSON,
		&watchlist.Version,
		&watchlist.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("watchlist", account)
		}
		return nil, apperrors.NewStoreUnavailableError("get watchlist", err)
	}

	if len(tokensJSON) > 0 {
		if err := json.Unmarshal(tokensJSON, &watchlist.Tokens); err != nil {
			return nil, apperrors.NewInternalError("failed to unmarshal watchlist tokens", err)
		}
	}

	return &watchlist, nil
}
