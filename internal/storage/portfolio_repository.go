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

// PortfolioRepository handles portfolio record persistence. Each account
// owns exactly one portfolio; entries are stored as a JSONB document and
// replaced wholesale under a compare-and-swap on the version column.
type PortfolioRepository struct {
	db *PostgresDB
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *PostgresDB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// Get retrieves the portfolio for the given account, creating an empty
// record on first access.
func (r *PortfolioRepository) Get(ctx context.Context, account string) (*models.Portfolio, error) {
	portfolio, err := r.lookup(ctx, account)
	if err == nil {
		return portfolio, nil
	}
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		return nil, err
	}

	query := `
		INSERT INTO portfolios (account, entries, version, last_updated)
		VALUES ($1, '[]'::jsonb, 0, $2)
		ON CONFLICT (account) DO NOTHING
	`
	if _, err := r.db.Pool().Exec(ctx, query, account, time.Now().UTC()); err != nil {
		return nil, apperrors.NewStoreUnavailableError("create portfolio", err)
	}

	return r.lookup(ctx, account)
}

// Update replaces the portfolio entries if and only if the stored version
// matches the one the portfolio was read at. A lost race surfaces as
// STORE_CONFLICT; the caller re-reads and reapplies.
func (r *PortfolioRepository) Update(ctx context.Context, portfolio *models.Portfolio) error {
	entriesJSON, err := json.Marshal(portfolio.Entries)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal portfolio entries", err)
	}

	now := time.Now().UTC()
	query := `
		UPDATE portfolios
		SET entries = $2, version = version + 1, last_updated = $3
		WHERE account = $1 AND version = $4
	`
	result, err := r.db.Pool().Exec(ctx, query, portfolio.Account, entriesJSON, now, portfolio.Version)
	if err != nil {
		return apperrors.NewStoreUnavailableError("update portfolio", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewStoreConflictError("portfolio", portfolio.Account)
	}

	portfolio.Version++
	portfolio.LastUpdated = now
	return nil
}

func (r *PortfolioRepository) lookup(ctx context.Context, account string) (*models.Portfolio, error) {
	query := `
		SELECT account, entries, version, last_updated
		FROM portfolios
		WHERE account = $1
	`

	var portfolio models.Portfolio
	var entriesJSON []byte

	err := r.db.Pool().QueryRow(ctx, query, account).Scan(
		&portfolio.Account,
		&entriesJSON,
		&portfolio.Version,
		&portfolio.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("portfolio", account)
		}
		return nil, apperrors.NewStoreUnavailableError("get portfolio", err)
	}

	if len(entriesJSON) > 0 {
		if err := json.Unmarshal(entriesJSON, &portfolio.Entries); err != nil {
			return nil, apperrors.NewInternalError("failed to unmarshal portfolio entries", err)
		}
	}

	return &portfolio, nil
}
