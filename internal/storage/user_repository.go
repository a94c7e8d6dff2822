package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	apperrors "github.com/swipe-trader/internal/errors"
	"github.com/swipe-trader/internal/models"
	"github.com/swipe-trader/internal/types"
)

// UserRepository handles user record persistence, keyed by account
type UserRepository struct {
	db *PostgresDB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *PostgresDB) *UserRepository {
	return &UserRepository{db: db}
}

// Get retrieves the user for the given account, creating a default record
// on first access.
func (r *UserRepository) Get(ctx context.Context, account string) (*models.User, error) {
	user, err := r.lookup(ctx, account)
	if err == nil {
		return user, nil
	}
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		return nil, err
	}

	created := &models.User{
		Account:            account,
		DefaultTradeAmount: types.DefaultTradeAmount,
		CreatedAt:          time.Now().UTC(),
	}

	query := `
		INSERT INTO users (account, email, default_trade_amount, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account) DO NOTHING
	`
	if _, err := r.db.Pool().Exec(ctx, query,
		created.Account, created.Email, created.DefaultTradeAmount, created.CreatedAt,
	); err != nil {
		return nil, apperrors.NewStoreUnavailableError("create user", err)
	}

	// Re-read in case a concurrent first access won the insert.
	return r.lookup(ctx, account)
}

// Update replaces the stored user record
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET email = $2, default_trade_amount = $3
		WHERE account = $1
	`
	result, err := r.db.Pool().Exec(ctx, query, user.Account, user.Email, user.DefaultTradeAmount)
	if err != nil {
		return apperrors.NewStoreUnavailableError("update user", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("user", user.Account)
	}
	return nil
}

// UpdateDefaultAmount sets the user's default trade amount and returns the
// updated record. The user is created first if it does not exist yet.
func (r *UserRepository) UpdateDefaultAmount(ctx context.Context, account string, amount float64) (*models.User, error) {
	if _, err := r.Get(ctx, account); err != nil {
		return nil, err
	}

	query := `
		UPDATE users
		SET default_trade_amount = $2
		WHERE account = $1
	`
	if _, err := r.db.Pool().Exec(ctx, query, account, amount); err != nil {
		return nil, apperrors.NewStoreUnavailableError("update default amount", err)
	}

	return r.lookup(ctx, account)
}

func (r *UserRepository) lookup(ctx context.Context, account string) (*models.User, error) {
	query := `
		SELECT account, email, default_trade_amount, created_at
		FROM users
		WHERE account = $1
	`

	var user models.User
	err := r.db.Pool().QueryRow(ctx, query, account).Scan(
		&user.Account,
		&user.Email,
		&user.DefaultTradeAmount,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("user", account)
		}
		return nil, apperrors.NewStoreUnavailableError("get user", err)
	}

	return &user, nil
}
