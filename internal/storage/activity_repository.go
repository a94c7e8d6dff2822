package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/swipe-trader/internal/errors"
	"github.com/swipe-trader/internal/models"
	"github.com/swipe-trader/internal/types"
)

// ActivityRepository persists the append-only trade activity log in
// ClickHouse. Records are never mutated or deleted.
type ActivityRepository struct {
	db *ClickHouseDB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *ClickHouseDB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Append persists a new activity entry, assigning an id and timestamp when
// absent, and returns the stored entry.
func (r *ActivityRepository) Append(ctx context.Context, activity *models.Activity) (*models.Activity, error) {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}

	tokenJSON, err := json.Marshal(activity.Token)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to marshal activity token", err)
	}

	query := `
		INSERT INTO activities (id, account, token, action, amount, transaction_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	err = r.db.Exec(ctx, query,
		activity.ID,
		activity.Account,
		string(tokenJSON),
		string(activity.Action),
		activity.Amount,
		activity.TransactionID,
		activity.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("append activity", err)
	}

	return activity, nil
}

// List returns the most recent activity entries for an account, newest
// first, bounded by limit.
func (r *ActivityRepository) List(ctx context.Context, account string, limit int) ([]*models.Activity, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, account, token, action, amount, transaction_id, created_at
		FROM activities
		WHERE account = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := r.db.Conn().Query(ctx, query, account, limit)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("list activities", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		var (
			activity  models.Activity
			tokenJSON string
			action    string
		)
		if err := rows.Scan(
			&activity.ID,
			&activity.Account,
			&tokenJSON,
			&action,
			&activity.Amount,
			&activity.TransactionID,
			&activity.CreatedAt,
		); err != nil {
			return nil, apperrors.NewStoreUnavailableError("scan activity", err)
		}

		if err := json.Unmarshal([]byte(tokenJSON), &activity.Token); err != nil {
			return nil, apperrors.NewInternalError("failed to unmarshal activity token", err)
		}
		activity.Action = types.TradeAction(action)

		activities = append(activities, &activity)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailableError("iterate activities", err)
	}

	return activities, nil
}
