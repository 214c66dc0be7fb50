package storage

import (
	"context"
	"errors"

	"github.com/ignitecall/ignitecall/internal/model"
	"github.com/ignitecall/ignitecall/libs/db"
	"github.com/jackc/pgx/v5"
)

// AccountRepository stores OAuth credentials for connected calendar
// providers.
type AccountRepository struct {
	pool *db.Pool
}

func NewAccountRepository(pool *db.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) Upsert(ctx context.Context, a model.CalendarAccount) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (user_id, provider, access_token, refresh_token, expiry)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, provider) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    refresh_token = EXCLUDED.refresh_token,
		    expiry = EXCLUDED.expiry
	`, a.UserID, a.Provider, a.AccessToken, a.RefreshToken, a.Expiry)
	return err
}

func (r *AccountRepository) FindByUser(ctx context.Context, userID string) (model.CalendarAccount, bool, error) {
	var a model.CalendarAccount
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, provider, access_token, COALESCE(refresh_token, ''), expiry
		FROM accounts
		WHERE user_id = $1 AND provider = 'google'
	`, userID).Scan(&a.UserID, &a.Provider, &a.AccessToken, &a.RefreshToken, &a.Expiry)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.CalendarAccount{}, false, nil
	}
	if err != nil {
		return model.CalendarAccount{}, false, err
	}
	return a, true, nil
}
