package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ignitecall/ignitecall/internal/model"
	"github.com/ignitecall/ignitecall/libs/db"
	"github.com/jackc/pgx/v5"
)

type IntervalRepository struct {
	pool *db.Pool
}

func NewIntervalRepository(pool *db.Pool) *IntervalRepository {
	return &IntervalRepository{pool: pool}
}

func (r *IntervalRepository) FindByUserAndWeekday(ctx context.Context, userID string, weekday time.Weekday) (model.TimeInterval, bool, error) {
	var ti model.TimeInterval
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, week_day, time_start_in_minutes, time_end_in_minutes
		FROM user_time_intervals
		WHERE user_id = $1 AND week_day = $2
	`, userID, int(weekday)).Scan(&ti.ID, &ti.UserID, &ti.WeekDay, &ti.StartMinutes, &ti.EndMinutes)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.TimeInterval{}, false, nil
	}
	if err != nil {
		return model.TimeInterval{}, false, err
	}
	return ti, true, nil
}

func (r *IntervalRepository) FindAllByUser(ctx context.Context, userID string) ([]model.TimeInterval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, week_day, time_start_in_minutes, time_end_in_minutes
		FROM user_time_intervals
		WHERE user_id = $1
		ORDER BY week_day
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var intervals []model.TimeInterval
	for rows.Next() {
		var ti model.TimeInterval
		if err := rows.Scan(&ti.ID, &ti.UserID, &ti.WeekDay, &ti.StartMinutes, &ti.EndMinutes); err != nil {
			return nil, err
		}
		intervals = append(intervals, ti)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return intervals, nil
}

func (r *IntervalRepository) Replace(ctx context.Context, userID string, intervals []model.TimeInterval) error {
	return r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			DELETE FROM user_time_intervals WHERE user_id = $1
		`, userID); err != nil {
			return err
		}
		for _, ti := range intervals {
			if _, err := tx.Exec(ctx, `
				INSERT INTO user_time_intervals (id, user_id, week_day, time_start_in_minutes, time_end_in_minutes)
				VALUES ($1, $2, $3, $4, $5)
			`, ti.ID, ti.UserID, ti.WeekDay, ti.StartMinutes, ti.EndMinutes); err != nil {
				return err
			}
		}
		return nil
	})
}
