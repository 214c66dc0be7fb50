package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ignitecall/ignitecall/internal/calendarsync"
	"github.com/ignitecall/ignitecall/internal/model"
	"github.com/ignitecall/ignitecall/internal/outbox"
	"github.com/ignitecall/ignitecall/internal/scheduling"
	"github.com/ignitecall/ignitecall/libs/db"
	"github.com/jackc/pgx/v5"
)

// SchedulingRepository persists bookings. Create writes the scheduling, its
// outbox event and its calendar sync job in one transaction, so confirming a
// booking and scheduling its side effects are atomic.
type SchedulingRepository struct {
	pool            *db.Pool
	outbox          *outbox.Repository
	syncJobs        *calendarsync.Repository
	syncMaxAttempts int
}

func NewSchedulingRepository(pool *db.Pool, ob *outbox.Repository, syncJobs *calendarsync.Repository, syncMaxAttempts int) *SchedulingRepository {
	return &SchedulingRepository{
		pool:            pool,
		outbox:          ob,
		syncJobs:        syncJobs,
		syncMaxAttempts: syncMaxAttempts,
	}
}

func (r *SchedulingRepository) Create(ctx context.Context, s model.Scheduling) error {
	return r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO schedulings (id, user_id, date, name, email, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, s.ID, s.UserID, s.Date, s.Name, s.Email, s.Notes, s.CreatedAt)
		if uniqueViolation(err, "schedulings_user_id_date_key") {
			return scheduling.ErrSlotTaken
		}
		if err != nil {
			return err
		}

		payload, err := json.Marshal(map[string]any{
			"scheduling_id": s.ID,
			"user_id":       s.UserID,
			"date":          s.Date.UTC().Format(time.RFC3339),
			"name":          s.Name,
			"email":         s.Email,
		})
		if err != nil {
			return err
		}
		if err := r.outbox.Insert(ctx, tx, outbox.Event{
			AggregateType: "scheduling",
			AggregateID:   s.ID,
			EventType:     outbox.EventSchedulingCreated,
			Payload:       payload,
		}); err != nil {
			return err
		}

		return r.syncJobs.Insert(ctx, tx, s.ID, r.syncMaxAttempts)
	})
}

func (r *SchedulingRepository) FindByUserAndDate(ctx context.Context, userID string, date time.Time) (model.Scheduling, bool, error) {
	var s model.Scheduling
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, date, name, email, COALESCE(notes, ''), created_at
		FROM schedulings
		WHERE user_id = $1 AND date = $2
	`, userID, date).Scan(&s.ID, &s.UserID, &s.Date, &s.Name, &s.Email, &s.Notes, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Scheduling{}, false, nil
	}
	if err != nil {
		return model.Scheduling{}, false, err
	}
	return s, true, nil
}

func (r *SchedulingRepository) FindByUserAndDateRange(ctx context.Context, userID string, from, to time.Time) ([]model.Scheduling, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, date, name, email, COALESCE(notes, ''), created_at
		FROM schedulings
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date
	`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Scheduling
	for rows.Next() {
		var s model.Scheduling
		if err := rows.Scan(&s.ID, &s.UserID, &s.Date, &s.Name, &s.Email, &s.Notes, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SchedulingRepository) CountPerDay(ctx context.Context, userID string, year int, month time.Month) (map[int]int, error) {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)

	rows, err := r.pool.Query(ctx, `
		SELECT EXTRACT(DAY FROM date)::int, COUNT(*)::int
		FROM schedulings
		WHERE user_id = $1 AND date >= $2 AND date < $3
		GROUP BY 1
	`, userID, monthStart, nextMonth)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var day, n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		counts[day] = n
	}
	return counts, rows.Err()
}

func (r *SchedulingRepository) ListUpcoming(ctx context.Context, userID string, from time.Time, limit int) ([]scheduling.SchedulingView, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.user_id, s.date, s.name, s.email, COALESCE(s.notes, ''), s.created_at,
			COALESCE(j.status, 'pending')
		FROM schedulings s
		LEFT JOIN calendar_sync_jobs j ON j.scheduling_id = s.id
		WHERE s.user_id = $1 AND s.date >= $2
		ORDER BY s.date
		LIMIT $3
	`, userID, from, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []scheduling.SchedulingView
	for rows.Next() {
		var v scheduling.SchedulingView
		if err := rows.Scan(&v.ID, &v.UserID, &v.Date, &v.Name, &v.Email, &v.Notes, &v.CreatedAt, &v.SyncStatus); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
