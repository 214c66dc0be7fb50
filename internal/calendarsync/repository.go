package calendarsync

import (
	"context"
	"time"

	"github.com/ignitecall/ignitecall/internal/model"
	otelx "github.com/ignitecall/ignitecall/libs/otel"
	"github.com/jackc/pgx/v5"
)

// Job is one pending calendar sync for a persisted scheduling. The scheduling
// fields are denormalized at fetch time so the worker can build the event
// without another round trip.
type Job struct {
	ID           int64
	SchedulingID string
	UserID       string
	Slot         time.Time
	VisitorName  string
	VisitorEmail string
	Notes        string
	Attempts     int
	MaxAttempts  int
	NextRunAt    time.Time
	Traceparent  string
	Tracestate   string
}

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// Insert enqueues a pending sync job inside the booking transaction, so a
// persisted scheduling always has a sync job and vice versa.
func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, schedulingID string, maxAttempts int) error {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	_, err := tx.Exec(ctx, `
		INSERT INTO calendar_sync_jobs (scheduling_id, max_attempts, next_run_at, traceparent, tracestate)
		VALUES ($1, $2, now(), $3, $4)
		ON CONFLICT (scheduling_id) DO NOTHING
	`, schedulingID, maxAttempts, traceparent, tracestate)
	return err
}

func (r *Repository) FetchDue(ctx context.Context, tx pgx.Tx, limit int) ([]Job, error) {
	rows, err := tx.Query(ctx, `
		SELECT j.id, j.scheduling_id, s.user_id, s.date, s.name, s.email, s.notes,
			j.attempts, j.max_attempts, j.next_run_at, j.traceparent, j.tracestate
		FROM calendar_sync_jobs j
		JOIN schedulings s ON s.id = j.scheduling_id
		WHERE j.status = 'pending' AND j.next_run_at <= now()
		ORDER BY j.next_run_at
		LIMIT $1
		FOR UPDATE OF j SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.SchedulingID, &j.UserID, &j.Slot, &j.VisitorName, &j.VisitorEmail, &j.Notes,
			&j.Attempts, &j.MaxAttempts, &j.NextRunAt, &j.Traceparent, &j.Tracestate); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return jobs, nil
}

func (r *Repository) MarkSynced(ctx context.Context, tx pgx.Tx, id int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE calendar_sync_jobs
		SET status = 'synced', updated_at = now()
		WHERE id = $1
	`, id)
	return err
}

func (r *Repository) MarkFailed(ctx context.Context, tx pgx.Tx, id int64, attempts int, maxAttempts int, nextRunAt time.Time, lastError string) error {
	status := model.SyncPending
	if attempts >= maxAttempts {
		status = model.SyncFailed
	}
	_, err := tx.Exec(ctx, `
		UPDATE calendar_sync_jobs
		SET attempts = $2,
		    status = $3,
		    next_run_at = $4,
		    last_error = $5,
		    updated_at = now()
		WHERE id = $1
	`, id, attempts, status, nextRunAt, lastError)
	return err
}
