package calendarsync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ignitecall/ignitecall/internal/calendar"
	"github.com/ignitecall/ignitecall/internal/outbox"
	"github.com/ignitecall/ignitecall/libs/db"
	otelx "github.com/ignitecall/ignitecall/libs/otel"
	"github.com/jackc/pgx/v5"
)

// Worker drains due calendar sync jobs and creates the corresponding events
// on the owner's calendar. A booking is confirmed before its calendar event
// exists; the worker retries transient failures with backoff and marks the
// job failed once attempts are exhausted, emitting an outbox event so the
// failure is visible downstream.
type Worker struct {
	pool       *db.Pool
	jobs       *Repository
	outbox     *outbox.Repository
	calendar   calendar.Service
	logger     *slog.Logger
	pollEvery  time.Duration
	batchSize  int
	syncBudget time.Duration
}

type WorkerConfig struct {
	PollEvery  time.Duration
	BatchSize  int
	SyncBudget time.Duration
}

func NewWorker(pool *db.Pool, jobs *Repository, ob *outbox.Repository, cal calendar.Service, logger *slog.Logger, cfg WorkerConfig) *Worker {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.SyncBudget <= 0 {
		cfg.SyncBudget = 15 * time.Second
	}
	return &Worker{
		pool:       pool,
		jobs:       jobs,
		outbox:     ob,
		calendar:   cal,
		logger:     logger,
		pollEvery:  cfg.PollEvery,
		batchSize:  cfg.BatchSize,
		syncBudget: cfg.SyncBudget,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.processBatch(ctx); err != nil {
				w.logger.Error("calendar sync batch failed", "err", err)
			}
		}
	}
}

func (w *Worker) processBatch(ctx context.Context) error {
	return w.pool.WithTx(ctx, func(tx pgx.Tx) error {
		jobs, err := w.jobs.FetchDue(ctx, tx, w.batchSize)
		if err != nil {
			return err
		}
		for _, job := range jobs {
			if err := w.processJob(ctx, tx, job); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *Worker) processJob(ctx context.Context, tx pgx.Tx, job Job) error {
	jobCtx := otelx.ContextWithTraceContext(ctx, job.Traceparent, job.Tracestate)
	syncCtx, cancel := context.WithTimeout(jobCtx, w.syncBudget)
	defer cancel()

	syncErr := w.calendar.CreateEvent(syncCtx, job.UserID, EventForJob(job))
	if syncErr == nil {
		w.logger.Info("calendar event created",
			"scheduling_id", job.SchedulingID, "attempt", job.Attempts+1)
		return w.jobs.MarkSynced(ctx, tx, job.ID)
	}

	attempts := job.Attempts + 1
	nextRunAt := time.Now().UTC().Add(BackoffDelay(attempts))
	w.logger.Warn("calendar sync attempt failed",
		"scheduling_id", job.SchedulingID, "attempt", attempts,
		"max_attempts", job.MaxAttempts, "err", syncErr)

	if err := w.jobs.MarkFailed(ctx, tx, job.ID, attempts, job.MaxAttempts, nextRunAt, syncErr.Error()); err != nil {
		return err
	}
	if attempts < job.MaxAttempts {
		return nil
	}

	// Attempts exhausted. The booking stays confirmed; publish the failure so
	// operators and downstream consumers can follow up.
	payload, err := json.Marshal(map[string]any{
		"scheduling_id": job.SchedulingID,
		"user_id":       job.UserID,
		"date":          job.Slot.UTC().Format(time.RFC3339),
		"attempts":      attempts,
		"last_error":    syncErr.Error(),
	})
	if err != nil {
		return err
	}
	return w.outbox.Insert(jobCtx, tx, outbox.Event{
		AggregateType: "scheduling",
		AggregateID:   job.SchedulingID,
		EventType:     outbox.EventCalendarSyncFailed,
		Payload:       payload,
	})
}

// EventForJob builds the calendar event for a confirmed scheduling. Slots are
// one hour long.
func EventForJob(job Job) calendar.Event {
	start := job.Slot.UTC()
	return calendar.Event{
		SchedulingID:  job.SchedulingID,
		Summary:       fmt.Sprintf("Ignite Call: talk with %s", job.VisitorName),
		Description:   job.Notes,
		Start:         start,
		End:           start.Add(time.Hour),
		AttendeeName:  job.VisitorName,
		AttendeeEmail: job.VisitorEmail,
	}
}

// BackoffDelay grows exponentially with the attempt count, capped at ten
// minutes.
func BackoffDelay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	delay := 30 * time.Second << (attempts - 1)
	if delay > 10*time.Minute {
		delay = 10 * time.Minute
	}
	return delay
}
