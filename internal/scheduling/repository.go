package scheduling

import (
	"context"
	"time"

	"github.com/ignitecall/ignitecall/internal/model"
)

// UserRepository persists user accounts.
type UserRepository interface {
	// Create fails with ErrUsernameTaken when the username is already claimed.
	Create(ctx context.Context, u model.User) error
	FindByUsername(ctx context.Context, username string) (model.User, bool, error)
	FindByID(ctx context.Context, id string) (model.User, bool, error)
	UpdateBio(ctx context.Context, userID, bio string) error
}

// IntervalRepository persists weekly availability windows, at most one per
// weekday per user.
type IntervalRepository interface {
	FindByUserAndWeekday(ctx context.Context, userID string, weekday time.Weekday) (model.TimeInterval, bool, error)
	FindAllByUser(ctx context.Context, userID string) ([]model.TimeInterval, error)
	// Replace swaps the user's whole weekly configuration atomically.
	Replace(ctx context.Context, userID string, intervals []model.TimeInterval) error
}

// SchedulingView is a scheduling together with its calendar sync state.
type SchedulingView struct {
	model.Scheduling
	SyncStatus string
}

// SchedulingRepository persists visitor bookings. Create must enforce the
// one-booking-per-slot invariant atomically at insert time and fail with
// ErrSlotTaken on collision.
type SchedulingRepository interface {
	Create(ctx context.Context, s model.Scheduling) error
	FindByUserAndDate(ctx context.Context, userID string, date time.Time) (model.Scheduling, bool, error)
	FindByUserAndDateRange(ctx context.Context, userID string, from, to time.Time) ([]model.Scheduling, error)
	// CountPerDay returns scheduling counts keyed by day-of-month for the
	// given month.
	CountPerDay(ctx context.Context, userID string, year int, month time.Month) (map[int]int, error)
	ListUpcoming(ctx context.Context, userID string, from time.Time, limit int) ([]SchedulingView, error)
}
