package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignitecall/ignitecall/internal/availability"
	"github.com/ignitecall/ignitecall/internal/model"
)

// Service implements the scheduling use cases on top of the repositories. All
// operations are request-scoped and stateless.
type Service struct {
	users       UserRepository
	intervals   IntervalRepository
	schedulings SchedulingRepository
	clock       Clock
	logger      *slog.Logger
}

func NewService(users UserRepository, intervals IntervalRepository, schedulings SchedulingRepository, clock Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = SystemClock()
	}
	return &Service{
		users:       users,
		intervals:   intervals,
		schedulings: schedulings,
		clock:       clock,
		logger:      logger,
	}
}

// Availability is the hour-level result for one calendar date.
type Availability struct {
	PossibleTimes  []int `json:"possibleTimes"`
	AvailableTimes []int `json:"availableTimes"`
}

// BlockedDates aggregates a month's unbookable weekdays and dates.
type BlockedDates struct {
	BlockedWeekDays []int `json:"blockedWeekDays"`
	BlockedDates    []int `json:"blockedDates"`
}

const dateLayout = "2006-01-02"

// Availability computes the possible and still-available hours for a user on
// one calendar date. Any time-of-day component in dateStr is not accepted;
// the input must be a plain YYYY-MM-DD date.
func (s *Service) Availability(ctx context.Context, username, dateStr string) (Availability, error) {
	empty := Availability{PossibleTimes: []int{}, AvailableTimes: []int{}}

	v := &validator{}
	if strings.TrimSpace(username) == "" {
		v.fail("username", "username is required")
	}
	day, err := time.ParseInLocation(dateLayout, dateStr, time.UTC)
	if err != nil {
		v.fail("date", "date must be a valid YYYY-MM-DD calendar date")
	}
	if err := v.err(); err != nil {
		return empty, err
	}

	user, ok, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return empty, upstream("find user", err)
	}
	if !ok {
		return empty, ErrUserNotFound
	}

	now := s.clock.Now()
	if availability.DayInPast(day, now) {
		return empty, nil
	}

	interval, ok, err := s.intervals.FindByUserAndWeekday(ctx, user.ID, day.Weekday())
	if err != nil {
		return empty, upstream("find interval", err)
	}
	if !ok {
		return empty, nil
	}

	window := availability.Window{StartMinutes: interval.StartMinutes, EndMinutes: interval.EndMinutes}
	possible := window.Hours()
	if len(possible) == 0 {
		return empty, nil
	}

	// Schedulings between the first and last possible hour, bounds inclusive.
	from := day.Add(time.Duration(possible[0]) * time.Hour)
	to := day.Add(time.Duration(interval.EndMinutes/60) * time.Hour)
	booked, err := s.schedulings.FindByUserAndDateRange(ctx, user.ID, from, to)
	if err != nil {
		return empty, upstream("find schedulings", err)
	}

	bookedTimes := make([]time.Time, 0, len(booked))
	for _, b := range booked {
		bookedTimes = append(bookedTimes, b.Date)
	}

	return Availability{
		PossibleTimes:  possible,
		AvailableTimes: availability.AvailableHours(day, window, bookedTimes, now),
	}, nil
}

// BlockedDates computes the fully-blocked weekdays and dates of a month for
// calendar rendering.
func (s *Service) BlockedDates(ctx context.Context, username string, year, month int) (BlockedDates, error) {
	empty := BlockedDates{BlockedWeekDays: []int{}, BlockedDates: []int{}}

	v := &validator{}
	if strings.TrimSpace(username) == "" {
		v.fail("username", "username is required")
	}
	if year < 1000 || year > 9999 {
		v.fail("year", "year must be a 4-digit year")
	}
	if month < 1 || month > 12 {
		v.fail("month", "month must be between 1 and 12")
	}
	if err := v.err(); err != nil {
		return empty, err
	}

	user, ok, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return empty, upstream("find user", err)
	}
	if !ok {
		return empty, ErrUserNotFound
	}

	intervals, err := s.intervals.FindAllByUser(ctx, user.ID)
	if err != nil {
		return empty, upstream("find intervals", err)
	}
	week := weekOf(intervals)

	counts, err := s.schedulings.CountPerDay(ctx, user.ID, year, time.Month(month))
	if err != nil {
		return empty, upstream("count schedulings", err)
	}

	return BlockedDates{
		BlockedWeekDays: availability.BlockedWeekDays(week),
		BlockedDates:    availability.BlockedDates(week, counts, year, time.Month(month), s.clock.Now()),
	}, nil
}

// CreateSchedulingInput is the confirmation-step payload.
type CreateSchedulingInput struct {
	Name  string
	Email string
	Notes string
	Date  string // RFC3339
}

// CreateScheduling books a slot for a visitor. The slot is the hour containing
// the given instant; the uniqueness of (user, slot) is enforced atomically by
// the repository so concurrent confirmations cannot double-book.
func (s *Service) CreateScheduling(ctx context.Context, username string, in CreateSchedulingInput) (model.Scheduling, error) {
	v := &validator{}
	if strings.TrimSpace(username) == "" {
		v.fail("username", "username is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		v.fail("name", "name is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		v.fail("email", "email must be a valid address")
	}
	when, err := time.Parse(time.RFC3339, in.Date)
	if err != nil {
		v.fail("date", "date must be a valid RFC3339 timestamp")
	}
	if err := v.err(); err != nil {
		return model.Scheduling{}, err
	}

	user, ok, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return model.Scheduling{}, upstream("find user", err)
	}
	if !ok {
		return model.Scheduling{}, ErrUserNotFound
	}

	slot := when.UTC().Truncate(time.Hour)
	now := s.clock.Now()
	if slot.Before(now) {
		return model.Scheduling{}, ErrPastDate
	}

	// Friendly fast path; the unique index remains the authoritative guard.
	if _, taken, err := s.schedulings.FindByUserAndDate(ctx, user.ID, slot); err != nil {
		return model.Scheduling{}, upstream("check slot", err)
	} else if taken {
		return model.Scheduling{}, ErrSlotTaken
	}

	scheduling := model.Scheduling{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Date:      slot,
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
	}
	if err := s.schedulings.Create(ctx, scheduling); err != nil {
		return model.Scheduling{}, upstream("create scheduling", err)
	}

	s.logger.Info("scheduling created",
		"scheduling_id", scheduling.ID,
		"user_id", user.ID,
		"slot", slot.Format(time.RFC3339),
	)
	return scheduling, nil
}

// ListSchedulings returns the owner's upcoming schedulings with their calendar
// sync state.
func (s *Service) ListSchedulings(ctx context.Context, userID string, limit int) ([]SchedulingView, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if _, ok, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, upstream("find user", err)
	} else if !ok {
		return nil, ErrUserNotFound
	}
	views, err := s.schedulings.ListUpcoming(ctx, userID, s.clock.Now(), limit)
	if err != nil {
		return nil, upstream("list schedulings", err)
	}
	return views, nil
}

func weekOf(intervals []model.TimeInterval) availability.Week {
	week := make(availability.Week, len(intervals))
	for _, ti := range intervals {
		week[time.Weekday(ti.WeekDay)] = availability.Window{
			StartMinutes: ti.StartMinutes,
			EndMinutes:   ti.EndMinutes,
		}
	}
	return week
}

var usernamePattern = regexp.MustCompile(`^[a-z-]+$`)

// RegisterUser claims a username during onboarding.
func (s *Service) RegisterUser(ctx context.Context, username, name string) (model.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	name = strings.TrimSpace(name)

	v := &validator{}
	if len(username) < 3 {
		v.fail("username", "username must have at least 3 characters")
	} else if !usernamePattern.MatchString(username) {
		v.fail("username", "username may only contain letters and hyphens")
	}
	if len(name) < 3 {
		v.fail("name", "name must have at least 3 characters")
	}
	if err := v.err(); err != nil {
		return model.User{}, err
	}

	user := model.User{
		ID:        uuid.NewString(),
		Username:  username,
		Name:      name,
		CreatedAt: s.clock.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return model.User{}, upstream("create user", err)
	}
	return user, nil
}

// UpdateProfile stores the owner's bio shown on the scheduling page.
func (s *Service) UpdateProfile(ctx context.Context, userID, bio string) error {
	if _, ok, err := s.users.FindByID(ctx, userID); err != nil {
		return upstream("find user", err)
	} else if !ok {
		return ErrUserNotFound
	}
	if err := s.users.UpdateBio(ctx, userID, bio); err != nil {
		return upstream("update bio", err)
	}
	return nil
}

// IntervalInput is one weekly window from the onboarding form.
type IntervalInput struct {
	WeekDay      int `json:"weekDay"`
	StartMinutes int `json:"startTimeInMinutes"`
	EndMinutes   int `json:"endTimeInMinutes"`
}

// SaveTimeIntervals replaces the user's weekly availability. Windows must be
// at least one hour long and there can be at most one window per weekday.
func (s *Service) SaveTimeIntervals(ctx context.Context, userID string, inputs []IntervalInput) ([]model.TimeInterval, error) {
	v := &validator{}
	if len(inputs) == 0 {
		v.fail("intervals", "at least one interval is required")
	}
	seen := map[int]bool{}
	for i, in := range inputs {
		field := fmt.Sprintf("intervals[%d]", i)
		if in.WeekDay < 0 || in.WeekDay > 6 {
			v.fail(field+".weekDay", "week day must be between 0 and 6")
		} else if seen[in.WeekDay] {
			v.fail(field+".weekDay", "only one interval per week day is allowed")
		} else {
			seen[in.WeekDay] = true
		}
		if in.StartMinutes < 0 || in.StartMinutes >= 24*60 {
			v.fail(field+".startTimeInMinutes", "start must be within the day")
		}
		if in.EndMinutes <= 0 || in.EndMinutes > 24*60 {
			v.fail(field+".endTimeInMinutes", "end must be within the day")
		}
		if in.EndMinutes-in.StartMinutes < 60 {
			v.fail(field, "interval must be at least one hour long")
		}
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	if _, ok, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, upstream("find user", err)
	} else if !ok {
		return nil, ErrUserNotFound
	}

	intervals := make([]model.TimeInterval, 0, len(inputs))
	for _, in := range inputs {
		intervals = append(intervals, model.TimeInterval{
			ID:           uuid.NewString(),
			UserID:       userID,
			WeekDay:      in.WeekDay,
			StartMinutes: in.StartMinutes,
			EndMinutes:   in.EndMinutes,
		})
	}
	if err := s.intervals.Replace(ctx, userID, intervals); err != nil {
		return nil, upstream("replace intervals", err)
	}
	return intervals, nil
}
