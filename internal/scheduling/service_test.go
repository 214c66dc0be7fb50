package scheduling

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ignitecall/ignitecall/internal/model"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type fakeUsers struct {
	byUsername map[string]model.User
}

func (f *fakeUsers) Create(_ context.Context, u model.User) error {
	if _, ok := f.byUsername[u.Username]; ok {
		return ErrUsernameTaken
	}
	f.byUsername[u.Username] = u
	return nil
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (model.User, bool, error) {
	u, ok := f.byUsername[username]
	return u, ok, nil
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (model.User, bool, error) {
	for _, u := range f.byUsername {
		if u.ID == id {
			return u, true, nil
		}
	}
	return model.User{}, false, nil
}

func (f *fakeUsers) UpdateBio(_ context.Context, userID, bio string) error {
	for name, u := range f.byUsername {
		if u.ID == userID {
			u.Bio = bio
			f.byUsername[name] = u
			return nil
		}
	}
	return nil
}

type fakeIntervals struct {
	byUser map[string][]model.TimeInterval
}

func (f *fakeIntervals) FindByUserAndWeekday(_ context.Context, userID string, weekday time.Weekday) (model.TimeInterval, bool, error) {
	for _, ti := range f.byUser[userID] {
		if ti.WeekDay == int(weekday) {
			return ti, true, nil
		}
	}
	return model.TimeInterval{}, false, nil
}

func (f *fakeIntervals) FindAllByUser(_ context.Context, userID string) ([]model.TimeInterval, error) {
	return f.byUser[userID], nil
}

func (f *fakeIntervals) Replace(_ context.Context, userID string, intervals []model.TimeInterval) error {
	f.byUser[userID] = intervals
	return nil
}

type fakeSchedulings struct {
	mu     sync.Mutex
	bySlot map[string]model.Scheduling
}

func slotKey(userID string, date time.Time) string {
	return userID + "|" + date.UTC().Format(time.RFC3339)
}

func (f *fakeSchedulings) Create(_ context.Context, s model.Scheduling) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := slotKey(s.UserID, s.Date)
	if _, ok := f.bySlot[key]; ok {
		return ErrSlotTaken
	}
	f.bySlot[key] = s
	return nil
}

func (f *fakeSchedulings) FindByUserAndDate(_ context.Context, userID string, date time.Time) (model.Scheduling, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.bySlot[slotKey(userID, date)]
	return s, ok, nil
}

func (f *fakeSchedulings) FindByUserAndDateRange(_ context.Context, userID string, from, to time.Time) ([]model.Scheduling, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Scheduling
	for _, s := range f.bySlot {
		if s.UserID != userID {
			continue
		}
		if s.Date.Before(from) || s.Date.After(to) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSchedulings) CountPerDay(_ context.Context, userID string, year int, month time.Month) (map[int]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[int]int{}
	for _, s := range f.bySlot {
		if s.UserID != userID {
			continue
		}
		if s.Date.Year() == year && s.Date.Month() == month {
			counts[s.Date.Day()]++
		}
	}
	return counts, nil
}

func (f *fakeSchedulings) ListUpcoming(_ context.Context, userID string, from time.Time, limit int) ([]SchedulingView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []SchedulingView
	for _, s := range f.bySlot {
		if s.UserID == userID && !s.Date.Before(from) && len(out) < limit {
			out = append(out, SchedulingView{Scheduling: s, SyncStatus: model.SyncPending})
		}
	}
	return out, nil
}

func newTestService(now time.Time) (*Service, *fakeUsers, *fakeIntervals, *fakeSchedulings) {
	users := &fakeUsers{byUsername: map[string]model.User{
		"johndoe": {ID: "user-1", Username: "johndoe", Name: "John Doe"},
	}}
	intervals := &fakeIntervals{byUser: map[string][]model.TimeInterval{}}
	schedulings := &fakeSchedulings{bySlot: map[string]model.Scheduling{}}
	svc := NewService(users, intervals, schedulings, fixedClock{now: now}, slog.Default())
	return svc, users, intervals, schedulings
}

func TestAvailability_PastDateReturnsEmpty(t *testing.T) {
	now := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
	svc, _, intervals, _ := newTestService(now)
	intervals.byUser["user-1"] = []model.TimeInterval{
		{UserID: "user-1", WeekDay: 3, StartMinutes: 480, EndMinutes: 1080},
	}

	got, err := svc.Availability(context.Background(), "johndoe", "2026-03-11")
	if err != nil {
		t.Fatalf("Availability failed: %v", err)
	}
	if len(got.PossibleTimes) != 0 || len(got.AvailableTimes) != 0 {
		t.Fatalf("expected empty result for past date, got %+v", got)
	}
}

func TestAvailability_NoIntervalForWeekday(t *testing.T) {
	now := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
	svc, _, _, _ := newTestService(now)

	got, err := svc.Availability(context.Background(), "johndoe", "2026-03-18")
	if err != nil {
		t.Fatalf("Availability failed: %v", err)
	}
	if len(got.PossibleTimes) != 0 || len(got.AvailableTimes) != 0 {
		t.Fatalf("expected empty result without interval, got %+v", got)
	}
}

func TestAvailability_FutureWednesday(t *testing.T) {
	now := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
	svc, _, intervals, schedulings := newTestService(now)
	// Wednesday 08:00-18:00.
	intervals.byUser["user-1"] = []model.TimeInterval{
		{UserID: "user-1", WeekDay: 3, StartMinutes: 480, EndMinutes: 1080},
	}

	// 2026-03-18 is a Wednesday.
	got, err := svc.Availability(context.Background(), "johndoe", "2026-03-18")
	if err != nil {
		t.Fatalf("Availability failed: %v", err)
	}
	if len(got.PossibleTimes) != 10 {
		t.Fatalf("expected 10 possible hours, got %v", got.PossibleTimes)
	}
	if got.PossibleTimes[0] != 8 || got.PossibleTimes[9] != 17 {
		t.Fatalf("expected hours 8..17, got %v", got.PossibleTimes)
	}
	if len(got.AvailableTimes) != len(got.PossibleTimes) {
		t.Fatalf("expected every hour available, got %v", got.AvailableTimes)
	}

	// Book hour 10 and recompute.
	schedulings.bySlot[slotKey("user-1", time.Date(2026, 3, 18, 10, 0, 0, 0, time.UTC))] = model.Scheduling{
		UserID: "user-1",
		Date:   time.Date(2026, 3, 18, 10, 0, 0, 0, time.UTC),
	}
	got, err = svc.Availability(context.Background(), "johndoe", "2026-03-18")
	if err != nil {
		t.Fatalf("Availability failed: %v", err)
	}
	if len(got.AvailableTimes) != 9 {
		t.Fatalf("expected 9 available hours, got %v", got.AvailableTimes)
	}
	for _, h := range got.AvailableTimes {
		if h == 10 {
			t.Fatal("hour 10 should be excluded after booking")
		}
	}
}

func TestAvailability_UnknownUser(t *testing.T) {
	svc, _, _, _ := newTestService(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC))
	_, err := svc.Availability(context.Background(), "ghost", "2026-03-18")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestAvailability_MalformedDate(t *testing.T) {
	svc, _, _, _ := newTestService(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC))
	_, err := svc.Availability(context.Background(), "johndoe", "18/03/2026")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Violations) != 1 || ve.Violations[0].Field != "date" {
		t.Fatalf("expected date violation, got %+v", ve.Violations)
	}
}

func TestBlockedDates_WeekdaysWithoutIntervals(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	svc, _, intervals, _ := newTestService(now)
	intervals.byUser["user-1"] = []model.TimeInterval{
		{UserID: "user-1", WeekDay: 3, StartMinutes: 600, EndMinutes: 720},
	}

	got, err := svc.BlockedDates(context.Background(), "johndoe", 2026, 3)
	if err != nil {
		t.Fatalf("BlockedDates failed: %v", err)
	}
	if len(got.BlockedWeekDays) != 6 {
		t.Fatalf("expected 6 blocked weekdays, got %v", got.BlockedWeekDays)
	}
	for _, wd := range got.BlockedWeekDays {
		if wd == 3 {
			t.Fatal("Wednesday should not be blocked")
		}
	}
}

func TestBlockedDates_FullDays(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	svc, _, intervals, schedulings := newTestService(now)
	intervals.byUser["user-1"] = []model.TimeInterval{
		{UserID: "user-1", WeekDay: 3, StartMinutes: 600, EndMinutes: 720}, // 2 slots
	}
	// Fill both Wednesday 2026-03-18 slots.
	for _, h := range []int{10, 11} {
		d := time.Date(2026, 3, 18, h, 0, 0, 0, time.UTC)
		schedulings.bySlot[slotKey("user-1", d)] = model.Scheduling{UserID: "user-1", Date: d}
	}

	got, err := svc.BlockedDates(context.Background(), "johndoe", 2026, 3)
	if err != nil {
		t.Fatalf("BlockedDates failed: %v", err)
	}
	if len(got.BlockedDates) != 1 || got.BlockedDates[0] != 18 {
		t.Fatalf("expected date 18 blocked, got %v", got.BlockedDates)
	}
}

func TestBlockedDates_InvalidMonth(t *testing.T) {
	svc, _, _, _ := newTestService(time.Now().UTC())
	_, err := svc.BlockedDates(context.Background(), "johndoe", 2026, 13)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCreateScheduling_PastSlot(t *testing.T) {
	now := time.Date(2026, 3, 12, 10, 30, 0, 0, time.UTC)
	svc, _, _, _ := newTestService(now)

	_, err := svc.CreateScheduling(context.Background(), "johndoe", CreateSchedulingInput{
		Name:  "Jane Visitor",
		Email: "jane@example.com",
		Date:  "2026-03-12T10:29:00Z", // truncates to 10:00, one minute in the past
	})
	if !errors.Is(err, ErrPastDate) {
		t.Fatalf("expected ErrPastDate, got %v", err)
	}
}

func TestCreateScheduling_TruncatesToHour(t *testing.T) {
	now := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
	svc, _, _, schedulings := newTestService(now)

	got, err := svc.CreateScheduling(context.Background(), "johndoe", CreateSchedulingInput{
		Name:  "Jane Visitor",
		Email: "jane@example.com",
		Notes: "let's talk",
		Date:  "2026-03-18T14:45:00Z",
	})
	if err != nil {
		t.Fatalf("CreateScheduling failed: %v", err)
	}
	want := time.Date(2026, 3, 18, 14, 0, 0, 0, time.UTC)
	if !got.Date.Equal(want) {
		t.Fatalf("expected slot %s, got %s", want, got.Date)
	}
	if _, ok := schedulings.bySlot[slotKey("user-1", want)]; !ok {
		t.Fatal("scheduling not persisted")
	}
}

func TestCreateScheduling_ValidationCollectsAllViolations(t *testing.T) {
	svc, _, _, _ := newTestService(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC))
	_, err := svc.CreateScheduling(context.Background(), "johndoe", CreateSchedulingInput{
		Name:  "",
		Email: "not-an-email",
		Date:  "tomorrow",
	})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Violations) != 3 {
		t.Fatalf("expected 3 violations, got %+v", ve.Violations)
	}
}

func TestCreateScheduling_ConcurrentSameSlot(t *testing.T) {
	now := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
	svc, _, _, _ := newTestService(now)

	in := CreateSchedulingInput{
		Name:  "Jane Visitor",
		Email: "jane@example.com",
		Date:  "2026-03-18T14:00:00Z",
	}

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateScheduling(context.Background(), "johndoe", in)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrSlotTaken):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Fatalf("expected exactly one success and one conflict, got %d/%d", successes, conflicts)
	}
}

func TestRegisterUser(t *testing.T) {
	svc, users, _, _ := newTestService(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC))

	u, err := svc.RegisterUser(context.Background(), "Jane-Doe", "Jane Doe")
	if err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}
	if u.Username != "jane-doe" {
		t.Fatalf("expected lowercased username, got %q", u.Username)
	}
	if _, ok := users.byUsername["jane-doe"]; !ok {
		t.Fatal("user not persisted")
	}

	if _, err := svc.RegisterUser(context.Background(), "jane-doe", "Jane Again"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	_, err = svc.RegisterUser(context.Background(), "x9", "Y")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Violations) != 2 {
		t.Fatalf("expected username and name violations, got %+v", ve.Violations)
	}
}

func TestSaveTimeIntervals_Validation(t *testing.T) {
	svc, _, _, _ := newTestService(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC))

	_, err := svc.SaveTimeIntervals(context.Background(), "user-1", []IntervalInput{
		{WeekDay: 7, StartMinutes: 480, EndMinutes: 500},
		{WeekDay: 1, StartMinutes: 480, EndMinutes: 1080},
		{WeekDay: 1, StartMinutes: 600, EndMinutes: 720},
	})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	// Bad weekday + sub-hour window on the first entry, duplicate weekday on
	// the third.
	if len(ve.Violations) != 3 {
		t.Fatalf("expected 3 violations, got %+v", ve.Violations)
	}
}

func TestSaveTimeIntervals_Replaces(t *testing.T) {
	svc, _, intervals, _ := newTestService(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC))
	intervals.byUser["user-1"] = []model.TimeInterval{
		{UserID: "user-1", WeekDay: 5, StartMinutes: 480, EndMinutes: 1080},
	}

	saved, err := svc.SaveTimeIntervals(context.Background(), "user-1", []IntervalInput{
		{WeekDay: 1, StartMinutes: 540, EndMinutes: 1080},
		{WeekDay: 3, StartMinutes: 540, EndMinutes: 1080},
	})
	if err != nil {
		t.Fatalf("SaveTimeIntervals failed: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(saved))
	}
	if len(intervals.byUser["user-1"]) != 2 {
		t.Fatalf("expected replacement, got %v", intervals.byUser["user-1"])
	}
}
