package availability

import (
	"testing"
	"time"
)

func TestWindowHours(t *testing.T) {
	w := Window{StartMinutes: 480, EndMinutes: 1080} // 08:00-18:00
	hours := w.Hours()
	if len(hours) != 10 {
		t.Fatalf("expected 10 hours, got %d", len(hours))
	}
	if hours[0] != 8 || hours[9] != 17 {
		t.Fatalf("expected hours 8..17, got %v", hours)
	}
}

func TestWindowHours_PartialHoursFloor(t *testing.T) {
	// 08:30-17:30 floors to the same 8..16 range the original computes.
	w := Window{StartMinutes: 510, EndMinutes: 1050}
	hours := w.Hours()
	if len(hours) != 9 {
		t.Fatalf("expected 9 hours, got %v", hours)
	}
	if hours[0] != 8 || hours[8] != 16 {
		t.Fatalf("expected hours 8..16, got %v", hours)
	}
}

func TestDayInPast(t *testing.T) {
	now := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)

	yesterday := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	if !DayInPast(yesterday, now) {
		t.Fatal("yesterday should be in the past")
	}
	today := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	if DayInPast(today, now) {
		t.Fatal("today is not over yet")
	}
	tomorrow := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)
	if DayInPast(tomorrow, now) {
		t.Fatal("tomorrow should not be in the past")
	}
}

func TestAvailableHours_NoSchedulings(t *testing.T) {
	// Future Wednesday, 08:00-18:00 window, nothing booked: every hour is free.
	day := time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
	w := Window{StartMinutes: 480, EndMinutes: 1080}

	available := AvailableHours(day, w, nil, now)
	if len(available) != 10 {
		t.Fatalf("expected 10 available hours, got %v", available)
	}
	for i, h := range w.Hours() {
		if available[i] != h {
			t.Fatalf("available hours diverge from possible hours: %v", available)
		}
	}
}

func TestAvailableHours_BookedHourExcluded(t *testing.T) {
	day := time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)
	w := Window{StartMinutes: 480, EndMinutes: 1080}

	booked := []time.Time{time.Date(2026, 3, 18, 10, 0, 0, 0, time.UTC)}
	available := AvailableHours(day, w, booked, now)
	if len(available) != 9 {
		t.Fatalf("expected 9 available hours, got %v", available)
	}
	for _, h := range available {
		if h == 10 {
			t.Fatal("hour 10 should be excluded")
		}
	}
}

func TestAvailableHours_PastHoursExcludedToday(t *testing.T) {
	day := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 12, 11, 30, 0, 0, time.UTC)
	w := Window{StartMinutes: 480, EndMinutes: 1080}

	available := AvailableHours(day, w, nil, now)
	// 08..11 have started already; 12..17 remain.
	if len(available) != 6 {
		t.Fatalf("expected 6 available hours, got %v", available)
	}
	if available[0] != 12 {
		t.Fatalf("expected first available hour 12, got %d", available[0])
	}
}

func TestAvailableHours_SubsetAndOrdered(t *testing.T) {
	day := time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	w := Window{StartMinutes: 540, EndMinutes: 900}

	booked := []time.Time{
		time.Date(2026, 3, 18, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 18, 13, 0, 0, 0, time.UTC),
	}
	available := AvailableHours(day, w, booked, now)

	possible := map[int]bool{}
	for _, h := range w.Hours() {
		possible[h] = true
	}
	for i, h := range available {
		if !possible[h] {
			t.Fatalf("hour %d not in possible set", h)
		}
		if i > 0 && available[i-1] >= h {
			t.Fatalf("hours out of order: %v", available)
		}
	}
}
