package availability

import (
	"sort"
	"time"
)

// BlockedWeekDays returns the weekdays (0=Sunday .. 6=Saturday) for which the
// week has no configured window. Those days are unbookable on every date.
func BlockedWeekDays(week Week) []int {
	blocked := make([]int, 0, 7)
	for wd := 0; wd < 7; wd++ {
		if _, ok := week[time.Weekday(wd)]; !ok {
			blocked = append(blocked, wd)
		}
	}
	return blocked
}

// BlockedDates returns the days of the given month that are fully consumed:
// days whose scheduling count reaches the slot capacity of that day's window,
// plus today when today's window has no hours left. counts maps day-of-month
// to the number of schedulings on that day.
func BlockedDates(week Week, counts map[int]int, year int, month time.Month, now time.Time) []int {
	blocked := make([]int, 0, len(counts))
	seen := make(map[int]bool, len(counts))
	for day, count := range counts {
		date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		window, ok := week[date.Weekday()]
		if !ok {
			// Already covered by BlockedWeekDays.
			continue
		}
		if count >= window.SlotCapacity() {
			blocked = append(blocked, day)
			seen[day] = true
		}
	}

	if now.Year() == year && now.Month() == month {
		if window, ok := week[now.Weekday()]; ok {
			endHour := window.EndMinutes / 60
			if now.Hour() >= endHour && !seen[now.Day()] {
				blocked = append(blocked, now.Day())
			}
		}
	}

	sort.Ints(blocked)
	return blocked
}
