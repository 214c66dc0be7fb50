package availability

import "time"

// Window is a recurring daily availability window expressed as minute-of-day
// offsets, e.g. {540, 1080} for 09:00-18:00.
type Window struct {
	StartMinutes int
	EndMinutes   int
}

// Week maps each weekday to its configured window. A weekday with no entry has
// no availability at all.
type Week map[time.Weekday]Window

// Hours returns every whole hour the window spans, ascending. The upper bound
// is exclusive: a 08:00-18:00 window yields hours 8..17.
func (w Window) Hours() []int {
	startHour := w.StartMinutes / 60
	endHour := w.EndMinutes / 60
	if endHour <= startHour {
		return nil
	}
	hours := make([]int, 0, endHour-startHour)
	for h := startHour; h < endHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// SlotCapacity is the number of bookable hour slots the window holds.
func (w Window) SlotCapacity() int {
	return (w.EndMinutes - w.StartMinutes) / 60
}

// DayInPast reports whether the whole calendar day is behind now, i.e. even
// the last instant of the day (23:59:59.999...) precedes it.
func DayInPast(day time.Time, now time.Time) bool {
	endOfDay := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), day.Location())
	return endOfDay.Before(now)
}

// AvailableHours filters the window's hours down to those still bookable on
// day: an hour is taken when an existing scheduling starts at that hour of the
// same day, or when the hour's start instant has already passed. Order is
// preserved.
func AvailableHours(day time.Time, window Window, booked []time.Time, now time.Time) []int {
	possible := window.Hours()
	available := make([]int, 0, len(possible))
	for _, hour := range possible {
		if hourBooked(day, hour, booked) {
			continue
		}
		slotStart := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
		if slotStart.Before(now) {
			continue
		}
		available = append(available, hour)
	}
	return available
}

func hourBooked(day time.Time, hour int, booked []time.Time) bool {
	for _, b := range booked {
		b = b.In(day.Location())
		if b.Hour() == hour {
			return true
		}
	}
	return false
}
