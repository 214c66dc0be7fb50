package calendar

import (
	"context"
	"time"
)

// Event describes the calendar entry created for a confirmed scheduling.
type Event struct {
	SchedulingID  string
	Summary       string
	Description   string
	Start         time.Time
	End           time.Time
	AttendeeName  string
	AttendeeEmail string
}

// Service creates events on the owner's connected third-party calendar.
type Service interface {
	CreateEvent(ctx context.Context, userID string, evt Event) error
}
