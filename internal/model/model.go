package model

import "time"

type User struct {
	ID        string
	Username  string
	Name      string
	Bio       string
	Email     string
	AvatarURL string
	CreatedAt time.Time
}

// TimeInterval is a recurring weekly availability window. A user has at most
// one interval per weekday; start and end are minute-of-day offsets.
type TimeInterval struct {
	ID           string
	UserID       string
	WeekDay      int // 0=Sunday .. 6=Saturday
	StartMinutes int // [0,1440)
	EndMinutes   int // (StartMinutes,1440]
}

type Scheduling struct {
	ID        string
	UserID    string
	Date      time.Time // hour-aligned UTC slot start
	Name      string
	Email     string
	Notes     string
	CreatedAt time.Time
}

// CalendarAccount holds the Google OAuth tokens the original onboarding flow
// stores when the owner connects a calendar.
type CalendarAccount struct {
	UserID       string
	Provider     string
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Calendar sync job states.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncFailed  = "failed"
)
