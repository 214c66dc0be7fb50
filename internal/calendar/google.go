package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/ignitecall/ignitecall/internal/model"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// TokenStore loads the OAuth tokens stored when the owner connected their
// Google account.
type TokenStore interface {
	FindByUser(ctx context.Context, userID string) (model.CalendarAccount, bool, error)
}

// GoogleService creates events on the owner's primary Google Calendar,
// including a Meet conference keyed by the scheduling id.
type GoogleService struct {
	cfg    *oauth2.Config
	tokens TokenStore
}

func NewGoogleService(clientID, clientSecret string, tokens TokenStore) *GoogleService {
	return &GoogleService{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{calendarapi.CalendarScope},
		},
		tokens: tokens,
	}
}

func (g *GoogleService) CreateEvent(ctx context.Context, userID string, evt Event) error {
	acct, ok, err := g.tokens.FindByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load calendar account: %w", err)
	}
	if !ok {
		return fmt.Errorf("user %s has no connected calendar", userID)
	}

	// The token source refreshes the access token transparently when expired.
	src := g.cfg.TokenSource(ctx, &oauth2.Token{
		AccessToken:  acct.AccessToken,
		RefreshToken: acct.RefreshToken,
		Expiry:       acct.Expiry,
	})
	svc, err := calendarapi.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		return fmt.Errorf("calendar client: %w", err)
	}

	_, err = svc.Events.Insert("primary", &calendarapi.Event{
		Summary:     evt.Summary,
		Description: evt.Description,
		Start: &calendarapi.EventDateTime{
			DateTime: evt.Start.Format(time.RFC3339),
		},
		End: &calendarapi.EventDateTime{
			DateTime: evt.End.Format(time.RFC3339),
		},
		Attendees: []*calendarapi.EventAttendee{
			{Email: evt.AttendeeEmail, DisplayName: evt.AttendeeName},
		},
		ConferenceData: &calendarapi.ConferenceData{
			CreateRequest: &calendarapi.CreateConferenceRequest{
				RequestId: evt.SchedulingID,
				ConferenceSolutionKey: &calendarapi.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		},
	}).ConferenceDataVersion(1).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("insert calendar event: %w", err)
	}
	return nil
}
