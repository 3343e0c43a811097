// Package gcal talks to Google Calendar for busy-interval lookups, booking
// mirroring and the periodic event import.
package gcal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/nvarela/terapia-platform/internal/interval"
	"github.com/nvarela/terapia-platform/internal/reservations"
	"github.com/nvarela/terapia-platform/pkg/logging"
)

// ErrNotConnected is returned when a practitioner has no calendar credential.
var ErrNotConnected = errors.New("gcal: calendar not connected")

const primaryCalendar = "primary"

// TokenProvider resolves a practitioner's OAuth access token. Credential
// storage and refresh belong to the excluded auth subsystem.
type TokenProvider interface {
	AccessToken(ctx context.Context, practitionerID string) (string, error)
}

// StaticTokenProvider serves one fixed token for every practitioner.
// Development and tests only.
type StaticTokenProvider string

// AccessToken implements TokenProvider.
func (t StaticTokenProvider) AccessToken(ctx context.Context, practitionerID string) (string, error) {
	if t == "" {
		return "", ErrNotConnected
	}
	return string(t), nil
}

// Client wraps the Google Calendar API for the practitioner's primary
// calendar.
type Client struct {
	tokens  TokenProvider
	timeout time.Duration
	logger  *logging.Logger

	// newService is swapped in tests.
	newService func(ctx context.Context, token string) (*calendar.Service, error)
}

// NewClient creates a calendar client.
func NewClient(tokens TokenProvider, timeout time.Duration, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		tokens:  tokens,
		timeout: timeout,
		logger:  logger,
		newService: func(ctx context.Context, token string) (*calendar.Service, error) {
			src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
			return calendar.NewService(ctx, option.WithTokenSource(src))
		},
	}
}

func (c *Client) service(ctx context.Context, practitionerID string) (*calendar.Service, error) {
	token, err := c.tokens.AccessToken(ctx, practitionerID)
	if err != nil {
		return nil, err
	}
	svc, err := c.newService(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("gcal: build service: %w", err)
	}
	return svc, nil
}

// FreeBusy returns the busy intervals on the primary calendar between from
// and to. Implements availability.CalendarBusySource.
func (c *Client) FreeBusy(ctx context.Context, practitionerID string, from, to time.Time) ([]interval.Interval, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	svc, err := c.service(ctx, practitionerID)
	if err != nil {
		return nil, err
	}

	res, err := svc.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: from.Format(time.RFC3339),
		TimeMax: to.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: primaryCalendar}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gcal: freebusy query: %w", err)
	}

	cal, ok := res.Calendars[primaryCalendar]
	if !ok {
		return nil, nil
	}
	var out []interval.Interval
	for _, period := range cal.Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			c.logger.Warn("gcal: skipping busy period with bad start", "start", period.Start)
			continue
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			c.logger.Warn("gcal: skipping busy period with bad end", "end", period.End)
			continue
		}
		if !start.Before(end) {
			continue
		}
		out = append(out, interval.Interval{Start: start, End: end})
	}
	return out, nil
}

// InsertEvent mirrors a reservation as a calendar event and returns the
// event id. Implements reservations.Calendar.
func (c *Client) InsertEvent(ctx context.Context, practitionerID, summary, description string, start, end time.Time) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	svc, err := c.service(ctx, practitionerID)
	if err != nil {
		return "", err
	}

	ev, err := svc.Events.Insert(primaryCalendar, &calendar.Event{
		Summary:     summary,
		Description: description,
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gcal: insert event: %w", err)
	}
	return ev.Id, nil
}

// ListEvents returns timed events between from and to, expanded and ordered
// by start. All-day events carry no DateTime and are skipped.
func (c *Client) ListEvents(ctx context.Context, practitionerID string, from, to time.Time) ([]reservations.CalendarEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	svc, err := c.service(ctx, practitionerID)
	if err != nil {
		return nil, err
	}

	res, err := svc.Events.List(primaryCalendar).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gcal: list events: %w", err)
	}

	var out []reservations.CalendarEvent
	for _, item := range res.Items {
		if item.Id == "" || item.Start == nil || item.End == nil {
			continue
		}
		if item.Start.DateTime == "" || item.End.DateTime == "" {
			continue
		}
		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, item.End.DateTime)
		if err != nil {
			continue
		}
		out = append(out, reservations.CalendarEvent{
			ID:      item.Id,
			Summary: item.Summary,
			Start:   start,
			End:     end,
		})
	}
	return out, nil
}
