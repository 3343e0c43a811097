// Package reservations owns the session reservation model and the atomic
// booking transaction that prevents double bookings.
package reservations

import (
	"fmt"
	"time"

	"github.com/nvarela/terapia-platform/internal/interval"
)

// Status is the closed set of reservation states. Cancellation is a status
// transition; reservations are never hard-deleted.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusNoShow    Status = "NO_SHOW"
)

// ActiveStatuses are the states that occupy time for conflict purposes.
var ActiveStatuses = []Status{StatusScheduled, StatusConfirmed}

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return Status(s), nil
	}
	return "", fmt.Errorf("reservations: unknown status %q", s)
}

// Occupies reports whether a reservation in this status blocks its interval.
func (s Status) Occupies() bool {
	switch s {
	case StatusScheduled, StatusConfirmed:
		return true
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return false
	}
	return false
}

// Reservation is a booked session. GuestName/GuestPhone are set for public
// bookings that did not match an existing patient; GoogleEventID is nil until
// the external calendar mirror succeeds.
type Reservation struct {
	ID              string    `json:"id"`
	PractitionerID  string    `json:"practitioner_id"`
	PatientID       *string   `json:"patient_id,omitempty"`
	GuestName       *string   `json:"guest_name,omitempty"`
	GuestPhone      *string   `json:"guest_phone,omitempty"`
	Start           time.Time `json:"start_time"`
	End             time.Time `json:"end_time"`
	Status          Status    `json:"status"`
	Notes           *string   `json:"notes,omitempty"`
	GoogleEventID   *string   `json:"google_event_id,omitempty"`
	Reminder24hSent bool      `json:"reminder_24h_sent"`
	Reminder1hSent  bool      `json:"reminder_1h_sent"`
	CreatedAt       time.Time `json:"created_at"`
}

// Interval returns the reserved half-open time range.
func (r *Reservation) Interval() interval.Interval {
	return interval.Interval{Start: r.Start, End: r.End}
}

// Phone returns the number reminders go to, preferring the guest phone
// captured at booking time.
func (r *Reservation) Phone() string {
	if r.GuestPhone != nil && *r.GuestPhone != "" {
		return *r.GuestPhone
	}
	return ""
}

// DisplayName returns the name used in notifications.
func (r *Reservation) DisplayName() string {
	if r.GuestName != nil && *r.GuestName != "" {
		return *r.GuestName
	}
	return "Paciente"
}
