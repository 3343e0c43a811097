package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nvarela/terapia-platform/internal/interval"
)

// ErrSlotTaken is the conflict error for a slot that was claimed between the
// availability check and the booking attempt. Handlers surface it as 409.
var ErrSlotTaken = errors.New("reservations: slot no longer available")

// ErrNotFound is returned when a reservation id does not exist.
var ErrNotFound = errors.New("reservations: not found")

// exclusionViolation is the Postgres error code raised by the sessions
// no-overlap exclusion constraint.
const exclusionViolation = "23P01"

type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository stores reservations in Postgres.
type Repository struct {
	db db
}

// NewRepository initializes a repo backed by pgxpool (or a mock in tests).
func NewRepository(db db) *Repository {
	if db == nil {
		panic("reservations: db required")
	}
	return &Repository{db: db}
}

const reservationColumns = `id, practitioner_id, patient_id, guest_name, guest_phone,
	start_time, end_time, status, notes, google_event_id,
	reminder_24h_sent, reminder_1h_sent, created_at`

func scanReservation(row pgx.Row) (*Reservation, error) {
	var r Reservation
	if err := row.Scan(
		&r.ID,
		&r.PractitionerID,
		&r.PatientID,
		&r.GuestName,
		&r.GuestPhone,
		&r.Start,
		&r.End,
		&r.Status,
		&r.Notes,
		&r.GoogleEventID,
		&r.Reminder24hSent,
		&r.Reminder1hSent,
		&r.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &r, nil
}

func collectReservations(rows pgx.Rows) ([]Reservation, error) {
	defer rows.Close()
	var out []Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("reservations: scan: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reservations: rows: %w", err)
	}
	return out, nil
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// FindOverlapping returns reservations in the given statuses whose interval
// collides with iv under half-open semantics. The WHERE clause is the SQL
// mirror of interval.Overlaps: start_time < iv.End AND end_time > iv.Start.
func (r *Repository) FindOverlapping(ctx context.Context, practitionerID string, iv interval.Interval, statuses []Status) ([]Reservation, error) {
	if err := iv.Validate(); err != nil {
		return nil, err
	}
	query := `
		SELECT ` + reservationColumns + `
		FROM sessions
		WHERE practitioner_id = $1
		  AND status = ANY($2)
		  AND start_time < $3
		  AND end_time > $4
		ORDER BY start_time ASC
	`
	rows, err := r.db.Query(ctx, query, practitionerID, statusStrings(statuses), iv.End, iv.Start)
	if err != nil {
		return nil, fmt.Errorf("reservations: find overlapping: %w", err)
	}
	return collectReservations(rows)
}

// CreateIfFree inserts a reservation only if no active reservation overlaps
// it, all inside one transaction. A per-practitioner advisory lock serializes
// concurrent bookings so no second transaction can interleave between the
// overlap check and the insert; the table's exclusion constraint backstops
// the same invariant at the store level.
func (r *Repository) CreateIfFree(ctx context.Context, res *Reservation) (*Reservation, error) {
	if err := res.Interval().Validate(); err != nil {
		return nil, err
	}
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if res.Status == "" {
		res.Status = StatusScheduled
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("reservations: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, res.PractitionerID); err != nil {
		return nil, fmt.Errorf("reservations: acquire booking lock: %w", err)
	}

	var conflicts int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM sessions
		WHERE practitioner_id = $1
		  AND status = ANY($2)
		  AND start_time < $3
		  AND end_time > $4
	`, res.PractitionerID, statusStrings(ActiveStatuses), res.End, res.Start).Scan(&conflicts)
	if err != nil {
		return nil, fmt.Errorf("reservations: conflict check: %w", err)
	}
	if conflicts > 0 {
		return nil, ErrSlotTaken
	}

	var createdAt time.Time
	err = tx.QueryRow(ctx, `
		INSERT INTO sessions (id, practitioner_id, patient_id, guest_name, guest_phone,
			start_time, end_time, status, notes, google_event_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`,
		res.ID,
		res.PractitionerID,
		res.PatientID,
		res.GuestName,
		res.GuestPhone,
		res.Start,
		res.End,
		string(res.Status),
		res.Notes,
		res.GoogleEventID,
	).Scan(&createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("reservations: insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("reservations: commit: %w", err)
	}

	res.CreatedAt = createdAt
	return res, nil
}

// GetByID fetches a single reservation.
func (r *Repository) GetByID(ctx context.Context, id string) (*Reservation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM sessions WHERE id = $1`, id)
	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reservations: get: %w", err)
	}
	return res, nil
}

// ListRange returns a practitioner's reservations starting within [from, to),
// ordered by start time.
func (r *Repository) ListRange(ctx context.Context, practitionerID string, from, to time.Time) ([]Reservation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM sessions
		WHERE practitioner_id = $1
		  AND start_time >= $2
		  AND start_time < $3
		ORDER BY start_time ASC
	`, practitionerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("reservations: list range: %w", err)
	}
	return collectReservations(rows)
}

// BusyIntervals returns the occupied intervals for slot computation: active
// reservations overlapping [from, to).
func (r *Repository) BusyIntervals(ctx context.Context, practitionerID string, from, to time.Time) ([]interval.Interval, error) {
	rows, err := r.db.Query(ctx, `
		SELECT start_time, end_time
		FROM sessions
		WHERE practitioner_id = $1
		  AND status = ANY($2)
		  AND start_time < $3
		  AND end_time > $4
		ORDER BY start_time ASC
	`, practitionerID, statusStrings(ActiveStatuses), to, from)
	if err != nil {
		return nil, fmt.Errorf("reservations: busy intervals: %w", err)
	}
	defer rows.Close()

	var out []interval.Interval
	for rows.Next() {
		var iv interval.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, fmt.Errorf("reservations: scan busy: %w", err)
		}
		out = append(out, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reservations: rows: %w", err)
	}
	return out, nil
}

// UpdateStatus transitions a reservation to a new status.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE sessions SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("reservations: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReminderKind names one of the two reminder flags.
type ReminderKind string

const (
	Reminder24h ReminderKind = "24h"
	Reminder1h  ReminderKind = "1h"
)

func (k ReminderKind) column() (string, error) {
	switch k {
	case Reminder24h:
		return "reminder_24h_sent", nil
	case Reminder1h:
		return "reminder_1h_sent", nil
	}
	return "", fmt.Errorf("reservations: unknown reminder kind %q", k)
}

// SetReminderSent flips a reminder flag with compare-and-set semantics: the
// update only applies when the flag is still false, so concurrent sweeps
// claim each reminder at most once. Returns true when this caller won the
// claim.
func (r *Repository) SetReminderSent(ctx context.Context, id string, kind ReminderKind) (bool, error) {
	col, err := kind.column()
	if err != nil {
		return false, err
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE sessions SET `+col+` = TRUE WHERE id = $1 AND `+col+` = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("reservations: set reminder sent: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ClearReminderSent releases a claimed reminder flag after a failed dispatch
// so the next sweep retries.
func (r *Repository) ClearReminderSent(ctx context.Context, id string, kind ReminderKind) error {
	col, err := kind.column()
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx,
		`UPDATE sessions SET `+col+` = FALSE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("reservations: clear reminder sent: %w", err)
	}
	return nil
}

// ListDueForReminders returns active reservations starting within the next
// 25 hours that still have an unsent reminder flag.
func (r *Repository) ListDueForReminders(ctx context.Context, now time.Time) ([]Reservation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM sessions
		WHERE status = ANY($1)
		  AND start_time > $2
		  AND start_time <= $3
		  AND (reminder_24h_sent = FALSE OR reminder_1h_sent = FALSE)
		ORDER BY start_time ASC
	`, statusStrings(ActiveStatuses), now, now.Add(25*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("reservations: list due: %w", err)
	}
	return collectReservations(rows)
}

// SetGoogleEventID records the external mirror identifier after a successful
// calendar insert.
func (r *Repository) SetGoogleEventID(ctx context.Context, id, eventID string) error {
	tag, err := r.db.Exec(ctx, `UPDATE sessions SET google_event_id = $2 WHERE id = $1`, id, eventID)
	if err != nil {
		return fmt.Errorf("reservations: set google event id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByGoogleEventID finds the reservation mirrored from a calendar event.
func (r *Repository) GetByGoogleEventID(ctx context.Context, eventID string) (*Reservation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM sessions WHERE google_event_id = $1`, eventID)
	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reservations: get by event id: %w", err)
	}
	return res, nil
}

// UpdateTimes moves a reservation, used when an external calendar event was
// rescheduled outside this system.
func (r *Repository) UpdateTimes(ctx context.Context, id string, start, end time.Time) error {
	iv := interval.Interval{Start: start, End: end}
	if err := iv.Validate(); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE sessions SET start_time = $2, end_time = $3 WHERE id = $1`, id, start, end)
	if err != nil {
		return fmt.Errorf("reservations: update times: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
