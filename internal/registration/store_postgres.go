package registration

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"bloodlink/internal/screening"
	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
	txcontext "bloodlink/pkg/platform/tx"
)

const pgUniqueViolation = "23505"

// PostgresStore persists registrations. The unique-active-(donor,event)
// invariant is enforced by a partial unique index; the pending guard on
// transitions and withdrawals is a conditional UPDATE/DELETE so concurrent
// decisions serialize inside Postgres.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, reg *Registration) error {
	form, err := json.Marshal(reg.Form)
	if err != nil {
		return fmt.Errorf("marshal screening form: %w", err)
	}

	query := `
		INSERT INTO registrations (id, donor_id, event_id, status, form, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(reg.ID),
		uuid.UUID(reg.DonorID),
		uuid.UUID(reg.EventID),
		string(reg.Status),
		form,
		reg.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.RegistrationID) (*Registration, error) {
	row := s.execer(ctx).QueryRowContext(ctx, selectRegistration+` WHERE id = $1`, uuid.UUID(id))
	return scanRegistration(row)
}

func (s *PostgresStore) FindActiveByDonorEvent(ctx context.Context, donorID domain.DonorID, eventID domain.EventID) (*Registration, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		selectRegistration+` WHERE donor_id = $1 AND event_id = $2 AND status IN ('pending', 'approved')`,
		uuid.UUID(donorID), uuid.UUID(eventID))
	return scanRegistration(row)
}

func (s *PostgresStore) ListByDonor(ctx context.Context, donorID domain.DonorID) ([]*Registration, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		selectRegistration+` WHERE donor_id = $1 ORDER BY created_at DESC`, uuid.UUID(donorID))
	if err != nil {
		return nil, fmt.Errorf("query registrations by donor: %w", err)
	}
	defer rows.Close()
	return scanRegistrations(rows)
}

func (s *PostgresStore) ListByEvent(ctx context.Context, eventID domain.EventID) ([]*Registration, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		selectRegistration+` WHERE event_id = $1 ORDER BY created_at DESC`, uuid.UUID(eventID))
	if err != nil {
		return nil, fmt.Errorf("query registrations by event: %w", err)
	}
	defer rows.Close()
	return scanRegistrations(rows)
}

// UpdateStatusIfPending is the compare-and-set transition. The WHERE clause
// carries the pending guard; a zero rows-affected result means another
// decision won the race (or the id is unknown).
func (s *PostgresStore) UpdateStatusIfPending(ctx context.Context, id domain.RegistrationID, next Status, review ReviewNote, appointment *Appointment) error {
	var apptDate sql.NullTime
	var apptSlot sql.NullString
	if appointment != nil {
		apptDate = sql.NullTime{Time: appointment.Date, Valid: true}
		apptSlot = sql.NullString{String: appointment.Slot, Valid: appointment.Slot != ""}
	}

	query := `
		UPDATE registrations
		SET status = $2,
		    reviewer_id = $3,
		    review_note = $4,
		    review_reason_tags = $5,
		    decided_at = $6,
		    appointment_date = $7,
		    appointment_slot = $8
		WHERE id = $1 AND status = 'pending'
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(id),
		string(next),
		uuid.UUID(review.ReviewerID),
		review.Note,
		pq.Array(review.ReasonTags),
		review.DecidedAt,
		apptDate,
		apptSlot,
	)
	if err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return s.classifyGuardFailure(ctx, id)
	}
	return nil
}

func (s *PostgresStore) DeleteIfPending(ctx context.Context, id domain.RegistrationID) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM registrations WHERE id = $1 AND status = 'pending'`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return s.classifyGuardFailure(ctx, id)
	}
	return nil
}

// classifyGuardFailure distinguishes "record is not pending" from "record
// does not exist" after a guarded write touched zero rows.
func (s *PostgresStore) classifyGuardFailure(ctx context.Context, id domain.RegistrationID) error {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE id = $1)`, uuid.UUID(id)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check registration existence: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

const selectRegistration = `
	SELECT id, donor_id, event_id, status, form,
	       appointment_date, appointment_slot,
	       reviewer_id, review_note, review_reason_tags, decided_at,
	       created_at
	FROM registrations
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (*Registration, error) {
	var (
		reg        Registration
		id         uuid.UUID
		donorID    uuid.UUID
		eventID    uuid.UUID
		status     string
		form       []byte
		apptDate   sql.NullTime
		apptSlot   sql.NullString
		reviewerID *uuid.UUID
		reviewNote sql.NullString
		reasonTags pq.StringArray
		decidedAt  sql.NullTime
	)

	err := row.Scan(
		&id, &donorID, &eventID, &status, &form,
		&apptDate, &apptSlot,
		&reviewerID, &reviewNote, &reasonTags, &decidedAt,
		&reg.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan registration: %w", err)
	}

	reg.ID = domain.RegistrationID(id)
	reg.DonorID = domain.DonorID(donorID)
	reg.EventID = domain.EventID(eventID)
	reg.Status = Status(status)

	var screeningForm screening.Form
	if err := json.Unmarshal(form, &screeningForm); err != nil {
		return nil, fmt.Errorf("unmarshal screening form: %w", err)
	}
	reg.Form = screeningForm

	if apptDate.Valid {
		reg.Appointment = &Appointment{Date: apptDate.Time, Slot: apptSlot.String}
	}
	if reviewerID != nil {
		reg.Review = &ReviewNote{
			ReviewerID: domain.OrganizationID(*reviewerID),
			Note:       reviewNote.String,
			ReasonTags: []string(reasonTags),
			DecidedAt:  decidedTime(decidedAt),
		}
	}
	return &reg, nil
}

func scanRegistrations(rows *sql.Rows) ([]*Registration, error) {
	var out []*Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}
	return out, nil
}

func decidedTime(t sql.NullTime) time.Time {
	if t.Valid {
		return t.Time
	}
	return time.Time{}
}
