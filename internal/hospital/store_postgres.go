package hospital

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
	txcontext "bloodlink/pkg/platform/tx"
)

const pgUniqueViolation = "23505"

// PostgresResultStore persists donation results. CreateBatch runs inside one
// transaction so a mid-batch failure rolls back every insert.
type PostgresResultStore struct {
	db *sql.DB
}

func NewPostgresResultStore(db *sql.DB) *PostgresResultStore {
	return &PostgresResultStore{db: db}
}

// CreateBatch inserts every result or none. When the context carries an
// ambient transaction (the service's bulk flow), the inserts join it and the
// initiator owns the commit; otherwise the store opens its own transaction.
func (s *PostgresResultStore) CreateBatch(ctx context.Context, results []*DonationResult) error {
	if len(results) == 0 {
		return nil
	}

	if ambient, ok := txcontext.From(ctx); ok {
		return s.insertBatch(ctx, ambient, results)
	}

	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch transaction: %w", err)
	}
	defer dbtx.Rollback()

	if err := s.insertBatch(ctx, dbtx, results); err != nil {
		return err
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit batch transaction: %w", err)
	}
	return nil
}

type dbExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresResultStore) insertBatch(ctx context.Context, execer dbExecer, results []*DonationResult) error {
	query := `
		INSERT INTO donation_results (
			registration_id, donor_id, event_id,
			donation_date, volume_ml, outcome,
			recorded_by, recorded_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, res := range results {
		_, err := execer.ExecContext(ctx, query,
			uuid.UUID(res.RegistrationID),
			uuid.UUID(res.DonorID),
			uuid.UUID(res.EventID),
			res.DonationDate,
			res.VolumeML,
			string(res.Outcome),
			uuid.UUID(res.RecordedBy),
			res.RecordedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("insert donation result: %w", err)
		}
	}
	return nil
}

func (s *PostgresResultStore) FindByRegistration(ctx context.Context, id domain.RegistrationID) (*DonationResult, error) {
	row := s.queryer(ctx).QueryRowContext(ctx,
		selectResult+` WHERE registration_id = $1`, uuid.UUID(id))
	res, err := scanResult(row)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *PostgresResultStore) ListByDonor(ctx context.Context, donorID domain.DonorID) ([]*DonationResult, error) {
	rows, err := s.queryer(ctx).QueryContext(ctx,
		selectResult+` WHERE donor_id = $1 ORDER BY donation_date DESC`, uuid.UUID(donorID))
	if err != nil {
		return nil, fmt.Errorf("query results by donor: %w", err)
	}
	defer rows.Close()

	var out []*DonationResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donation results: %w", err)
	}
	return out, nil
}

func (s *PostgresResultStore) ListDonorIDsByRecorder(ctx context.Context, hospitalID domain.HospitalID) ([]domain.DonorID, error) {
	rows, err := s.queryer(ctx).QueryContext(ctx, `
		SELECT DISTINCT donor_id
		FROM donation_results
		WHERE recorded_by = $1
		ORDER BY donor_id
	`, uuid.UUID(hospitalID))
	if err != nil {
		return nil, fmt.Errorf("query donors by recorder: %w", err)
	}
	defer rows.Close()

	var out []domain.DonorID
	for rows.Next() {
		var donorID uuid.UUID
		if err := rows.Scan(&donorID); err != nil {
			return nil, fmt.Errorf("scan donor id: %w", err)
		}
		out = append(out, domain.DonorID(donorID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donor ids: %w", err)
	}
	return out, nil
}

type dbQueryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresResultStore) queryer(ctx context.Context) dbQueryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const selectResult = `
	SELECT registration_id, donor_id, event_id,
	       donation_date, volume_ml, outcome,
	       recorded_by, recorded_at
	FROM donation_results
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*DonationResult, error) {
	var (
		res            DonationResult
		registrationID uuid.UUID
		donorID        uuid.UUID
		eventID        uuid.UUID
		outcome        string
		recordedBy     uuid.UUID
	)
	err := row.Scan(
		&registrationID, &donorID, &eventID,
		&res.DonationDate, &res.VolumeML, &outcome,
		&recordedBy, &res.RecordedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan donation result: %w", err)
	}

	res.RegistrationID = domain.RegistrationID(registrationID)
	res.DonorID = domain.DonorID(donorID)
	res.EventID = domain.EventID(eventID)
	res.Outcome = Outcome(outcome)
	res.RecordedBy = domain.HospitalID(recordedBy)
	return &res, nil
}

// PostgresBloodTypeStore persists blood-type confirmations with an
// overwrite-in-place upsert keyed on donor.
type PostgresBloodTypeStore struct {
	db *sql.DB
}

func NewPostgresBloodTypeStore(db *sql.DB) *PostgresBloodTypeStore {
	return &PostgresBloodTypeStore{db: db}
}

func (s *PostgresBloodTypeStore) Upsert(ctx context.Context, confirmation *BloodTypeConfirmation) error {
	query := `
		INSERT INTO blood_type_confirmations (
			donor_id, confirmed_type, note,
			confirmed_by, previous_self_reported, confirmed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (donor_id) DO UPDATE SET
			confirmed_type = EXCLUDED.confirmed_type,
			note = EXCLUDED.note,
			confirmed_by = EXCLUDED.confirmed_by,
			previous_self_reported = EXCLUDED.previous_self_reported,
			confirmed_at = EXCLUDED.confirmed_at
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(confirmation.DonorID),
		string(confirmation.ConfirmedType),
		confirmation.Note,
		uuid.UUID(confirmation.ConfirmedBy),
		string(confirmation.PreviousSelfReported),
		confirmation.ConfirmedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert blood type confirmation: %w", err)
	}
	return nil
}

func (s *PostgresBloodTypeStore) FindByDonor(ctx context.Context, donorID domain.DonorID) (*BloodTypeConfirmation, error) {
	query := `
		SELECT donor_id, confirmed_type, note,
		       confirmed_by, previous_self_reported, confirmed_at
		FROM blood_type_confirmations
		WHERE donor_id = $1
	`

	var (
		conf       BloodTypeConfirmation
		dID        uuid.UUID
		confirmed  string
		confirmer  uuid.UUID
		previous   string
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(donorID)).Scan(
		&dID, &confirmed, &conf.Note, &confirmer, &previous, &conf.ConfirmedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query blood type confirmation: %w", err)
	}

	conf.DonorID = domain.DonorID(dID)
	conf.ConfirmedType = domain.BloodType(confirmed)
	conf.ConfirmedBy = domain.HospitalID(confirmer)
	conf.PreviousSelfReported = domain.BloodType(previous)
	return &conf, nil
}
