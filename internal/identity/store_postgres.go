package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// PostgresDirectory reads donor projections from the shared donors table.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) Lookup(ctx context.Context, id domain.DonorID) (*Donor, error) {
	query := `
		SELECT id, full_name, COALESCE(self_reported_blood_type, '')
		FROM donors
		WHERE id = $1
	`

	var (
		donor     Donor
		donorID   uuid.UUID
		bloodType string
	)
	err := d.db.QueryRowContext(ctx, query, uuid.UUID(id)).Scan(&donorID, &donor.FullName, &bloodType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query donor: %w", err)
	}

	donor.ID = domain.DonorID(donorID)
	donor.SelfReportedBloodType = domain.BloodType(bloodType)
	return &donor, nil
}
