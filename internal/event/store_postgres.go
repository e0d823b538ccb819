package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// PostgresDirectory reads events from the shared events table. This service
// never writes to it; event CRUD belongs to the organization/hospital portal.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) Lookup(ctx context.Context, id domain.EventID) (*Event, error) {
	query := `
		SELECT id, name, start_date, end_date, owner_org_id, hospital_id, approved
		FROM events
		WHERE id = $1
	`

	var (
		e          Event
		eventID    uuid.UUID
		ownerOrgID uuid.UUID
		hospitalID uuid.UUID
	)
	err := d.db.QueryRowContext(ctx, query, uuid.UUID(id)).Scan(
		&eventID,
		&e.Name,
		&e.StartDate,
		&e.EndDate,
		&ownerOrgID,
		&hospitalID,
		&e.Approved,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query event: %w", err)
	}

	e.ID = domain.EventID(eventID)
	e.OwnerOrgID = domain.OrganizationID(ownerOrgID)
	e.HospitalID = domain.HospitalID(hospitalID)
	return &e, nil
}
