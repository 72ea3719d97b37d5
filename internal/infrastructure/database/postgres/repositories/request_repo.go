package repositories

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
	"github.com/turtacn/CivicPulse/internal/infrastructure/database/postgres"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

type requestRow struct {
	ID             string          `db:"service_request_num"`
	Type           string          `db:"sr_type"`
	Street         string          `db:"street"`
	Neighborhood   string          `db:"neighborhood"`
	Latitude       sql.NullFloat64 `db:"latitude"`
	Longitude      sql.NullFloat64 `db:"longitude"`
	CreatedAt      sql.NullTime    `db:"created_at"`
	Status         string          `db:"status"`
	StatusAt       sql.NullTime    `db:"status_at"`
	ResolutionDays sql.NullFloat64 `db:"resolution_days"`
}

func toRequestRow(r *servicerequest.ServiceRequest) requestRow {
	return requestRow{
		ID:             r.ID,
		Type:           r.Type,
		Street:         r.Street,
		Neighborhood:   r.Neighborhood,
		Latitude:       nullFloat(r.Latitude),
		Longitude:      nullFloat(r.Longitude),
		CreatedAt:      nullTime(r.CreatedAt),
		Status:         r.Status,
		StatusAt:       nullTime(r.StatusAt),
		ResolutionDays: nullFloatPtr(r.ResolutionDays),
	}
}

func (row *requestRow) toDomain() servicerequest.ServiceRequest {
	return servicerequest.ServiceRequest{
		ID:             row.ID,
		Type:           row.Type,
		Street:         row.Street,
		Neighborhood:   row.Neighborhood,
		Latitude:       floatOrNaN(row.Latitude),
		Longitude:      floatOrNaN(row.Longitude),
		CreatedAt:      timePtr(row.CreatedAt),
		Status:         row.Status,
		StatusAt:       timePtr(row.StatusAt),
		ResolutionDays: floatPtr(row.ResolutionDays),
	}
}

const (
	selectRequestsSQL = `
		SELECT service_request_num, sr_type, street, neighborhood, latitude, longitude,
		       created_at, status, status_at, resolution_days
		FROM service_requests
		ORDER BY service_request_num`

	upsertRequestSQL = `
		INSERT INTO service_requests (
			service_request_num, sr_type, street, neighborhood, latitude, longitude,
			created_at, status, status_at, resolution_days
		) VALUES (
			:service_request_num, :sr_type, :street, :neighborhood, :latitude, :longitude,
			:created_at, :status, :status_at, :resolution_days
		)
		ON CONFLICT (service_request_num) DO UPDATE SET
			sr_type = EXCLUDED.sr_type,
			street = EXCLUDED.street,
			neighborhood = EXCLUDED.neighborhood,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			created_at = EXCLUDED.created_at,
			status = EXCLUDED.status,
			status_at = EXCLUDED.status_at,
			resolution_days = EXCLUDED.resolution_days,
			imported_at = NOW()`
)

// RequestRepository stores service-request snapshots. It is a
// servicerequest.RequestSource.
type RequestRepository struct {
	db  *sqlx.DB
	log logging.Logger
}

// NewRequestRepository binds the repository to conn.
func NewRequestRepository(conn *postgres.Connection, log logging.Logger) *RequestRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &RequestRepository{db: conn.DBX(), log: log}
}

var _ servicerequest.RequestSource = (*RequestRepository)(nil)

// LoadRequests reads the staged snapshot. A staged table carries every
// optional column, so the dataset reports AllFields.
func (r *RequestRepository) LoadRequests(ctx context.Context) (*servicerequest.Dataset, error) {
	var rows []requestRow
	if err := r.db.SelectContext(ctx, &rows, selectRequestsSQL); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceUnavailable, "failed to load service requests")
	}

	records := make([]servicerequest.ServiceRequest, len(rows))
	for i := range rows {
		records[i] = rows[i].toDomain()
	}
	r.log.Debug("Loaded service requests from staging", logging.Int("count", len(records)))
	return servicerequest.NewDataset(records, servicerequest.AllFields), nil
}

// Import upserts records in one transaction and returns how many were
// written.
func (r *RequestRepository) Import(ctx context.Context, records []servicerequest.ServiceRequest) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareNamedContext(ctx, upsertRequestSQL)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to prepare request upsert")
		}
		defer stmt.Close()

		for i := range records {
			if records[i].ID == "" {
				return errors.Newf(errors.ErrCodeValidation, "record %d has no service request number", i)
			}
			if _, err := stmt.ExecContext(ctx, toRequestRow(&records[i])); err != nil {
				return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to upsert service request").
					WithDetail(records[i].ID)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.log.Info("Imported service requests", logging.Int("count", len(records)))
	return len(records), nil
}

// Count returns the number of staged requests.
func (r *RequestRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM service_requests`); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count service requests")
	}
	return n, nil
}

//Personal.AI order the ending
