package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/entities"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/repositories"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/infrastructure/clients/postgres"
	apperrors "github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/pkg/errors"
)

// AvailabilityAdapter implements AvailabilityRepository over the
// clinic_availability table. Shifts are stored as a JSONB document since
// rows are only ever read back whole, per clinic.
type AvailabilityAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAvailabilityAdapter creates a new availability adapter
func NewAvailabilityAdapter(client *postgres.Client) repositories.AvailabilityRepository {
	return &AvailabilityAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// FindMany retrieves the cache entries for the named clinics. Clinics
// without an entry are simply absent from the result; the caller decides
// what a missing entry means.
func (a *AvailabilityAdapter) FindMany(ctx context.Context, clinicNames []string) ([]*entities.AvailabilityRecord, error) {
	if len(clinicNames) == 0 {
		return []*entities.AvailabilityRecord{}, nil
	}

	query, args, err := a.db.Select(
		"clinic_name", "shifts", "last_updated", "last_scraped", "scrape_error",
	).From("clinic_availability").
		Where(goqu.Ex{"clinic_name": clinicNames}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query clinic availability", err)
	}
	defer rows.Close()

	records := []*entities.AvailabilityRecord{}
	for rows.Next() {
		record := &entities.AvailabilityRecord{}
		var shifts []byte
		var scrapeError sql.NullString

		if err := rows.Scan(
			&record.ClinicName,
			&shifts,
			&record.LastUpdated,
			&record.LastScraped,
			&scrapeError,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan availability record", err)
		}

		if err := json.Unmarshal(shifts, &record.Shifts); err != nil {
			// A corrupt document should not take the whole fleet read
			// down; the entry counts as stale instead.
			log.Printf("skipping corrupt shifts document for clinic %s: %v", record.ClinicName, err)
			continue
		}
		record.ScrapeError = scrapeError.String
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate availability records", err)
	}

	return records, nil
}

// Upsert inserts or replaces the cache entry for one clinic.
func (a *AvailabilityAdapter) Upsert(ctx context.Context, record *entities.AvailabilityRecord) error {
	shifts, err := json.Marshal(record.Shifts)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal shifts", err)
	}

	row := goqu.Record{
		"clinic_name":  record.ClinicName,
		"shifts":       shifts,
		"last_updated": record.LastUpdated,
		"last_scraped": record.LastScraped,
		"scrape_error": sql.NullString{String: record.ScrapeError, Valid: record.ScrapeError != ""},
	}

	query, args, err := a.db.Insert("clinic_availability").
		Rows(row).
		OnConflict(goqu.DoUpdate("clinic_name", row)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert clinic availability", err)
	}

	return nil
}
