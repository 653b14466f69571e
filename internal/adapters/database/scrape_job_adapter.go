package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/entities"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/repositories"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/infrastructure/clients/postgres"
	apperrors "github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/pkg/errors"
)

// ScrapeJobAdapter implements ScrapeJobRepository over the scrape_jobs
// audit table.
type ScrapeJobAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewScrapeJobAdapter creates a new scrape job adapter
func NewScrapeJobAdapter(client *postgres.Client) repositories.ScrapeJobRepository {
	return &ScrapeJobAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create records the start of a scrape job
func (a *ScrapeJobAdapter) Create(ctx context.Context, job *entities.ScrapeJob) error {
	record := goqu.Record{
		"id":              job.ID,
		"status":          string(job.Status),
		"started_at":      job.StartedAt,
		"clinics_scraped": job.ClinicsScraped,
		"error":           sql.NullString{String: job.Error, Valid: job.Error != ""},
	}

	query, args, err := a.db.Insert("scrape_jobs").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create scrape job", err)
	}

	return nil
}

// Update records the outcome of a scrape job
func (a *ScrapeJobAdapter) Update(ctx context.Context, job *entities.ScrapeJob) error {
	record := goqu.Record{
		"status":          string(job.Status),
		"clinics_scraped": job.ClinicsScraped,
		"error":           sql.NullString{String: job.Error, Valid: job.Error != ""},
	}
	if job.CompletedAt != nil {
		record["completed_at"] = *job.CompletedAt
	}

	query, args, err := a.db.Update("scrape_jobs").
		Set(record).
		Where(goqu.Ex{"id": job.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update scrape job", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("scrape job with id %s not found", job.ID))
	}

	return nil
}
