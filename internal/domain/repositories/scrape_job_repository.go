package repositories

import (
	"context"

	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/entities"
)

// ScrapeJobRepository records background scrape runs for operational
// visibility. Write failures are logged and swallowed by callers; job
// tracking must never affect scrape results.
type ScrapeJobRepository interface {
	Create(ctx context.Context, job *entities.ScrapeJob) error
	Update(ctx context.Context, job *entities.ScrapeJob) error
}
