package providers

import (
	"context"

	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/entities"
)

// RotaSource scrapes one clinic's rota page. Implementations never return
// an error: every failure mode (transport, parse, timeout) is normalized
// into the result's Error field so that callers can fan out across a fleet
// without any single clinic aborting the batch.
type RotaSource interface {
	Scrape(ctx context.Context, clinic entities.Clinic) entities.ScrapeResult
}
