package repositories

import (
	"context"

	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/entities"
)

// AvailabilityRepository persists per-clinic scrape outcomes keyed by
// clinic name. The service layer treats the repository as optional: when
// no datastore is configured it live-scrapes on every call instead.
type AvailabilityRepository interface {
	// FindMany returns the stored records for the given clinic names.
	// Missing clinics are simply absent from the result.
	FindMany(ctx context.Context, clinicNames []string) ([]*entities.AvailabilityRecord, error)

	// Upsert inserts or replaces the record for one clinic.
	Upsert(ctx context.Context, record *entities.AvailabilityRecord) error
}
