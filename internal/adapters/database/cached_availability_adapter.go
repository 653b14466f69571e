package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/entities"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/providers"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/repositories"
)

// CachedAvailabilityAdapter wraps AvailabilityAdapter with a Redis
// read-through layer. The TTL is short relative to the freshness
// threshold: Redis only shields the database from request bursts, while
// staleness decisions stay with the service layer.
type CachedAvailabilityAdapter struct {
	adapter repositories.AvailabilityRepository
	cache   providers.CacheProvider
}

// NewCachedAvailabilityAdapter creates a new cached availability adapter
func NewCachedAvailabilityAdapter(adapter repositories.AvailabilityRepository, cache providers.CacheProvider) repositories.AvailabilityRepository {
	return &CachedAvailabilityAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// Cache TTL (in seconds)
const fleetEntriesTTL = 60

func fleetCacheKey(clinicNames []string) string {
	sorted := make([]string, len(clinicNames))
	copy(sorted, clinicNames)
	sort.Strings(sorted)
	return fmt.Sprintf("availability:fleet:%s", strings.Join(sorted, ","))
}

// FindMany retrieves cache entries for the named clinics, consulting
// Redis before the database.
func (a *CachedAvailabilityAdapter) FindMany(ctx context.Context, clinicNames []string) ([]*entities.AvailabilityRecord, error) {
	cacheKey := fleetCacheKey(clinicNames)

	// Try to get from cache first
	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var records []*entities.AvailabilityRecord
		if err := json.Unmarshal(cached, &records); err != nil {
			// Corrupt entry; fall through to the database
			log.Printf("Failed to unmarshal cached fleet entries: %v", err)
		} else {
			return records, nil
		}
	}

	// Cache miss - fetch from database
	records, err := a.adapter.FindMany(ctx, clinicNames)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously to avoid blocking the response
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(records); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, fleetEntriesTTL); err != nil {
				log.Printf("Failed to cache fleet entries: %v", err)
			}
		}
	}()

	return records, nil
}

// Upsert writes through to the database and drops the Redis entry so the
// next read observes the new state.
func (a *CachedAvailabilityAdapter) Upsert(ctx context.Context, record *entities.AvailabilityRecord) error {
	if err := a.adapter.Upsert(ctx, record); err != nil {
		return err
	}

	// Upserts arrive per clinic but the cache is keyed per fleet query;
	// dropping single-clinic keys is the best effort available here, and
	// the short TTL bounds how long a fleet key can stay stale.
	if err := a.cache.Delete(ctx, fleetCacheKey([]string{record.ClinicName})); err != nil {
		log.Printf("Failed to invalidate fleet cache for %s: %v", record.ClinicName, err)
	}

	return nil
}
