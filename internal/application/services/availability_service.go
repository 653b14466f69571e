package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/entities"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/repositories"
)

// FleetQuery carries the caller-controlled knobs of a fleet read.
type FleetQuery struct {
	// Window, when non-nil, restricts returned shifts to the inclusive
	// date range. Persisted data is never windowed.
	Window *entities.DateRange
	// ForceRefresh bypasses the cache and scrapes live.
	ForceRefresh bool
}

// AvailabilityService answers fleet availability questions, serving from
// the persisted cache while every entry is fresh and error-free and
// falling back to a live fleet scrape otherwise. A nil repository puts
// the service in live-only mode.
type AvailabilityService struct {
	clinics   []entities.Clinic
	scraper   *ScrapeService
	repo      repositories.AvailabilityRepository
	jobs      repositories.ScrapeJobRepository
	freshness time.Duration
	now       func() time.Time
}

// NewAvailabilityService creates a new availability service. repo and
// jobs may be nil when no database is configured.
func NewAvailabilityService(
	clinics []entities.Clinic,
	scraper *ScrapeService,
	repo repositories.AvailabilityRepository,
	jobs repositories.ScrapeJobRepository,
	freshness time.Duration,
) *AvailabilityService {
	return &AvailabilityService{
		clinics:   clinics,
		scraper:   scraper,
		repo:      repo,
		jobs:      jobs,
		freshness: freshness,
		now:       time.Now,
	}
}

// Clinics returns the configured clinic directory.
func (s *AvailabilityService) Clinics() []entities.Clinic {
	return s.clinics
}

// GetFleetAvailability serves the fleet either from cache or live. Cache
// hits require every configured clinic to have a fresh, error-free entry;
// anything less triggers a full live scrape, since a partial cache read
// would silently misreport the missing clinics.
func (s *AvailabilityService) GetFleetAvailability(ctx context.Context, query FleetQuery) (*entities.FleetAvailability, error) {
	if s.repo != nil && !query.ForceRefresh {
		if fleet, ok := s.fleetFromCache(ctx, query.Window); ok {
			return fleet, nil
		}
	}

	results := s.scraper.ScrapeAll(ctx, s.clinics, nil)
	s.persistResults(context.WithoutCancel(ctx), results)

	now := s.now()
	if query.Window != nil {
		for i := range results {
			results[i].Shifts = query.Window.FilterShifts(results[i].Shifts)
		}
	}

	return &entities.FleetAvailability{
		Results:     results,
		Cached:      false,
		LastUpdated: now,
	}, nil
}

// fleetFromCache attempts a cache read. The second return is false when
// the cache cannot answer for the whole fleet.
func (s *AvailabilityService) fleetFromCache(ctx context.Context, window *entities.DateRange) (*entities.FleetAvailability, bool) {
	names := make([]string, len(s.clinics))
	for i, clinic := range s.clinics {
		names[i] = clinic.Name
	}

	entries, err := s.repo.FindMany(ctx, names)
	if err != nil {
		log.Printf("fleet cache read failed, scraping live: %v", err)
		return nil, false
	}
	if !IsFleetFresh(entries, names, s.freshness, s.now()) {
		return nil, false
	}

	byName := make(map[string]*entities.AvailabilityRecord, len(entries))
	for _, entry := range entries {
		byName[entry.ClinicName] = entry
	}

	var watermark time.Time
	results := make([]entities.ScrapeResult, len(names))
	for i, name := range names {
		entry := byName[name]
		shifts := entry.Shifts
		if window != nil {
			shifts = window.FilterShifts(shifts)
		}
		if shifts == nil {
			shifts = []entities.ShiftRecord{}
		}
		results[i] = entities.ScrapeResult{
			Clinic:      name,
			Shifts:      shifts,
			LastUpdated: entry.LastUpdated,
		}
		if entry.LastUpdated.After(watermark) {
			watermark = entry.LastUpdated
		}
	}

	return &entities.FleetAvailability{
		Results:     results,
		Cached:      true,
		LastUpdated: watermark,
	}, true
}

// IsFleetFresh reports whether the cached entries can answer for the
// whole fleet: every named clinic present, no entry carrying a scrape
// error, and none older than the threshold.
func IsFleetFresh(entries []*entities.AvailabilityRecord, clinicNames []string, threshold time.Duration, now time.Time) bool {
	byName := make(map[string]*entities.AvailabilityRecord, len(entries))
	for _, entry := range entries {
		byName[entry.ClinicName] = entry
	}

	for _, name := range clinicNames {
		entry, ok := byName[name]
		if !ok {
			return false
		}
		if entry.ScrapeError != "" {
			return false
		}
		if now.Sub(entry.LastScraped) >= threshold {
			return false
		}
	}
	return true
}

// RefreshFleet scrapes every clinic and persists the results, recording
// the run in the scrape job audit trail. It returns the number of clinics
// scraped. Audit failures are logged, never fatal: the refresh itself is
// the point.
func (s *AvailabilityService) RefreshFleet(ctx context.Context) int {
	job := &entities.ScrapeJob{
		ID:        uuid.New().String(),
		Status:    entities.JobRunning,
		StartedAt: s.now(),
	}
	if s.jobs != nil {
		if err := s.jobs.Create(ctx, job); err != nil {
			log.Printf("failed to record scrape job start: %v", err)
		}
	}

	results := s.scraper.ScrapeAll(ctx, s.clinics, nil)
	s.persistResults(ctx, results)

	failures := 0
	for _, result := range results {
		if result.Error != "" {
			failures++
		}
	}

	completed := s.now()
	job.Status = entities.JobCompleted
	job.CompletedAt = &completed
	job.ClinicsScraped = len(results)
	if len(results) > 0 && failures == len(results) {
		// Nothing came back; the run produced no usable data.
		job.Status = entities.JobFailed
		job.Error = fmt.Sprintf("all %d clinic scrapes failed", failures)
	}
	if s.jobs != nil {
		if err := s.jobs.Update(ctx, job); err != nil {
			log.Printf("failed to record scrape job completion: %v", err)
		}
	}

	return len(results)
}

// persistResults upserts one cache entry per scrape result. Individual
// upsert failures are logged and skipped so a database hiccup cannot turn
// a successful scrape into a failed request.
func (s *AvailabilityService) persistResults(ctx context.Context, results []entities.ScrapeResult) {
	if s.repo == nil {
		return
	}

	now := s.now()
	for _, result := range results {
		record := &entities.AvailabilityRecord{
			ClinicName:  result.Clinic,
			Shifts:      result.Shifts,
			LastUpdated: result.LastUpdated,
			LastScraped: now,
			ScrapeError: result.Error,
		}
		if err := s.repo.Upsert(ctx, record); err != nil {
			log.Printf("failed to persist availability for clinic %s: %v", result.Clinic, err)
		}
	}
}
