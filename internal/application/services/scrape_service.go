package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/entities"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/providers"
)

// ScrapeService fans one scrape per clinic out onto its own goroutine.
// Clinic failures are isolated: every configured clinic produces exactly
// one result, in directory order, no matter how the others fare.
type ScrapeService struct {
	source providers.RotaSource
}

// NewScrapeService creates a new scrape service
func NewScrapeService(source providers.RotaSource) *ScrapeService {
	return &ScrapeService{source: source}
}

// ScrapeAll scrapes every clinic concurrently and returns one result per
// clinic in input order. A non-nil window filters each clinic's shifts to
// the inclusive date range after scraping; stored data is never filtered.
func (s *ScrapeService) ScrapeAll(ctx context.Context, clinics []entities.Clinic, window *entities.DateRange) []entities.ScrapeResult {
	results := make([]entities.ScrapeResult, len(clinics))

	var wg sync.WaitGroup
	for i, clinic := range clinics {
		wg.Add(1)
		go func(i int, clinic entities.Clinic) {
			defer wg.Done()
			results[i] = s.scrapeOne(ctx, clinic)
		}(i, clinic)
	}
	wg.Wait()

	if window != nil {
		for i := range results {
			results[i].Shifts = window.FilterShifts(results[i].Shifts)
		}
	}

	return results
}

// scrapeOne runs a single scrape, converting a panicking source into an
// error result so one clinic cannot take the fleet down.
func (s *ScrapeService) scrapeOne(ctx context.Context, clinic entities.Clinic) (result entities.ScrapeResult) {
	defer func() {
		if r := recover(); r != nil {
			result = entities.ScrapeResult{
				Clinic:      clinic.Name,
				Shifts:      []entities.ShiftRecord{},
				LastUpdated: time.Now(),
				Error:       fmt.Sprintf("scrape panicked: %v", r),
			}
		}
	}()
	return s.source.Scrape(ctx, clinic)
}
