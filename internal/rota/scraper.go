package rota

import (
	"bytes"
	"context"
	"log"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/entities"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/providers"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/infrastructure/clients/rotapage"
)

// Scraper implements providers.RotaSource against live rota pages:
// fetch, parse, extract. Its contract is that it never fails: transport
// errors become the result's Error field, and an unparseable page degrades
// to zero shifts, since "nothing extractable" and "no shifts listed" are
// indistinguishable from the outside.
type Scraper struct {
	pages *rotapage.Client
	now   func() time.Time
}

// NewScraper creates a scraper over the given page client.
func NewScraper(pages *rotapage.Client) *Scraper {
	return &Scraper{
		pages: pages,
		now:   time.Now,
	}
}

var _ providers.RotaSource = (*Scraper)(nil)

// Scrape fetches and extracts one clinic's rota.
func (s *Scraper) Scrape(ctx context.Context, clinic entities.Clinic) entities.ScrapeResult {
	now := s.now()
	result := entities.ScrapeResult{
		Clinic:      clinic.Name,
		Shifts:      []entities.ShiftRecord{},
		LastUpdated: now,
	}

	body, err := s.pages.FetchPage(ctx, clinic.URL)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		log.Printf("[rota] %s: unparseable page treated as empty rota: %v", clinic.Name, err)
		return result
	}

	result.Shifts = ExtractShifts(doc, clinic.Name, now)
	return result
}
