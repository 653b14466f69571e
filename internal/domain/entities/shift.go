package entities

import (
	"time"
)

// CanonicalDateLayout is the stored form of a normalized shift date.
const CanonicalDateLayout = "2006-01-02"

// ShiftRecord is one staffing slot detected on a rota page. Date holds the
// canonical YYYY-MM-DD form when normalization succeeded, otherwise the raw
// display text from the page. JobRoles is free text and may contain
// duplicates; role presence is checked by case-insensitive substring, not
// by enum.
type ShiftRecord struct {
	Date     string   `json:"date"`
	Time     string   `json:"time,omitempty"`
	JobRoles []string `json:"jobRoles"`
}

// ScrapeResult is the outcome of one scrape attempt against one clinic.
// Failures are represented as data: Error set means Shifts is empty, and
// non-empty Shifts means Error is unset.
type ScrapeResult struct {
	Clinic      string        `json:"clinic"`
	Shifts      []ShiftRecord `json:"shifts"`
	LastUpdated time.Time     `json:"lastUpdated"`
	Error       string        `json:"error,omitempty"`
}

// AvailabilityRecord is the persisted per-clinic cache entry, keyed by
// clinic name. LastScraped drives freshness; LastUpdated is the watermark
// shown to callers.
type AvailabilityRecord struct {
	ClinicName  string        `json:"clinicName"`
	Shifts      []ShiftRecord `json:"shifts"`
	LastUpdated time.Time     `json:"lastUpdated"`
	LastScraped time.Time     `json:"lastScraped"`
	ScrapeError string        `json:"scrapeError,omitempty"`
}

// FleetAvailability is the caller-facing fleet shape: one result per
// configured clinic, a flag saying whether the response was served from
// cache, and the freshness watermark (max LastUpdated when cached).
type FleetAvailability struct {
	Results     []ScrapeResult `json:"results"`
	Cached      bool           `json:"cached"`
	LastUpdated time.Time      `json:"lastUpdated"`
}

// DateRange is an inclusive calendar-day window. Filtering runs from the
// start of day on From through the end of day on To.
type DateRange struct {
	From time.Time
	To   time.Time
}

// FilterShifts returns the shifts whose canonical date falls inside the
// range. Shifts whose date never canonicalized (display-text fallback)
// cannot be compared and are excluded from filtered views.
func (r DateRange) FilterShifts(shifts []ShiftRecord) []ShiftRecord {
	start := time.Date(r.From.Year(), r.From.Month(), r.From.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(r.To.Year(), r.To.Month(), r.To.Day(), 23, 59, 59, 999999999, time.UTC)

	filtered := make([]ShiftRecord, 0, len(shifts))
	for _, shift := range shifts {
		day, err := time.Parse(CanonicalDateLayout, shift.Date)
		if err != nil {
			continue
		}
		if !day.Before(start) && !day.After(end) {
			filtered = append(filtered, shift)
		}
	}
	return filtered
}
