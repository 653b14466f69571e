package services

import (
	"strings"
	"time"

	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/entities"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/rota"
)

// Week-coverage thresholds, in percent. A clinic is operational when it
// can run in at least three quarters of the weeks it lists shifts for,
// and limited down to half.
const (
	operationalThresholdPct = 75
	limitedThresholdPct     = 50
)

// Staffing a clinic week takes both of these roles on the same shift.
// Matching is by case-insensitive substring so qualified titles like
// "Senior Optometrist (Locum)" count.
const (
	roleOptometrist = "optometrist"
	roleAssistant   = "assistant"
)

// StatusService derives a per-clinic operational status from scraped
// shifts. Shifts are bucketed into Sunday-started weeks, each week is
// judged runnable when some shift in it carries both required roles, and
// the runnable fraction maps onto the status ladder.
type StatusService struct {
	now func() time.Time
}

// NewStatusService creates a new status service
func NewStatusService() *StatusService {
	return &StatusService{now: time.Now}
}

// ClassifyFleet classifies every scrape result.
func (s *StatusService) ClassifyFleet(results []entities.ScrapeResult) []entities.ClinicStatus {
	statuses := make([]entities.ClinicStatus, len(results))
	for i, result := range results {
		statuses[i] = s.Classify(result)
	}
	return statuses
}

// Classify maps one scrape result onto a clinic status.
func (s *StatusService) Classify(result entities.ScrapeResult) entities.ClinicStatus {
	return entities.ClinicStatus{
		Clinic: result.Clinic,
		Shifts: result.Shifts,
		Error:  result.Error,
		Status: s.computeStatus(result),
	}
}

func (s *StatusService) computeStatus(result entities.ScrapeResult) entities.OperationalStatus {
	if result.Error != "" {
		return entities.StatusError
	}
	if len(result.Shifts) == 0 {
		return entities.StatusNonFunctional
	}

	now := s.now()
	canRunByWeek := make(map[string]bool)
	for _, shift := range result.Shifts {
		day, ok := rota.ParseShiftDate(shift.Date, now)
		if !ok {
			// Unbucketable shifts cannot vouch for any week.
			continue
		}
		week := weekKey(day)
		canRunByWeek[week] = canRunByWeek[week] || canRunShift(shift)
	}

	if len(canRunByWeek) == 0 {
		return entities.StatusNonFunctional
	}

	runnable := 0
	for _, canRun := range canRunByWeek {
		if canRun {
			runnable++
		}
	}

	pct := runnable * 100 / len(canRunByWeek)
	switch {
	case pct >= operationalThresholdPct:
		return entities.StatusOperational
	case pct >= limitedThresholdPct:
		return entities.StatusLimited
	default:
		return entities.StatusNonFunctional
	}
}

// canRunShift reports whether one shift is staffed to open the clinic:
// both an optometrist and an assistant somewhere in its roles.
func canRunShift(shift entities.ShiftRecord) bool {
	var hasOptometrist, hasAssistant bool
	for _, role := range shift.JobRoles {
		lower := strings.ToLower(role)
		if strings.Contains(lower, roleOptometrist) {
			hasOptometrist = true
		}
		if strings.Contains(lower, roleAssistant) {
			hasAssistant = true
		}
	}
	return hasOptometrist && hasAssistant
}

// weekKey buckets a day into its week, identified by the date of the
// Sunday that starts it.
func weekKey(day time.Time) string {
	sunday := day.AddDate(0, 0, -int(day.Weekday()))
	return sunday.Format(entities.CanonicalDateLayout)
}
