package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/entities"
)

func newTestStatusService() *StatusService {
	service := NewStatusService()
	service.now = func() time.Time { return fixedNow }
	return service
}

// shift builds a ShiftRecord on a canonical date with the given roles.
func shift(date string, roles ...string) entities.ShiftRecord {
	return entities.ShiftRecord{Date: date, JobRoles: roles}
}

func staffed(date string) entities.ShiftRecord {
	return shift(date, "Optometrist", "Clinical Assistant")
}

func TestClassify_ErrorResult(t *testing.T) {
	status := newTestStatusService().Classify(entities.ScrapeResult{
		Clinic: "a",
		Shifts: []entities.ShiftRecord{},
		Error:  "connection refused",
	})

	assert.Equal(t, entities.StatusError, status.Status)
	assert.Equal(t, "connection refused", status.Error)
}

func TestClassify_NoShifts(t *testing.T) {
	status := newTestStatusService().Classify(entities.ScrapeResult{
		Clinic: "a",
		Shifts: []entities.ShiftRecord{},
	})

	assert.Equal(t, entities.StatusNonFunctional, status.Status)
}

func TestClassify_WeekCoverageLadder(t *testing.T) {
	// Four consecutive Sunday-started weeks. 2025-08-24 is a Sunday.
	weeks := []string{"2025-08-25", "2025-09-01", "2025-09-08", "2025-09-15"}

	tests := []struct {
		name     string
		runnable int
		want     entities.OperationalStatus
	}{
		{"4 of 4 weeks", 4, entities.StatusOperational},
		{"3 of 4 weeks", 3, entities.StatusOperational},
		{"2 of 4 weeks", 2, entities.StatusLimited},
		{"1 of 4 weeks", 1, entities.StatusNonFunctional},
		{"0 of 4 weeks", 0, entities.StatusNonFunctional},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var shifts []entities.ShiftRecord
			for i, day := range weeks {
				if i < tt.runnable {
					shifts = append(shifts, staffed(day))
				} else {
					shifts = append(shifts, shift(day, "Optometrist"))
				}
			}

			status := newTestStatusService().Classify(entities.ScrapeResult{Clinic: "a", Shifts: shifts})
			assert.Equal(t, tt.want, status.Status)
		})
	}
}

func TestClassify_SingleRunnableWeekIsOperational(t *testing.T) {
	status := newTestStatusService().Classify(entities.ScrapeResult{
		Clinic: "a",
		Shifts: []entities.ShiftRecord{staffed("2025-08-25")},
	})

	assert.Equal(t, entities.StatusOperational, status.Status)
}

func TestClassify_RolesSplitAcrossShiftsDoNotStaffAWeek(t *testing.T) {
	// Same week, but no single shift carries both roles.
	status := newTestStatusService().Classify(entities.ScrapeResult{
		Clinic: "a",
		Shifts: []entities.ShiftRecord{
			shift("2025-08-25", "Optometrist"),
			shift("2025-08-26", "Clinical Assistant"),
		},
	})

	assert.Equal(t, entities.StatusNonFunctional, status.Status)
}

func TestClassify_QualifiedRoleTitlesMatch(t *testing.T) {
	status := newTestStatusService().Classify(entities.ScrapeResult{
		Clinic: "a",
		Shifts: []entities.ShiftRecord{
			shift("2025-08-25", "Senior Optometrist (Locum)", "Trainee Clinical Assistant"),
		},
	})

	assert.Equal(t, entities.StatusOperational, status.Status)
}

func TestClassify_WeekBucketsStartOnSunday(t *testing.T) {
	// Sunday 2025-08-24 and Saturday 2025-08-30 share a week; the next
	// Sunday opens a new one. One staffed week out of two is 50%.
	status := newTestStatusService().Classify(entities.ScrapeResult{
		Clinic: "a",
		Shifts: []entities.ShiftRecord{
			staffed("2025-08-24"),
			shift("2025-08-30", "Optometrist"),
			shift("2025-08-31", "Optometrist"),
		},
	})

	assert.Equal(t, entities.StatusLimited, status.Status)
}

func TestClassify_UnparseableDatesOnly(t *testing.T) {
	status := newTestStatusService().Classify(entities.ScrapeResult{
		Clinic: "a",
		Shifts: []entities.ShiftRecord{
			shift("tbc", "Optometrist", "Clinical Assistant"),
			shift("see reception", "Optometrist"),
		},
	})

	assert.Equal(t, entities.StatusNonFunctional, status.Status)
}

func TestClassifyFleet(t *testing.T) {
	statuses := newTestStatusService().ClassifyFleet([]entities.ScrapeResult{
		{Clinic: "a", Shifts: []entities.ShiftRecord{staffed("2025-08-25")}},
		{Clinic: "b", Shifts: []entities.ShiftRecord{}, Error: "timeout"},
		{Clinic: "c", Shifts: []entities.ShiftRecord{}},
	})

	require.Len(t, statuses, 3)
	assert.Equal(t, entities.StatusOperational, statuses[0].Status)
	assert.Equal(t, entities.StatusError, statuses[1].Status)
	assert.Equal(t, entities.StatusNonFunctional, statuses[2].Status)
}
