package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/entities"
)

var fixedNow = time.Date(2025, time.August, 20, 12, 0, 0, 0, time.UTC)

// fakeAvailabilityRepo is an in-memory AvailabilityRepository.
type fakeAvailabilityRepo struct {
	mu        sync.Mutex
	entries   map[string]*entities.AvailabilityRecord
	findErr   error
	upsertErr error
	upserts   int
}

func newFakeAvailabilityRepo() *fakeAvailabilityRepo {
	return &fakeAvailabilityRepo{entries: map[string]*entities.AvailabilityRecord{}}
}

func (r *fakeAvailabilityRepo) FindMany(_ context.Context, clinicNames []string) ([]*entities.AvailabilityRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	records := []*entities.AvailabilityRecord{}
	for _, name := range clinicNames {
		if entry, ok := r.entries[name]; ok {
			records = append(records, entry)
		}
	}
	return records, nil
}

func (r *fakeAvailabilityRepo) Upsert(_ context.Context, record *entities.AvailabilityRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.entries[record.ClinicName] = record
	return nil
}

func (r *fakeAvailabilityRepo) put(name string, age time.Duration, scrapeError string, dates ...string) {
	shifts := make([]entities.ShiftRecord, len(dates))
	for i, date := range dates {
		shifts[i] = entities.ShiftRecord{Date: date, JobRoles: []string{"Optometrist"}}
	}
	r.entries[name] = &entities.AvailabilityRecord{
		ClinicName:  name,
		Shifts:      shifts,
		LastUpdated: fixedNow.Add(-age),
		LastScraped: fixedNow.Add(-age),
		ScrapeError: scrapeError,
	}
}

// fakeJobRepo records scrape job transitions.
type fakeJobRepo struct {
	mu        sync.Mutex
	created   []*entities.ScrapeJob
	updated   []*entities.ScrapeJob
	createErr error
}

func (r *fakeJobRepo) Create(_ context.Context, job *entities.ScrapeJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	copied := *job
	r.created = append(r.created, &copied)
	return nil
}

func (r *fakeJobRepo) Update(_ context.Context, job *entities.ScrapeJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *job
	r.updated = append(r.updated, &copied)
	return nil
}

func newTestAvailabilityService(source *fakeSource, repo *fakeAvailabilityRepo, jobs *fakeJobRepo, clinics []entities.Clinic) *AvailabilityService {
	service := NewAvailabilityService(clinics, NewScrapeService(source), nil, nil, time.Hour)
	if repo != nil {
		service.repo = repo
	}
	if jobs != nil {
		service.jobs = jobs
	}
	service.now = func() time.Time { return fixedNow }
	return service
}

func TestIsFleetFresh(t *testing.T) {
	names := []string{"a", "b"}
	threshold := time.Hour

	fresh := func(name string, age time.Duration, scrapeError string) *entities.AvailabilityRecord {
		return &entities.AvailabilityRecord{
			ClinicName:  name,
			LastScraped: fixedNow.Add(-age),
			ScrapeError: scrapeError,
		}
	}

	tests := []struct {
		name    string
		entries []*entities.AvailabilityRecord
		want    bool
	}{
		{"all fresh", []*entities.AvailabilityRecord{fresh("a", time.Minute, ""), fresh("b", time.Minute, "")}, true},
		{"missing clinic", []*entities.AvailabilityRecord{fresh("a", time.Minute, "")}, false},
		{"one stale", []*entities.AvailabilityRecord{fresh("a", time.Minute, ""), fresh("b", 2*time.Hour, "")}, false},
		{"exactly at threshold", []*entities.AvailabilityRecord{fresh("a", time.Minute, ""), fresh("b", time.Hour, "")}, false},
		{"one errored", []*entities.AvailabilityRecord{fresh("a", time.Minute, ""), fresh("b", time.Minute, "timeout")}, false},
		{"no entries", []*entities.AvailabilityRecord{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFleetFresh(tt.entries, names, threshold, fixedNow))
		})
	}
}

func TestGetFleetAvailability_ServedFromCache(t *testing.T) {
	repo := newFakeAvailabilityRepo()
	repo.put("a", 10*time.Minute, "", "2025-08-21")
	repo.put("b", 5*time.Minute, "", "2025-08-22")
	source := &fakeSource{scrape: func(_ context.Context, clinic entities.Clinic) entities.ScrapeResult {
		return okResult(clinic, "2025-08-25")
	}}
	service := newTestAvailabilityService(source, repo, nil, testClinics("a", "b"))

	fleet, err := service.GetFleetAvailability(context.Background(), FleetQuery{})
	require.NoError(t, err)

	assert.True(t, fleet.Cached)
	assert.Zero(t, source.calls.Load(), "cache hit must not scrape")
	require.Len(t, fleet.Results, 2)
	assert.Equal(t, "a", fleet.Results[0].Clinic)
	assert.Equal(t, "2025-08-21", fleet.Results[0].Shifts[0].Date)
	// Watermark is the newest entry.
	assert.Equal(t, fixedNow.Add(-5*time.Minute), fleet.LastUpdated)
}

func TestGetFleetAvailability_StaleEntryTriggersLiveScrape(t *testing.T) {
	repo := newFakeAvailabilityRepo()
	repo.put("a", 10*time.Minute, "", "2025-08-21")
	repo.put("b", 2*time.Hour, "", "2025-08-22")
	source := &fakeSource{scrape: func(_ context.Context, clinic entities.Clinic) entities.ScrapeResult {
		return okResult(clinic, "2025-08-25")
	}}
	service := newTestAvailabilityService(source, repo, nil, testClinics("a", "b"))

	fleet, err := service.GetFleetAvailability(context.Background(), FleetQuery{})
	require.NoError(t, err)

	assert.False(t, fleet.Cached)
	assert.Equal(t, int32(2), source.calls.Load())
	// The live results were persisted back.
	assert.Equal(t, 2, repo.upserts)
	assert.Equal(t, "2025-08-25", repo.entries["b"].Shifts[0].Date)
}

func TestGetFleetAvailability_ErroredEntryTriggersLiveScrape(t *testing.T) {
	repo := newFakeAvailabilityRepo()
	repo.put("a", time.Minute, "", "2025-08-21")
	repo.put("b", time.Minute, "connection refused")
	source := &fakeSource{scrape: func(_ context.Context, clinic entities.Clinic) entities.ScrapeResult {
		return okResult(clinic, "2025-08-25")
	}}
	service := newTestAvailabilityService(source, repo, nil, testClinics("a", "b"))

	fleet, err := service.GetFleetAvailability(context.Background(), FleetQuery{})
	require.NoError(t, err)

	assert.False(t, fleet.Cached)
	assert.Equal(t, int32(2), source.calls.Load())
}

func TestGetFleetAvailability_ForceRefreshBypassesCache(t *testing.T) {
	repo := newFakeAvailabilityRepo()
	repo.put("a", time.Minute, "", "2025-08-21")
	source := &fakeSource{scrape: func(_ context.Context, clinic entities.Clinic) entities.ScrapeResult {
		return okResult(clinic, "2025-08-25")
	}}
	service := newTestAvailabilityService(source, repo, nil, testClinics("a"))

	fleet, err := service.GetFleetAvailability(context.Background(), FleetQuery{ForceRefresh: true})
	require.NoError(t, err)

	assert.False(t, fleet.Cached)
	assert.Equal(t, int32(1), source.calls.Load())
}

func TestGetFleetAvailability_RepoErrorFallsBackToLive(t *testing.T) {
	repo := newFakeAvailabilityRepo()
	repo.findErr = errors.New("connection reset")
	source := &fakeSource{scrape: func(_ context.Context, clinic entities.Clinic) entities.ScrapeResult {
		return okResult(clinic, "2025-08-25")
	}}
	service := newTestAvailabilityService(source, repo, nil, testClinics("a"))

	fleet, err := service.GetFleetAvailability(context.Background(), FleetQuery{})
	require.NoError(t, err)
	assert.False(t, fleet.Cached)
	require.Len(t, fleet.Results, 1)
}

func TestGetFleetAvailability_UpsertFailureIsNonFatal(t *testing.T) {
	repo := newFakeAvailabilityRepo()
	repo.upsertErr = errors.New("disk full")
	source := &fakeSource{scrape: func(_ context.Context, clinic entities.Clinic) entities.ScrapeResult {
		return okResult(clinic, "2025-08-25")
	}}
	service := newTestAvailabilityService(source, repo, nil, testClinics("a"))

	fleet, err := service.GetFleetAvailability(context.Background(), FleetQuery{})
	require.NoError(t, err)
	require.Len(t, fleet.Results, 1)
	assert.Empty(t, fleet.Results[0].Error)
}

func TestGetFleetAvailability_NilRepoScrapesLive(t *testing.T) {
	source := &fakeSource{scrape: func(_ context.Context, clinic entities.Clinic) entities.ScrapeResult {
		return okResult(clinic, "2025-08-25")
	}}
	service := newTestAvailabilityService(source, nil, nil, testClinics("a", "b"))

	fleet, err := service.GetFleetAvailability(context.Background(), FleetQuery{})
	require.NoError(t, err)
	assert.False(t, fleet.Cached)
	assert.Equal(t, int32(2), source.calls.Load())
}

func TestGetFleetAvailability_WindowFiltersButStoresUnfiltered(t *testing.T) {
	repo := newFakeAvailabilityRepo()
	source := &fakeSource{scrape: func(_ context.Context, clinic entities.Clinic) entities.ScrapeResult {
		return okResult(clinic, "2025-08-10", "2025-08-25")
	}}
	service := newTestAvailabilityService(source, repo, nil, testClinics("a"))

	window := &entities.DateRange{
		From: time.Date(2025, time.August, 20, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, time.August, 31, 0, 0, 0, 0, time.UTC),
	}
	fleet, err := service.GetFleetAvailability(context.Background(), FleetQuery{Window: window})
	require.NoError(t, err)

	require.Len(t, fleet.Results, 1)
	require.Len(t, fleet.Results[0].Shifts, 1)
	assert.Equal(t, "2025-08-25", fleet.Results[0].Shifts[0].Date)

	// Persisted entry keeps the full shift list.
	require.Len(t, repo.entries["a"].Shifts, 2)
}

func TestRefreshFleet_RecordsJobLifecycle(t *testing.T) {
	repo := newFakeAvailabilityRepo()
	jobs := &fakeJobRepo{}
	source := &fakeSource{scrape: func(_ context.Context, clinic entities.Clinic) entities.ScrapeResult {
		return okResult(clinic, "2025-08-25")
	}}
	service := newTestAvailabilityService(source, repo, jobs, testClinics("a", "b", "c"))

	count := service.RefreshFleet(context.Background())

	assert.Equal(t, 3, count)
	assert.Equal(t, 3, repo.upserts)

	require.Len(t, jobs.created, 1)
	assert.Equal(t, entities.JobRunning, jobs.created[0].Status)
	assert.NotEmpty(t, jobs.created[0].ID)

	require.Len(t, jobs.updated, 1)
	assert.Equal(t, entities.JobCompleted, jobs.updated[0].Status)
	assert.Equal(t, 3, jobs.updated[0].ClinicsScraped)
	require.NotNil(t, jobs.updated[0].CompletedAt)
}

func TestRefreshFleet_AllScrapesFailedMarksJobFailed(t *testing.T) {
	jobs := &fakeJobRepo{}
	source := &fakeSource{scrape: func(_ context.Context, clinic entities.Clinic) entities.ScrapeResult {
		return entities.ScrapeResult{Clinic: clinic.Name, Error: "fetch failed: connection refused"}
	}}
	service := newTestAvailabilityService(source, newFakeAvailabilityRepo(), jobs, testClinics("a", "b"))

	count := service.RefreshFleet(context.Background())

	assert.Equal(t, 2, count)
	require.Len(t, jobs.updated, 1)
	assert.Equal(t, entities.JobFailed, jobs.updated[0].Status)
	assert.Equal(t, 2, jobs.updated[0].ClinicsScraped)
	assert.NotEmpty(t, jobs.updated[0].Error)
}

func TestRefreshFleet_PartialFailureStillCompletes(t *testing.T) {
	jobs := &fakeJobRepo{}
	source := &fakeSource{scrape: func(_ context.Context, clinic entities.Clinic) entities.ScrapeResult {
		if clinic.Name == "b" {
			return entities.ScrapeResult{Clinic: clinic.Name, Error: "status 500"}
		}
		return okResult(clinic, "2025-08-25")
	}}
	service := newTestAvailabilityService(source, newFakeAvailabilityRepo(), jobs, testClinics("a", "b"))

	service.RefreshFleet(context.Background())

	require.Len(t, jobs.updated, 1)
	assert.Equal(t, entities.JobCompleted, jobs.updated[0].Status)
	assert.Empty(t, jobs.updated[0].Error)
}

func TestRefreshFleet_JobAuditFailureDoesNotBlockRefresh(t *testing.T) {
	repo := newFakeAvailabilityRepo()
	jobs := &fakeJobRepo{createErr: errors.New("table missing")}
	source := &fakeSource{scrape: func(_ context.Context, clinic entities.Clinic) entities.ScrapeResult {
		return okResult(clinic, "2025-08-25")
	}}
	service := newTestAvailabilityService(source, repo, jobs, testClinics("a"))

	count := service.RefreshFleet(context.Background())

	assert.Equal(t, 1, count)
	assert.Equal(t, 1, repo.upserts)
}
