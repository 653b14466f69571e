package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/application/services"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/entities"
)

// fakeProvider returns a canned fleet and records the query it saw.
type fakeProvider struct {
	fleet     *entities.FleetAvailability
	err       error
	lastQuery services.FleetQuery
}

func (f *fakeProvider) GetFleetAvailability(_ context.Context, query services.FleetQuery) (*entities.FleetAvailability, error) {
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return f.fleet, nil
}

func (f *fakeProvider) Clinics() []entities.Clinic {
	return []entities.Clinic{
		{Name: "harrogate", URL: "https://rota.example.com/harrogate"},
		{Name: "york", URL: "https://rota.example.com/york"},
	}
}

type fakeClassifier struct{}

func (fakeClassifier) ClassifyFleet(results []entities.ScrapeResult) []entities.ClinicStatus {
	statuses := make([]entities.ClinicStatus, len(results))
	for i, result := range results {
		statuses[i] = entities.ClinicStatus{
			Clinic: result.Clinic,
			Shifts: result.Shifts,
			Status: entities.StatusOperational,
		}
	}
	return statuses
}

func testFleet() *entities.FleetAvailability {
	return &entities.FleetAvailability{
		Results: []entities.ScrapeResult{
			{Clinic: "harrogate", Shifts: []entities.ShiftRecord{{Date: "2025-08-25", JobRoles: []string{"Optometrist"}}}},
			{Clinic: "york", Shifts: []entities.ShiftRecord{}},
		},
		Cached:      true,
		LastUpdated: time.Date(2025, time.August, 20, 12, 0, 0, 0, time.UTC),
	}
}

func TestGetAvailability(t *testing.T) {
	provider := &fakeProvider{fleet: testFleet()}
	handler := NewAvailabilityHandler(provider, fakeClassifier{})

	req := httptest.NewRequest(http.MethodGet, "/api/availability", nil)
	rec := httptest.NewRecorder()
	handler.GetAvailability(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var fleet entities.FleetAvailability
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fleet))
	assert.True(t, fleet.Cached)
	require.Len(t, fleet.Results, 2)
	assert.Equal(t, "harrogate", fleet.Results[0].Clinic)

	assert.Nil(t, provider.lastQuery.Window)
	assert.False(t, provider.lastQuery.ForceRefresh)
}

func TestGetAvailability_WindowAndRefresh(t *testing.T) {
	provider := &fakeProvider{fleet: testFleet()}
	handler := NewAvailabilityHandler(provider, fakeClassifier{})

	req := httptest.NewRequest(http.MethodGet, "/api/availability?from=2025-08-01&to=2025-08-31&refresh=true", nil)
	rec := httptest.NewRecorder()
	handler.GetAvailability(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, provider.lastQuery.Window)
	assert.Equal(t, time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC), provider.lastQuery.Window.From)
	assert.Equal(t, time.Date(2025, time.August, 31, 0, 0, 0, 0, time.UTC), provider.lastQuery.Window.To)
	assert.True(t, provider.lastQuery.ForceRefresh)
}

func TestGetAvailability_BadWindow(t *testing.T) {
	provider := &fakeProvider{fleet: testFleet()}
	handler := NewAvailabilityHandler(provider, fakeClassifier{})

	for _, target := range []string{
		"/api/availability?from=2025-08-01",
		"/api/availability?to=2025-08-31",
		"/api/availability?from=bogus&to=2025-08-31",
		"/api/availability?from=2025-08-31&to=2025-08-01",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		handler.GetAvailability(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "target %s", target)
	}
}

func TestGetAvailability_ServiceError(t *testing.T) {
	provider := &fakeProvider{err: assert.AnError}
	handler := NewAvailabilityHandler(provider, fakeClassifier{})

	req := httptest.NewRequest(http.MethodGet, "/api/availability", nil)
	rec := httptest.NewRecorder()
	handler.GetAvailability(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetAvailabilityStatus(t *testing.T) {
	provider := &fakeProvider{fleet: testFleet()}
	handler := NewAvailabilityHandler(provider, fakeClassifier{})

	req := httptest.NewRequest(http.MethodGet, "/api/availability/status", nil)
	rec := httptest.NewRecorder()
	handler.GetAvailabilityStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Clinics []entities.ClinicStatus `json:"clinics"`
		Cached  bool                    `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.True(t, payload.Cached)
	require.Len(t, payload.Clinics, 2)
	assert.Equal(t, entities.StatusOperational, payload.Clinics[0].Status)
}

func TestListClinics(t *testing.T) {
	provider := &fakeProvider{fleet: testFleet()}
	handler := NewAvailabilityHandler(provider, fakeClassifier{})

	req := httptest.NewRequest(http.MethodGet, "/api/clinics", nil)
	rec := httptest.NewRecorder()
	handler.ListClinics(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Clinics []entities.Clinic `json:"clinics"`
		Count   int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 2, payload.Count)
	assert.Equal(t, "harrogate", payload.Clinics[0].Name)
}
