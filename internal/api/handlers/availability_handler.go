package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/application/services"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/entities"
)

// AvailabilityProvider is the service surface the handler needs.
type AvailabilityProvider interface {
	GetFleetAvailability(ctx context.Context, query services.FleetQuery) (*entities.FleetAvailability, error)
	Clinics() []entities.Clinic
}

// StatusClassifier derives per-clinic operational statuses.
type StatusClassifier interface {
	ClassifyFleet(results []entities.ScrapeResult) []entities.ClinicStatus
}

// AvailabilityHandler handles availability-related HTTP requests
type AvailabilityHandler struct {
	availability AvailabilityProvider
	statuses     StatusClassifier
}

// NewAvailabilityHandler creates a new availability handler
func NewAvailabilityHandler(availability AvailabilityProvider, statuses StatusClassifier) *AvailabilityHandler {
	return &AvailabilityHandler{
		availability: availability,
		statuses:     statuses,
	}
}

// GetAvailability handles GET /api/availability
func (h *AvailabilityHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	query, err := parseFleetQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	fleet, err := h.availability.GetFleetAvailability(r.Context(), query)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to get fleet availability")
		return
	}

	respondWithJSON(w, http.StatusOK, fleet)
}

// GetAvailabilityStatus handles GET /api/availability/status
func (h *AvailabilityHandler) GetAvailabilityStatus(w http.ResponseWriter, r *http.Request) {
	query, err := parseFleetQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	fleet, err := h.availability.GetFleetAvailability(r.Context(), query)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to get fleet availability")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"clinics":     h.statuses.ClassifyFleet(fleet.Results),
		"cached":      fleet.Cached,
		"lastUpdated": fleet.LastUpdated,
	})
}

// ListClinics handles GET /api/clinics
func (h *AvailabilityHandler) ListClinics(w http.ResponseWriter, r *http.Request) {
	clinics := h.availability.Clinics()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"clinics": clinics,
		"count":   len(clinics),
	})
}

// parseFleetQuery reads the from/to window and the refresh flag off the
// query string. The window bounds come as a pair or not at all.
func parseFleetQuery(r *http.Request) (services.FleetQuery, error) {
	var query services.FleetQuery

	refresh := r.URL.Query().Get("refresh")
	query.ForceRefresh = refresh == "1" || refresh == "true"

	fromParam := r.URL.Query().Get("from")
	toParam := r.URL.Query().Get("to")
	if fromParam == "" && toParam == "" {
		return query, nil
	}
	if fromParam == "" || toParam == "" {
		return query, errBadWindow
	}

	from, err := time.Parse(entities.CanonicalDateLayout, fromParam)
	if err != nil {
		return query, errBadWindow
	}
	to, err := time.Parse(entities.CanonicalDateLayout, toParam)
	if err != nil {
		return query, errBadWindow
	}
	if to.Before(from) {
		return query, errBadWindow
	}

	query.Window = &entities.DateRange{From: from, To: to}
	return query, nil
}

var errBadWindow = errors.New("from and to must both be provided as YYYY-MM-DD with from <= to")

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
