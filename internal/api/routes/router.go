package routes

import (
	"net/http"

	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/api/handlers"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/api/middleware"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	availabilityHandler *handlers.AvailabilityHandler
}

// NewRouter creates a new router
func NewRouter(availabilityHandler *handlers.AvailabilityHandler) *Router {
	return &Router{
		mux:                 http.NewServeMux(),
		availabilityHandler: availabilityHandler,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Availability endpoints
	r.mux.HandleFunc("GET /api/availability", r.availabilityHandler.GetAvailability)
	r.mux.HandleFunc("GET /api/availability/status", r.availabilityHandler.GetAvailabilityStatus)

	// Clinic directory endpoint
	r.mux.HandleFunc("GET /api/clinics", r.availabilityHandler.ListClinics)

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so error responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
