package entities

// OperationalStatus is the derived four-valued classification of a clinic.
type OperationalStatus string

const (
	// StatusOperational means at least 75% of reported weeks can run.
	StatusOperational OperationalStatus = "operational"

	// StatusLimited means 50–74% of reported weeks can run.
	StatusLimited OperationalStatus = "limited"

	// StatusNonFunctional means under 50% of weeks can run, or no shifts
	// were reported at all.
	StatusNonFunctional OperationalStatus = "non-functional"

	// StatusError means the clinic's last scrape failed outright.
	StatusError OperationalStatus = "error"
)

// ClinicStatus is a read-time projection: the clinic's shifts filtered to
// the caller's window plus the computed status. It is never persisted.
type ClinicStatus struct {
	Clinic string            `json:"clinic"`
	Shifts []ShiftRecord     `json:"shifts"`
	Error  string            `json:"error,omitempty"`
	Status OperationalStatus `json:"status"`
}
