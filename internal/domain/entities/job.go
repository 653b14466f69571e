package entities

import "time"

// JobStatus tracks the lifecycle of one background scrape run.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// ScrapeJob records the outcome of a cron-triggered fleet scrape. It is
// bookkeeping only; failures writing it never affect the scrape itself.
type ScrapeJob struct {
	ID             string     `json:"id"`
	Status         JobStatus  `json:"status"`
	StartedAt      time.Time  `json:"startedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	ClinicsScraped int        `json:"clinicsScraped"`
	Error          string     `json:"error,omitempty"`
}
