package model

// JobStatus is the lifecycle state of a render job as reported by the backend
// or synthesized in degraded mode.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// SimulatedJobPrefix marks job ids that were synthesized client-side and never
// submitted to a real backend. They can never acquire a real output.
const SimulatedJobPrefix = "sim_"

// RenderJob is the status view returned for a render job. The external
// backend owns the job; this is a per-request derived view. OutputURL is
// populated only for completed jobs.
type RenderJob struct {
	JobID              string    `json:"job_id"`
	Status             JobStatus `json:"status"`
	Progress           int       `json:"progress"`
	Message            string    `json:"message"`
	EstimatedRemaining int       `json:"estimated_remaining"`
	OutputURL          *string   `json:"output_url"`
}
