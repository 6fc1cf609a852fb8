package events

type JobCreatedEvent struct {
	JobID       string  `json:"job_id"`
	SubmittedBy string  `json:"submitted_by,omitempty"`
	Units       int     `json:"units"`
	Budget      float64 `json:"budget"`
}

type JobStartedEvent struct {
	JobID string `json:"job_id"`
}

type JobCompletedEvent struct {
	JobID       string  `json:"job_id"`
	Steps       int     `json:"steps"`
	Complete    bool    `json:"complete"`
	TotalSpend  float64 `json:"total_spend"`
	TotalReward float64 `json:"total_reward"`
	DurationMs  int64   `json:"duration_ms"`
}

type JobFailedEvent struct {
	JobID string `json:"job_id"`
	Error string `json:"error"`
}
