package events

const (
	StreamName   = "QINI_EVENTS"
	StreamMaxAge = "168h" // 7 days
)

func SubjectJobCreated(jobID string) string   { return "qini.job." + jobID + ".created" }
func SubjectJobStarted(jobID string) string   { return "qini.job." + jobID + ".started" }
func SubjectJobCompleted(jobID string) string { return "qini.job." + jobID + ".completed" }
func SubjectJobFailed(jobID string) string    { return "qini.job." + jobID + ".failed" }
