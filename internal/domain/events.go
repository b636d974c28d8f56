package domain

// ProgressPhase is the lifecycle phase reported by the extraction runner
type ProgressPhase string

const (
	PhaseStart       ProgressPhase = "start"
	PhaseDownloading ProgressPhase = "downloading"
	PhaseCompleted   ProgressPhase = "completed"
	PhaseFailed      ProgressPhase = "failed"
)

// ProgressEvent is pushed to observers on every phase transition.
// Title/Platform/Thumbnail are set on the start phase, Progress on the
// downloading and completed phases.
type ProgressEvent struct {
	JobID     string        `json:"job_id"`
	Phase     ProgressPhase `json:"phase"`
	Title     string        `json:"title,omitempty"`
	Platform  string        `json:"platform,omitempty"`
	Thumbnail string        `json:"thumbnail,omitempty"`
	Progress  float64       `json:"progress"`
}

// ProgressSink receives near-real-time progress events from a running
// extraction. Supplied by the queue, opaque to the runner.
type ProgressSink func(ProgressEvent)

// QueueObserver receives push notifications from the job queue
type QueueObserver interface {
	// OnQueueUpdate is called with the full ordered job list on every
	// queue mutation
	OnQueueUpdate(jobs []*Job)

	// OnProgress is called for every extraction phase transition
	OnProgress(event ProgressEvent)
}
