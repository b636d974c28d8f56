package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current status of a download job
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// MediaKind selects the stream type requested from the extractor
type MediaKind string

const (
	MediaKindVideo MediaKind = "video"
	MediaKindAudio MediaKind = "audio"
)

// QualityTier caps the video height requested from the extractor
type QualityTier string

const (
	QualityBest QualityTier = "best"
	Quality8K   QualityTier = "8k"
	Quality4K   QualityTier = "4k"
	Quality2K   QualityTier = "2k"
	Quality1080 QualityTier = "1080"
	Quality720  QualityTier = "720"
	Quality480  QualityTier = "480"
)

// DownloadOptions carries the per-job request options. Persisted alongside
// the job as a serialized blob so recovered jobs keep their settings.
type DownloadOptions struct {
	MediaKind    MediaKind   `json:"media_kind,omitempty"`
	QualityTier  QualityTier `json:"quality_tier,omitempty"`
	WantPlaylist bool        `json:"want_playlist,omitempty"`
	ContainerExt string      `json:"container_ext,omitempty"`
	SkipExisting bool        `json:"skip_existing,omitempty"`
}

// Job represents one queued request to acquire media from a URL
type Job struct {
	ID        string          `json:"id" gorm:"primaryKey"`
	URL       string          `json:"url" gorm:"not null"`
	Status    JobStatus       `json:"status" gorm:"not null;index"`
	Progress  float64         `json:"progress" gorm:"default:0"`
	Options   DownloadOptions `json:"options" gorm:"serializer:json;type:text"`
	CreatedAt time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the jobs table name
func (Job) TableName() string { return "jobs" }

// NewJob creates a new pending job
func NewJob(url string, options DownloadOptions) *Job {
	return &Job{
		ID:        uuid.New().String(),
		URL:       url,
		Status:    JobPending,
		Progress:  0,
		Options:   options,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// MarkRunning marks the job as running
func (j *Job) MarkRunning() {
	j.Status = JobRunning
	j.UpdatedAt = time.Now()
}

// MarkCompleted marks the job as completed
func (j *Job) MarkCompleted() {
	j.Status = JobCompleted
	j.Progress = 100
	j.UpdatedAt = time.Now()
}

// MarkFailed marks the job as failed
func (j *Job) MarkFailed() {
	j.Status = JobFailed
	j.UpdatedAt = time.Now()
}

// ResetToPending demotes a job back to pending with zero progress.
// Used during startup recovery for jobs interrupted mid-run.
func (j *Job) ResetToPending() {
	j.Status = JobPending
	j.Progress = 0
	j.UpdatedAt = time.Now()
}

// IsTerminal checks if the job is in a terminal state
func (j *Job) IsTerminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}

// IsPending checks if the job is waiting to run
func (j *Job) IsPending() bool {
	return j.Status == JobPending
}
