package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/mediavault/internal/domain"
	"github.com/yourusername/mediavault/internal/observability"
	"github.com/yourusername/mediavault/internal/ytdlp"
)

// QueueManager owns the single-lane download queue. Jobs are held in an
// ordered in-memory slice mirrored to the job repository, and exactly
// one extraction runs at a time on a dedicated worker goroutine.
type QueueManager struct {
	repo     domain.JobRepository
	catalog  domain.CatalogRepository
	runner   domain.ExtractionRunner
	destRoot string
	metrics  *observability.Metrics
	logger   *zap.Logger

	mu        sync.RWMutex
	jobs      []*domain.Job
	observers []domain.QueueObserver
	running   bool

	// wake is buffered so AddJob never blocks on an idle worker
	wake     chan struct{}
	stopChan chan struct{}
	workerWg sync.WaitGroup
}

// NewQueueManager creates a queue manager on an empty lane. Call Recover
// before Start to reload jobs left over from a previous run.
func NewQueueManager(
	repo domain.JobRepository,
	catalog domain.CatalogRepository,
	runner domain.ExtractionRunner,
	destRoot string,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *QueueManager {
	return &QueueManager{
		repo:     repo,
		catalog:  catalog,
		runner:   runner,
		destRoot: destRoot,
		metrics:  metrics,
		logger:   logger,
		wake:     make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}
}

// Subscribe registers an observer for queue and progress notifications
func (qm *QueueManager) Subscribe(observer domain.QueueObserver) {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	qm.observers = append(qm.observers, observer)
}

// Recover reloads all non-completed jobs from the repository into the
// lane. Jobs caught mid-run by a crash are demoted back to pending with
// zero progress so they restart cleanly.
func (qm *QueueManager) Recover() error {
	active, err := qm.repo.FindActive()
	if err != nil {
		return fmt.Errorf("failed to load persisted jobs: %w", err)
	}

	for _, job := range active {
		if job.Status == domain.JobRunning {
			job.ResetToPending()
			if err := qm.repo.Update(job); err != nil {
				return fmt.Errorf("failed to demote interrupted job %s: %w", job.ID, err)
			}
			qm.logger.Info("Recovered interrupted job",
				zap.String("id", job.ID),
				zap.String("url", job.URL))
		}
	}

	qm.mu.Lock()
	qm.jobs = active
	qm.mu.Unlock()

	if len(active) > 0 {
		qm.logger.Info("Queue recovered", zap.Int("jobs", len(active)))
		qm.notifyQueueUpdate()
	}
	qm.updateDepthGauge()

	return nil
}

// Start launches the worker goroutine
func (qm *QueueManager) Start(ctx context.Context) error {
	qm.mu.Lock()
	if qm.running {
		qm.mu.Unlock()
		return fmt.Errorf("queue manager already running")
	}
	qm.running = true
	qm.mu.Unlock()

	qm.logger.Info("Queue started")

	qm.workerWg.Add(1)
	go qm.run(ctx)

	return nil
}

// Stop signals the worker to exit and waits for it. A pacing delay in
// progress is cut short; a running extraction finishes its current job
// first.
func (qm *QueueManager) Stop() error {
	qm.mu.Lock()
	if !qm.running {
		qm.mu.Unlock()
		return fmt.Errorf("queue manager not running")
	}
	qm.running = false
	qm.mu.Unlock()

	close(qm.stopChan)
	qm.workerWg.Wait()

	qm.logger.Info("Queue stopped")
	return nil
}

// IsRunning reports whether the worker loop is active
func (qm *QueueManager) IsRunning() bool {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	return qm.running
}

// AddJob validates, persists and enqueues a new download request
func (qm *QueueManager) AddJob(url string, options domain.DownloadOptions) (*domain.Job, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("url is required")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("invalid url: %s", url)
	}

	job := domain.NewJob(url, options)
	if err := qm.repo.Create(job); err != nil {
		return nil, fmt.Errorf("failed to persist job: %w", err)
	}

	qm.mu.Lock()
	qm.jobs = append(qm.jobs, job)
	snapshot := *job
	qm.mu.Unlock()

	qm.logger.Info("Job added",
		zap.String("id", job.ID),
		zap.String("url", url),
		zap.String("media_kind", string(options.MediaKind)))

	qm.metrics.JobsSubmitted.Inc()
	qm.updateDepthGauge()
	qm.notifyQueueUpdate()
	qm.signalWake()

	return &snapshot, nil
}

// RemoveJob drops a job from the lane and the store. Removing the job
// currently being extracted does not kill the process; its results are
// still cataloged but the job row is gone and no completion is recorded.
func (qm *QueueManager) RemoveJob(id string) error {
	qm.mu.Lock()
	idx := -1
	for i, job := range qm.jobs {
		if job.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		qm.mu.Unlock()
		return fmt.Errorf("job not found: %s", id)
	}
	qm.jobs = append(qm.jobs[:idx], qm.jobs[idx+1:]...)
	qm.mu.Unlock()

	if err := qm.repo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	qm.logger.Info("Job removed", zap.String("id", id))

	qm.updateDepthGauge()
	qm.notifyQueueUpdate()
	return nil
}

// ClearQueue retains only the running job, if any. Pending jobs are
// deleted from the store as well; terminal jobs leave the lane but keep
// their rows as history.
func (qm *QueueManager) ClearQueue() error {
	qm.mu.Lock()
	var kept, dropped []*domain.Job
	for _, job := range qm.jobs {
		if job.Status == domain.JobRunning {
			kept = append(kept, job)
		} else {
			dropped = append(dropped, job)
		}
	}
	qm.jobs = kept
	qm.mu.Unlock()

	for _, job := range dropped {
		if job.IsTerminal() {
			continue
		}
		if err := qm.repo.Delete(job.ID); err != nil {
			return fmt.Errorf("failed to delete job %s: %w", job.ID, err)
		}
	}

	qm.logger.Info("Queue cleared", zap.Int("removed", len(dropped)))

	qm.updateDepthGauge()
	qm.notifyQueueUpdate()
	return nil
}

// Jobs returns a snapshot of the lane in queue order. Jobs are copied
// so callers never share memory with the worker goroutine.
func (qm *QueueManager) Jobs() []*domain.Job {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	snapshot := make([]*domain.Job, len(qm.jobs))
	for i, job := range qm.jobs {
		copied := *job
		snapshot[i] = &copied
	}
	return snapshot
}

// GetJob returns a copy of a single job from the lane
func (qm *QueueManager) GetJob(id string) (*domain.Job, error) {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	for _, job := range qm.jobs {
		if job.ID == id {
			copied := *job
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("job not found: %s", id)
}

// History returns every persisted job including completed ones
func (qm *QueueManager) History() ([]*domain.Job, error) {
	return qm.repo.FindAll()
}

// run is the single worker loop. It drains pending jobs one at a time,
// sleeping a per-domain pacing delay between consecutive extractions.
func (qm *QueueManager) run(ctx context.Context) {
	defer qm.workerWg.Done()

	for {
		job := qm.nextPending()
		if job == nil {
			select {
			case <-qm.stopChan:
				return
			case <-ctx.Done():
				return
			case <-qm.wake:
				continue
			}
		}

		qm.process(ctx, job)

		delay := ytdlp.JobDelay(job.URL)
		qm.logger.Debug("Pacing before next job", zap.Duration("delay", delay))

		timer := time.NewTimer(delay)
		select {
		case <-qm.stopChan:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (qm *QueueManager) nextPending() *domain.Job {
	qm.mu.RLock()
	defer qm.mu.RUnlock()
	for _, job := range qm.jobs {
		if job.IsPending() {
			return job
		}
	}
	return nil
}

// process runs one extraction end to end. A panic anywhere inside is
// contained to this job so the lane keeps moving.
func (qm *QueueManager) process(ctx context.Context, job *domain.Job) {
	defer func() {
		if r := recover(); r != nil {
			qm.logger.Error("Job processing panicked",
				zap.String("id", job.ID),
				zap.Any("panic", r))
			qm.settleJob(job, false)
		}
	}()

	qm.mu.Lock()
	job.MarkRunning()
	qm.mu.Unlock()
	if err := qm.repo.Update(job); err != nil {
		qm.logger.Error("Failed to persist job status", zap.String("id", job.ID), zap.Error(err))
	}
	qm.notifyQueueUpdate()

	qm.logger.Info("Job started",
		zap.String("id", job.ID),
		zap.String("url", job.URL))

	sink := func(event domain.ProgressEvent) {
		event.JobID = job.ID
		if event.Phase == domain.PhaseDownloading {
			qm.mu.Lock()
			job.Progress = event.Progress
			qm.mu.Unlock()
		}
		qm.notifyProgress(event)
	}

	started := time.Now()
	result, err := qm.runner.Run(ctx, job.URL, qm.destRoot, job.Options, sink)
	qm.metrics.JobDuration.Observe(time.Since(started).Seconds())

	if err != nil {
		qm.logger.Error("Job failed",
			zap.String("id", job.ID),
			zap.String("url", job.URL),
			zap.Error(err))
		qm.settleJob(job, false)
		return
	}

	// A catalog failure never fails the job: the media is already on
	// disk, only the index entry is missing
	if _, cerr := qm.catalog.RegisterMedia(result.Metadata, result.MediaFilePath, result.ThumbnailPath); cerr != nil {
		qm.logger.Error("Failed to catalog media",
			zap.String("id", job.ID),
			zap.Error(cerr))
	}

	qm.logger.Info("Job completed",
		zap.String("id", job.ID),
		zap.String("file", result.MediaFilePath))
	qm.settleJob(job, true)
}

// settleJob records the terminal status. Status is set first, then
// persisted, then observers are notified, in that order. If the job was
// removed from the lane while running, persistence is skipped.
func (qm *QueueManager) settleJob(job *domain.Job, success bool) {
	qm.mu.Lock()
	if success {
		job.MarkCompleted()
	} else {
		job.MarkFailed()
	}
	tracked := false
	for _, j := range qm.jobs {
		if j.ID == job.ID {
			tracked = true
			break
		}
	}
	qm.mu.Unlock()

	if success {
		qm.metrics.JobsCompleted.Inc()
	} else {
		qm.metrics.JobsFailed.Inc()
	}

	if tracked {
		if err := qm.repo.Update(job); err != nil {
			qm.logger.Error("Failed to persist job status", zap.String("id", job.ID), zap.Error(err))
		}
	} else {
		qm.logger.Warn("Job removed while running, skipping persistence", zap.String("id", job.ID))
	}

	qm.updateDepthGauge()
	qm.notifyQueueUpdate()
}

func (qm *QueueManager) signalWake() {
	select {
	case qm.wake <- struct{}{}:
	default:
	}
}

func (qm *QueueManager) notifyQueueUpdate() {
	snapshot := qm.Jobs()
	qm.mu.RLock()
	observers := make([]domain.QueueObserver, len(qm.observers))
	copy(observers, qm.observers)
	qm.mu.RUnlock()

	for _, observer := range observers {
		observer.OnQueueUpdate(snapshot)
	}
}

func (qm *QueueManager) notifyProgress(event domain.ProgressEvent) {
	qm.mu.RLock()
	observers := make([]domain.QueueObserver, len(qm.observers))
	copy(observers, qm.observers)
	qm.mu.RUnlock()

	for _, observer := range observers {
		observer.OnProgress(event)
	}
}

func (qm *QueueManager) updateDepthGauge() {
	qm.mu.RLock()
	depth := 0
	for _, job := range qm.jobs {
		if !job.IsTerminal() {
			depth++
		}
	}
	qm.mu.RUnlock()
	qm.metrics.QueueDepth.Set(float64(depth))
}
