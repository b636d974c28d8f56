package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/mediavault/internal/domain"
	"github.com/yourusername/mediavault/internal/observability"
)

// mockJobRepo implements domain.JobRepository in memory
type mockJobRepo struct {
	mu   sync.Mutex
	jobs map[string]domain.Job
}

func newMockJobRepo() *mockJobRepo {
	return &mockJobRepo{jobs: make(map[string]domain.Job)}
}

func (m *mockJobRepo) Create(job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

func (m *mockJobRepo) Update(job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

func (m *mockJobRepo) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, id)
	return nil
}

func (m *mockJobRepo) FindByID(id string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok {
		return &job, nil
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockJobRepo) FindActive() ([]*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Job
	for id := range m.jobs {
		job := m.jobs[id]
		if job.Status != domain.JobCompleted {
			out = append(out, &job)
		}
	}
	return out, nil
}

func (m *mockJobRepo) FindAll() ([]*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Job
	for id := range m.jobs {
		job := m.jobs[id]
		out = append(out, &job)
	}
	return out, nil
}

func (m *mockJobRepo) statusOf(id string) domain.JobStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id].Status
}

func (m *mockJobRepo) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.jobs[id]
	return ok
}

// mockCatalog counts registrations and can be told to fail
type mockCatalog struct {
	mu         sync.Mutex
	registered int
	fail       bool
}

func (m *mockCatalog) RegisterMedia(meta *domain.ExtractMetadata, mediaPath, thumbnailPath string) (*domain.Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return nil, fmt.Errorf("catalog unavailable")
	}
	m.registered++
	return &domain.Media{Title: meta.ResolvedTitle(), Filepath: mediaPath}, nil
}

func (m *mockCatalog) ListAll() ([]domain.Media, error)                          { return nil, nil }
func (m *mockCatalog) Search(domain.SearchRequest) (*domain.SearchResult, error) { return nil, nil }
func (m *mockCatalog) SuggestAuthors(string) ([]string, error)                   { return nil, nil }
func (m *mockCatalog) SuggestPlatforms(string) ([]string, error)                 { return nil, nil }
func (m *mockCatalog) SuggestTags(string) ([]string, error)                      { return nil, nil }

func (m *mockCatalog) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registered
}

// fakeRunner settles immediately with a canned result or error
type fakeRunner struct {
	err error
}

func (f *fakeRunner) Run(ctx context.Context, url, destRoot string, opts domain.DownloadOptions, sink domain.ProgressSink) (*domain.ExtractResult, error) {
	if f.err != nil {
		sink(domain.ProgressEvent{Phase: domain.PhaseFailed})
		return nil, f.err
	}
	sink(domain.ProgressEvent{Phase: domain.PhaseStart, Title: "Clip"})
	sink(domain.ProgressEvent{Phase: domain.PhaseDownloading, Progress: 50})
	sink(domain.ProgressEvent{Phase: domain.PhaseCompleted, Progress: 100})
	title := "Clip"
	return &domain.ExtractResult{
		Metadata:      &domain.ExtractMetadata{Title: &title},
		MediaFilePath: "/media/clip.mp4",
	}, nil
}

// blockingRunner parks every extraction until release is closed and
// tracks how many run concurrently
type blockingRunner struct {
	mu      sync.Mutex
	active  int
	maxSeen int
	release chan struct{}
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{release: make(chan struct{})}
}

func (r *blockingRunner) Run(ctx context.Context, url, destRoot string, opts domain.DownloadOptions, sink domain.ProgressSink) (*domain.ExtractResult, error) {
	r.mu.Lock()
	r.active++
	if r.active > r.maxSeen {
		r.maxSeen = r.active
	}
	r.mu.Unlock()

	sink(domain.ProgressEvent{Phase: domain.PhaseDownloading, Progress: 10})
	<-r.release

	r.mu.Lock()
	r.active--
	r.mu.Unlock()

	title := "Clip"
	return &domain.ExtractResult{
		Metadata:      &domain.ExtractMetadata{Title: &title},
		MediaFilePath: "/media/clip.mp4",
	}, nil
}

func (r *blockingRunner) max() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxSeen
}

// chattyRunner streams a long burst of progress events before settling
type chattyRunner struct{}

func (chattyRunner) Run(ctx context.Context, url, destRoot string, opts domain.DownloadOptions, sink domain.ProgressSink) (*domain.ExtractResult, error) {
	sink(domain.ProgressEvent{Phase: domain.PhaseStart, Title: "Clip"})
	for i := 1; i <= 200; i++ {
		sink(domain.ProgressEvent{Phase: domain.PhaseDownloading, Progress: float64(i) / 2})
	}
	sink(domain.ProgressEvent{Phase: domain.PhaseCompleted, Progress: 100})
	title := "Clip"
	return &domain.ExtractResult{
		Metadata:      &domain.ExtractMetadata{Title: &title},
		MediaFilePath: "/media/clip.mp4",
	}, nil
}

// recordingObserver captures notifications with the repository status at
// callback time
type recordingObserver struct {
	mu             sync.Mutex
	repo           *mockJobRepo
	events         []domain.ProgressEvent
	terminalInRepo []domain.JobStatus
}

func (o *recordingObserver) OnQueueUpdate(jobs []*domain.Job) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, job := range jobs {
		if job.IsTerminal() {
			o.terminalInRepo = append(o.terminalInRepo, o.repo.statusOf(job.ID))
		}
	}
}

func (o *recordingObserver) OnProgress(event domain.ProgressEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *recordingObserver) progressEvents() []domain.ProgressEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]domain.ProgressEvent, len(o.events))
	copy(out, o.events)
	return out
}

func newTestQueue(repo *mockJobRepo, catalog *mockCatalog, runner domain.ExtractionRunner) *QueueManager {
	return NewQueueManager(repo, catalog, runner, "/tmp/media", observability.NewMetrics(), zap.NewNop())
}

func TestAddJobValidatesURL(t *testing.T) {
	qm := newTestQueue(newMockJobRepo(), &mockCatalog{}, &fakeRunner{})

	_, err := qm.AddJob("", domain.DownloadOptions{})
	assert.Error(t, err)

	_, err = qm.AddJob("ftp://example.com/file", domain.DownloadOptions{})
	assert.Error(t, err)

	job, err := qm.AddJob("https://example.com/watch?v=1", domain.DownloadOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.JobPending, job.Status)
	assert.Len(t, qm.Jobs(), 1)
}

func TestWorkerCompletesJobAndCatalogsMedia(t *testing.T) {
	repo := newMockJobRepo()
	catalog := &mockCatalog{}
	qm := newTestQueue(repo, catalog, &fakeRunner{})

	require.NoError(t, qm.Start(context.Background()))
	defer qm.Stop()

	job, err := qm.AddJob("https://youtube.com/watch?v=1", domain.DownloadOptions{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return repo.statusOf(job.ID) == domain.JobCompleted
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, catalog.count())
}

func TestWorkerMarksJobFailedOnRunnerError(t *testing.T) {
	repo := newMockJobRepo()
	catalog := &mockCatalog{}
	qm := newTestQueue(repo, catalog, &fakeRunner{err: fmt.Errorf("exit status 1")})

	require.NoError(t, qm.Start(context.Background()))
	defer qm.Stop()

	job, err := qm.AddJob("https://youtube.com/watch?v=1", domain.DownloadOptions{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return repo.statusOf(job.ID) == domain.JobFailed
	}, 3*time.Second, 10*time.Millisecond)

	assert.Zero(t, catalog.count())
}

func TestCatalogFailureDoesNotFailJob(t *testing.T) {
	repo := newMockJobRepo()
	qm := newTestQueue(repo, &mockCatalog{fail: true}, &fakeRunner{})

	require.NoError(t, qm.Start(context.Background()))
	defer qm.Stop()

	job, err := qm.AddJob("https://youtube.com/watch?v=1", domain.DownloadOptions{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return repo.statusOf(job.ID) == domain.JobCompleted
	}, 3*time.Second, 10*time.Millisecond)
}

func TestObserverReceivesProgressPhases(t *testing.T) {
	repo := newMockJobRepo()
	observer := &recordingObserver{repo: repo}
	qm := newTestQueue(repo, &mockCatalog{}, &fakeRunner{})
	qm.Subscribe(observer)

	require.NoError(t, qm.Start(context.Background()))
	defer qm.Stop()

	job, err := qm.AddJob("https://youtube.com/watch?v=1", domain.DownloadOptions{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return repo.statusOf(job.ID) == domain.JobCompleted
	}, 3*time.Second, 10*time.Millisecond)

	events := observer.progressEvents()
	require.NotEmpty(t, events)
	assert.Equal(t, domain.PhaseStart, events[0].Phase)
	assert.Equal(t, domain.PhaseCompleted, events[len(events)-1].Phase)
	for _, event := range events {
		assert.Equal(t, job.ID, event.JobID)
	}

	// Terminal status was already persisted when observers were told
	observer.mu.Lock()
	defer observer.mu.Unlock()
	require.NotEmpty(t, observer.terminalInRepo)
	for _, status := range observer.terminalInRepo {
		assert.Equal(t, domain.JobCompleted, status)
	}
}

func TestJobsReturnsDetachedCopies(t *testing.T) {
	qm := newTestQueue(newMockJobRepo(), &mockCatalog{}, &fakeRunner{})

	job, err := qm.AddJob("https://example.com/a", domain.DownloadOptions{})
	require.NoError(t, err)

	snapshot := qm.Jobs()
	require.Len(t, snapshot, 1)
	snapshot[0].Status = domain.JobFailed
	snapshot[0].Progress = 99

	fresh, err := qm.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobPending, fresh.Status)
	assert.Zero(t, fresh.Progress)
}

func TestSnapshotReadersDoNotShareJobMemory(t *testing.T) {
	repo := newMockJobRepo()
	qm := newTestQueue(repo, &mockCatalog{}, chattyRunner{})

	require.NoError(t, qm.Start(context.Background()))
	defer qm.Stop()

	// Hammer snapshots from another goroutine while the worker mutates
	// the job. The race detector flags any shared field access.
	done := make(chan struct{})
	var readerWg sync.WaitGroup
	readerWg.Add(1)
	go func() {
		defer readerWg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			for _, j := range qm.Jobs() {
				_ = j.Status
				_ = j.Progress
			}
		}
	}()

	job, err := qm.AddJob("https://youtube.com/watch?v=1", domain.DownloadOptions{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return repo.statusOf(job.ID) == domain.JobCompleted
	}, 3*time.Second, 10*time.Millisecond)

	close(done)
	readerWg.Wait()
}

func TestLaneRunsAtMostOneJobAtATime(t *testing.T) {
	repo := newMockJobRepo()
	runner := newBlockingRunner()
	qm := newTestQueue(repo, &mockCatalog{}, runner)

	require.NoError(t, qm.Start(context.Background()))
	defer qm.Stop()

	var ids []string
	for _, url := range []string{
		"https://youtube.com/watch?v=1",
		"https://youtube.com/watch?v=2",
		"https://youtube.com/watch?v=3",
	} {
		job, err := qm.AddJob(url, domain.DownloadOptions{})
		require.NoError(t, err)
		ids = append(ids, job.ID)
	}

	require.Eventually(t, func() bool {
		return countByStatus(qm.Jobs(), domain.JobRunning) == 1
	}, 3*time.Second, 10*time.Millisecond)

	// While the first job is parked in the runner the rest must wait
	for i := 0; i < 100; i++ {
		assert.LessOrEqual(t, countByStatus(qm.Jobs(), domain.JobRunning), 1)
		time.Sleep(time.Millisecond)
	}

	close(runner.release)

	require.Eventually(t, func() bool {
		for _, id := range ids {
			if repo.statusOf(id) != domain.JobCompleted {
				return false
			}
		}
		return true
	}, 15*time.Second, 20*time.Millisecond)

	assert.Equal(t, 1, runner.max())
}

func countByStatus(jobs []*domain.Job, status domain.JobStatus) int {
	n := 0
	for _, job := range jobs {
		if job.Status == status {
			n++
		}
	}
	return n
}

func TestRemoveJobDropsPendingJob(t *testing.T) {
	repo := newMockJobRepo()
	qm := newTestQueue(repo, &mockCatalog{}, &fakeRunner{})

	job, err := qm.AddJob("https://example.com/a", domain.DownloadOptions{})
	require.NoError(t, err)

	require.NoError(t, qm.RemoveJob(job.ID))
	assert.Empty(t, qm.Jobs())
	assert.False(t, repo.has(job.ID))

	assert.Error(t, qm.RemoveJob("missing"))
}

func TestClearQueueKeepsRunningJob(t *testing.T) {
	repo := newMockJobRepo()
	qm := newTestQueue(repo, &mockCatalog{}, &fakeRunner{})

	running, err := qm.AddJob("https://example.com/a", domain.DownloadOptions{})
	require.NoError(t, err)

	pending, err := qm.AddJob("https://example.com/b", domain.DownloadOptions{})
	require.NoError(t, err)

	finished, err := qm.AddJob("https://example.com/c", domain.DownloadOptions{})
	require.NoError(t, err)

	// Snapshots are detached, so drive lane state directly
	qm.mu.Lock()
	qm.jobs[0].MarkRunning()
	qm.jobs[2].MarkCompleted()
	qm.mu.Unlock()

	require.NoError(t, qm.ClearQueue())

	jobs := qm.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, running.ID, jobs[0].ID)
	assert.False(t, repo.has(pending.ID))
	// History rows for settled jobs survive the clear
	assert.True(t, repo.has(finished.ID))
}

func TestRecoverDemotesInterruptedJobs(t *testing.T) {
	repo := newMockJobRepo()

	interrupted := domain.NewJob("https://youtube.com/watch?v=a", domain.DownloadOptions{})
	interrupted.MarkRunning()
	interrupted.Progress = 73
	require.NoError(t, repo.Create(interrupted))

	waiting := domain.NewJob("https://youtube.com/watch?v=b", domain.DownloadOptions{})
	require.NoError(t, repo.Create(waiting))

	done := domain.NewJob("https://youtube.com/watch?v=c", domain.DownloadOptions{})
	done.MarkCompleted()
	require.NoError(t, repo.Create(done))

	qm := newTestQueue(repo, &mockCatalog{}, &fakeRunner{})
	require.NoError(t, qm.Recover())

	jobs := qm.Jobs()
	assert.Len(t, jobs, 2)
	for _, job := range jobs {
		assert.Equal(t, domain.JobPending, job.Status)
		assert.Zero(t, job.Progress)
	}
	assert.Equal(t, domain.JobPending, repo.statusOf(interrupted.ID))

	// Demoted jobs are picked up again once the lane starts
	require.NoError(t, qm.Start(context.Background()))
	defer qm.Stop()

	require.Eventually(t, func() bool {
		return repo.statusOf(interrupted.ID) == domain.JobCompleted &&
			repo.statusOf(waiting.ID) == domain.JobCompleted
	}, 10*time.Second, 20*time.Millisecond)
}

func TestStartTwiceFails(t *testing.T) {
	qm := newTestQueue(newMockJobRepo(), &mockCatalog{}, &fakeRunner{})

	require.NoError(t, qm.Start(context.Background()))
	assert.Error(t, qm.Start(context.Background()))
	require.NoError(t, qm.Stop())
	assert.Error(t, qm.Stop())
}
