package domain

import "context"

// JobRepository defines the durable backing store for queue jobs
type JobRepository interface {
	// Create persists a new job
	Create(job *Job) error

	// Update persists the current state of an existing job
	Update(job *Job) error

	// Delete removes a job by ID
	Delete(id string) error

	// FindByID finds a job by ID
	FindByID(id string) (*Job, error)

	// FindActive returns all non-completed jobs ordered by creation time.
	// Used by the startup recovery procedure.
	FindActive() ([]*Job, error)

	// FindAll returns every persisted job ordered by creation time
	FindAll() ([]*Job, error)
}

// CatalogRepository defines reads and the single-writer registration
// path over the media catalog
type CatalogRepository interface {
	// RegisterMedia upserts platform and profile and inserts the media
	// row with its tags, all inside one transaction
	RegisterMedia(meta *ExtractMetadata, mediaPath, thumbnailPath string) (*Media, error)

	// ListAll returns the full catalog ordered by recency
	ListAll() ([]Media, error)

	// Search returns a filtered, paginated page of the catalog
	Search(req SearchRequest) (*SearchResult, error)

	// SuggestAuthors returns up to 10 distinct profile display names
	// containing the keyword
	SuggestAuthors(keyword string) ([]string, error)

	// SuggestPlatforms returns up to 10 distinct platform names
	// containing the keyword
	SuggestPlatforms(keyword string) ([]string, error)

	// SuggestTags returns up to 10 distinct tag names containing the
	// keyword
	SuggestTags(keyword string) ([]string, error)
}

// ExtractionRunner runs the external extractor for one URL and settles
// with a structured result or a typed error
type ExtractionRunner interface {
	Run(ctx context.Context, url, destRoot string, opts DownloadOptions, sink ProgressSink) (*ExtractResult, error)
}
