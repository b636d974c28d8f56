package infrastructure

import "fmt"

// ProcessSpawnError indicates the extractor executable could not be
// started. Fatal to the job, the queue continues.
type ProcessSpawnError struct {
	Path string
	Err  error
}

func (e *ProcessSpawnError) Error() string {
	return fmt.Sprintf("failed to spawn extractor %s: %v", e.Path, e.Err)
}

func (e *ProcessSpawnError) Unwrap() error { return e.Err }

// ProcessExitError indicates the extractor exited non-zero
type ProcessExitError struct {
	Code int
}

func (e *ProcessExitError) Error() string {
	return fmt.Sprintf("extractor exited with code %d", e.Code)
}

// MetadataParseError indicates the extractor succeeded but its final
// metadata record could not be decoded. The file may exist on disk, but
// the job is reported as failed.
type MetadataParseError struct {
	Err error
}

func (e *MetadataParseError) Error() string {
	return fmt.Sprintf("failed to parse extractor metadata: %v", e.Err)
}

func (e *MetadataParseError) Unwrap() error { return e.Err }

// CatalogWriteError indicates the catalog transaction failed after a
// successful download. Logged by the queue, never fails the job: the
// artifact exists on disk, and user-visible success tracks acquisition.
type CatalogWriteError struct {
	Err error
}

func (e *CatalogWriteError) Error() string {
	return fmt.Sprintf("failed to catalog media: %v", e.Err)
}

func (e *CatalogWriteError) Unwrap() error { return e.Err }
