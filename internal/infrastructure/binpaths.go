package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	extractorName  = "yt-dlp"
	transcoderName = "ffmpeg"
)

// BinaryResolver locates the external extractor and transcoder
// executables. A per-user override directory takes precedence over the
// bundled fallback directory, independently for each binary.
type BinaryResolver struct {
	overrideDir string
	bundledDir  string
}

// NewBinaryResolver creates a binary resolver
func NewBinaryResolver(overrideDir, bundledDir string) *BinaryResolver {
	return &BinaryResolver{
		overrideDir: overrideDir,
		bundledDir:  bundledDir,
	}
}

func binaryFilename(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func (r *BinaryResolver) resolve(name string) (string, bool) {
	filename := binaryFilename(name)

	if r.overrideDir != "" {
		p := filepath.Join(r.overrideDir, filename)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}

	p := filepath.Join(r.bundledDir, filename)
	if _, err := os.Stat(p); err == nil {
		return p, true
	}

	return "", false
}

// ExtractorPath returns the path to the extractor executable. The
// extractor is mandatory: without it no job can run.
func (r *BinaryResolver) ExtractorPath() (string, error) {
	p, ok := r.resolve(extractorName)
	if !ok {
		return "", fmt.Errorf("extractor binary %q not found in %s or %s",
			extractorName, r.overrideDir, r.bundledDir)
	}
	return p, nil
}

// TranscoderPath returns the path to the transcoder executable and
// whether it exists. The transcoder is optional: when absent the merge
// step is skipped and merging may fail downstream.
func (r *BinaryResolver) TranscoderPath() (string, bool) {
	return r.resolve(transcoderName)
}
