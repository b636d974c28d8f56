package infrastructure

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/mediavault/internal/domain"
	"github.com/yourusername/mediavault/internal/ytdlp"
)

// progressPattern matches the extractor's percentage markers on stderr,
// e.g. "[download]  42.3% of 10.00MiB at 1.00MiB/s"
var progressPattern = regexp.MustCompile(`\[download\]\s+(\d+(?:\.\d+)?)%`)

// scanner buffer sizing; a single metadata record can be large
const (
	scanBufSize    = 64 * 1024
	scanBufMaxSize = 10 * 1024 * 1024
)

// YtdlpRunner spawns the external extractor, streams its mixed
// JSON/progress output and settles with a structured result
type YtdlpRunner struct {
	bins   *BinaryResolver
	thumbs *ThumbnailFetcher
	logger *zap.Logger
}

// NewYtdlpRunner creates an extraction runner
func NewYtdlpRunner(bins *BinaryResolver, thumbs *ThumbnailFetcher, logger *zap.Logger) *YtdlpRunner {
	return &YtdlpRunner{
		bins:   bins,
		thumbs: thumbs,
		logger: logger,
	}
}

// Run executes one extraction. Every phase transition is pushed to the
// sink so observers see status without polling.
func (r *YtdlpRunner) Run(ctx context.Context, url, destRoot string, opts domain.DownloadOptions, sink domain.ProgressSink) (*domain.ExtractResult, error) {
	if sink == nil {
		sink = func(domain.ProgressEvent) {}
	}

	extractorPath, err := r.bins.ExtractorPath()
	if err != nil {
		sink(domain.ProgressEvent{Phase: domain.PhaseFailed})
		return nil, &ProcessSpawnError{Path: extractorPath, Err: err}
	}

	if err := os.MkdirAll(destRoot, 0755); err != nil {
		sink(domain.ProgressEvent{Phase: domain.PhaseFailed})
		return nil, fmt.Errorf("failed to create destination root: %w", err)
	}

	args := ytdlp.BuildArgs(url, destRoot, opts)

	// The transcoder is optional: merging may fail downstream without
	// it, which the extractor reports on its own
	if transcoderPath, ok := r.bins.TranscoderPath(); ok {
		args = append(args, "--ffmpeg-location", transcoderPath)
	} else {
		r.logger.Warn("Transcoder binary not found, merge step may fail", zap.String("url", url))
	}

	r.logger.Info("Spawning extractor",
		zap.String("url", url),
		zap.String("command", ShellEscapeCommand(extractorPath, args...)))

	cmd := exec.CommandContext(ctx, extractorPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &ProcessSpawnError{Path: extractorPath, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &ProcessSpawnError{Path: extractorPath, Err: err}
	}

	if err := cmd.Start(); err != nil {
		sink(domain.ProgressEvent{Phase: domain.PhaseFailed})
		return nil, &ProcessSpawnError{Path: extractorPath, Err: err}
	}

	var (
		mu       sync.Mutex
		metadata *domain.ExtractMetadata
		wg       sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		r.consumeStdout(stdout, sink, func(m *domain.ExtractMetadata) {
			mu.Lock()
			metadata = m
			mu.Unlock()
		})
	}()
	go func() {
		defer wg.Done()
		r.consumeStderr(stderr, sink)
	}()

	wg.Wait()
	err = cmd.Wait()

	if err != nil {
		code := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		}
		r.logger.Error("Extractor exited non-zero", zap.String("url", url), zap.Int("code", code))
		sink(domain.ProgressEvent{Phase: domain.PhaseFailed})
		return nil, &ProcessExitError{Code: code}
	}

	mu.Lock()
	meta := metadata
	mu.Unlock()

	if meta == nil {
		sink(domain.ProgressEvent{Phase: domain.PhaseFailed})
		return nil, &MetadataParseError{Err: fmt.Errorf("no metadata record on stdout")}
	}

	thumbnailPath := r.thumbs.Fetch(ctx, meta.ThumbnailURL(), derefOr(meta.ID, ""), meta.ResolvedTitle(), destRoot)

	sink(domain.ProgressEvent{Phase: domain.PhaseCompleted, Progress: 100})

	return &domain.ExtractResult{
		Metadata:      meta,
		MediaFilePath: resolveMediaPath(meta, destRoot),
		ThumbnailPath: thumbnailPath,
	}, nil
}

// consumeStdout buffers stdout by line. Each complete line that decodes
// as a metadata record updates the current metadata and emits a start
// event; everything else is ignored. The scanner delivers a trailing
// unterminated line on process exit, so the final buffer is flushed
// through the same parse.
func (r *YtdlpRunner) consumeStdout(stdout io.Reader, sink domain.ProgressSink, update func(*domain.ExtractMetadata)) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, scanBufSize), scanBufMaxSize)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "{") || !strings.HasSuffix(line, "}") {
			continue
		}

		var meta domain.ExtractMetadata
		if err := json.Unmarshal([]byte(line), &meta); err != nil {
			continue
		}

		update(&meta)
		sink(domain.ProgressEvent{
			Phase:     domain.PhaseStart,
			Title:     meta.ResolvedTitle(),
			Platform:  meta.PlatformName(),
			Thumbnail: meta.ThumbnailURL(),
		})
	}
}

// consumeStderr buffers stderr by line and emits a downloading event for
// every percentage marker
func (r *YtdlpRunner) consumeStderr(stderr io.Reader, sink domain.ProgressSink) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, scanBufSize), scanBufMaxSize)

	for scanner.Scan() {
		m := progressPattern.FindStringSubmatch(strings.TrimSpace(scanner.Text()))
		if m == nil {
			continue
		}
		percent, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		sink(domain.ProgressEvent{Phase: domain.PhaseDownloading, Progress: percent})
	}
}

// resolveMediaPath prefers the path the extractor reported; when absent
// it reconstructs the output-template location from the metadata fields
func resolveMediaPath(meta *domain.ExtractMetadata, destRoot string) string {
	if p := meta.MediaFilePath(); p != "" {
		return p
	}

	ext := derefOr(meta.Ext, "mp4")
	return filepath.Join(destRoot,
		derefOr(meta.Extractor, "unknown"),
		derefOr(meta.UploaderID, "unknown"),
		fmt.Sprintf("%s_%s.%s", meta.ResolvedTitle(), derefOr(meta.ID, ""), ext))
}

func derefOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
