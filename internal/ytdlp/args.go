package ytdlp

import (
	"fmt"
	"path/filepath"

	"github.com/yourusername/mediavault/internal/domain"
)

// heightCaps maps a quality tier to the maximum video height requested
// from the extractor
var heightCaps = map[domain.QualityTier]int{
	domain.Quality8K:   4320,
	domain.Quality4K:   2160,
	domain.Quality2K:   1440,
	domain.Quality1080: 1080,
	domain.Quality720:  720,
	domain.Quality480:  480,
}

// BuildArgs maps a source URL, destination root and options to the
// extractor's argument vector. Deterministic, no I/O.
//
// The extractor is asked for newline-delimited progress on stderr and
// one JSON metadata record per item on stdout; remote certificates are
// never verified and interactive warnings are disabled.
func BuildArgs(url, destRoot string, opts domain.DownloadOptions) []string {
	bulk := IsBulkDomain(url)

	args := []string{
		url,
		"--no-check-certificates",
		"--no-warnings",
		"--newline",
		"--no-write-thumbnail",
		"--ignore-errors",
		"--no-simulate",
		"--progress",
		"--print-json",
	}

	// Bulk domains always expand playlists; others honor the request
	if bulk {
		args = append(args, "--yes-playlist")
	} else if opts.WantPlaylist {
		args = append(args, "--yes-playlist")
	} else {
		args = append(args, "--no-playlist")
	}

	// Intra-job pacing is delegated to the extractor itself
	if IsFastDomain(url) {
		args = append(args, "--min-sleep-interval", "0.5", "--max-sleep-interval", "2")
	} else {
		args = append(args, "--min-sleep-interval", "5", "--max-sleep-interval", "20", "--sleep-request", "3")
	}

	if opts.SkipExisting {
		args = append(args, "--no-overwrites")
	} else {
		args = append(args, "--force-overwrites")
	}

	args = append(args, formatArgs(opts, bulk)...)
	args = append(args, "-o", outputTemplate(url, destRoot))

	return args
}

// formatArgs selects the stream format and post-processing flags
func formatArgs(opts domain.DownloadOptions, bulk bool) []string {
	if opts.MediaKind == domain.MediaKindAudio {
		ext := opts.ContainerExt
		if ext == "" {
			ext = "mp3"
		}
		return []string{"--extract-audio", "--audio-format", ext, "--format", "bestaudio/best"}
	}

	if bulk {
		// Bulk sources serve single-file formats; a merge step would
		// fight the platform default container. Use single-file
		// selectors and only force a container when one was asked for.
		format := "best"
		if height, ok := heightCaps[opts.QualityTier]; ok {
			format = fmt.Sprintf("best[height<=%d]", height)
		}
		args := []string{"--format", format}
		if opts.ContainerExt != "" {
			args = append(args, "--merge-output-format", opts.ContainerExt)
		}
		return args
	}

	format := "bestvideo+bestaudio/best"
	if height, ok := heightCaps[opts.QualityTier]; ok {
		format = fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", height, height)
	}

	ext := opts.ContainerExt
	if ext == "" {
		ext = "mp4"
	}
	return []string{"--format", format, "--merge-output-format", ext}
}

// outputTemplate nests downloads by extractor name and uploader id under
// the destination root. Bulk domains additionally nest by a zero-padded
// playlist index and truncate long titles.
func outputTemplate(url, destRoot string) string {
	if IsBulkDomain(url) {
		return filepath.Join(destRoot,
			"%(extractor)s",
			"%(uploader_id)s",
			"%(title).50s_%(id)s_%(playlist_index|0)02d.%(ext)s")
	}
	return filepath.Join(destRoot,
		"%(extractor)s",
		"%(uploader_id)s",
		"%(title)s_%(id)s.%(ext)s")
}
