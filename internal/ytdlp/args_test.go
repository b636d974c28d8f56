package ytdlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/mediavault/internal/domain"
)

func indexOf(args []string, want string) int {
	for i, a := range args {
		if a == want {
			return i
		}
	}
	return -1
}

func valueOf(t *testing.T, args []string, flag string) string {
	t.Helper()
	i := indexOf(args, flag)
	require.GreaterOrEqual(t, i, 0, "flag %s not present", flag)
	require.Less(t, i+1, len(args), "flag %s has no value", flag)
	return args[i+1]
}

func TestBuildArgsBaseFlags(t *testing.T) {
	args := BuildArgs("https://youtube.com/watch?v=1", "/dl", domain.DownloadOptions{})

	assert.Equal(t, "https://youtube.com/watch?v=1", args[0])
	for _, flag := range []string{
		"--no-check-certificates",
		"--no-warnings",
		"--newline",
		"--no-write-thumbnail",
		"--ignore-errors",
		"--no-simulate",
		"--progress",
		"--print-json",
	} {
		assert.Contains(t, args, flag)
	}
}

func TestBuildArgsPlaylistSelection(t *testing.T) {
	args := BuildArgs("https://youtube.com/watch?v=1", "/dl", domain.DownloadOptions{})
	assert.Contains(t, args, "--no-playlist")
	assert.NotContains(t, args, "--yes-playlist")

	args = BuildArgs("https://youtube.com/playlist?list=x", "/dl", domain.DownloadOptions{WantPlaylist: true})
	assert.Contains(t, args, "--yes-playlist")

	// Bulk domains always expand, even without the request
	args = BuildArgs("https://www.instagram.com/p/abc/", "/dl", domain.DownloadOptions{})
	assert.Contains(t, args, "--yes-playlist")
}

func TestBuildArgsSleepIntervals(t *testing.T) {
	fast := BuildArgs("https://youtu.be/abc", "/dl", domain.DownloadOptions{})
	assert.Equal(t, "0.5", valueOf(t, fast, "--min-sleep-interval"))
	assert.Equal(t, "2", valueOf(t, fast, "--max-sleep-interval"))
	assert.NotContains(t, fast, "--sleep-request")

	slow := BuildArgs("https://vimeo.com/123", "/dl", domain.DownloadOptions{})
	assert.Equal(t, "5", valueOf(t, slow, "--min-sleep-interval"))
	assert.Equal(t, "20", valueOf(t, slow, "--max-sleep-interval"))
	assert.Equal(t, "3", valueOf(t, slow, "--sleep-request"))
}

func TestBuildArgsOverwriteBehavior(t *testing.T) {
	args := BuildArgs("https://youtube.com/watch?v=1", "/dl", domain.DownloadOptions{SkipExisting: true})
	assert.Contains(t, args, "--no-overwrites")
	assert.NotContains(t, args, "--force-overwrites")

	args = BuildArgs("https://youtube.com/watch?v=1", "/dl", domain.DownloadOptions{})
	assert.Contains(t, args, "--force-overwrites")
}

func TestBuildArgsVideoFormats(t *testing.T) {
	args := BuildArgs("https://youtube.com/watch?v=1", "/dl", domain.DownloadOptions{})
	assert.Equal(t, "bestvideo+bestaudio/best", valueOf(t, args, "--format"))
	assert.Equal(t, "mp4", valueOf(t, args, "--merge-output-format"))

	args = BuildArgs("https://youtube.com/watch?v=1", "/dl", domain.DownloadOptions{
		QualityTier:  domain.Quality1080,
		ContainerExt: "mkv",
	})
	assert.Equal(t, "bestvideo[height<=1080]+bestaudio/best[height<=1080]", valueOf(t, args, "--format"))
	assert.Equal(t, "mkv", valueOf(t, args, "--merge-output-format"))

	args = BuildArgs("https://youtube.com/watch?v=1", "/dl", domain.DownloadOptions{QualityTier: domain.Quality8K})
	assert.Equal(t, "bestvideo[height<=4320]+bestaudio/best[height<=4320]", valueOf(t, args, "--format"))
}

func TestBuildArgsAudioFormats(t *testing.T) {
	args := BuildArgs("https://youtube.com/watch?v=1", "/dl", domain.DownloadOptions{MediaKind: domain.MediaKindAudio})
	assert.Contains(t, args, "--extract-audio")
	assert.Equal(t, "mp3", valueOf(t, args, "--audio-format"))
	assert.Equal(t, "bestaudio/best", valueOf(t, args, "--format"))
	assert.NotContains(t, args, "--merge-output-format")

	args = BuildArgs("https://youtube.com/watch?v=1", "/dl", domain.DownloadOptions{
		MediaKind:    domain.MediaKindAudio,
		ContainerExt: "m4a",
	})
	assert.Equal(t, "m4a", valueOf(t, args, "--audio-format"))
}

func TestBuildArgsBulkVideoFormats(t *testing.T) {
	// Bulk sources get single-file selectors and no forced merge
	args := BuildArgs("https://instagram.com/p/abc/", "/dl", domain.DownloadOptions{QualityTier: domain.Quality720})
	assert.Equal(t, "best[height<=720]", valueOf(t, args, "--format"))
	assert.NotContains(t, args, "--merge-output-format")

	args = BuildArgs("https://instagram.com/p/abc/", "/dl", domain.DownloadOptions{ContainerExt: "mp4"})
	assert.Equal(t, "best", valueOf(t, args, "--format"))
	assert.Equal(t, "mp4", valueOf(t, args, "--merge-output-format"))
}

func TestBuildArgsOutputTemplate(t *testing.T) {
	args := BuildArgs("https://youtube.com/watch?v=1", "/dl", domain.DownloadOptions{})
	assert.Equal(t, "/dl/%(extractor)s/%(uploader_id)s/%(title)s_%(id)s.%(ext)s", valueOf(t, args, "-o"))

	args = BuildArgs("https://instagram.com/p/abc/", "/dl", domain.DownloadOptions{})
	assert.Equal(t,
		"/dl/%(extractor)s/%(uploader_id)s/%(title).50s_%(id)s_%(playlist_index|0)02d.%(ext)s",
		valueOf(t, args, "-o"))
}
