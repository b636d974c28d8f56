package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShellEscape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain path passes through",
			input:    "/media/youtube/clip.mp4",
			expected: "/media/youtube/clip.mp4",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "''",
		},
		{
			name:     "destination with spaces",
			input:    "/media/My Mix Vol. 2",
			expected: "'/media/My Mix Vol. 2'",
		},
		{
			name:     "output template percent fields",
			input:    "%(title).50s_%(id)s.%(ext)s",
			expected: "'%(title).50s_%(id)s.%(ext)s'",
		},
		{
			name:     "url with query and ampersand",
			input:    "https://youtube.com/watch?v=abc&list=PL1",
			expected: "'https://youtube.com/watch?v=abc&list=PL1'",
		},
		{
			name:     "embedded single quote",
			input:    "/media/it's a clip",
			expected: `'/media/it'"'"'s a clip'`,
		},
		{
			name:     "double quotes and dollar",
			input:    `say "hi" for $5`,
			expected: `'say "hi" for $5'`,
		},
		{
			name:     "backtick and semicolon",
			input:    "a`b;c",
			expected: "'a`b;c'",
		},
		{
			name:     "redirects and pipe",
			input:    "a|b<c>d",
			expected: "'a|b<c>d'",
		},
		{
			name:     "backslash is quoted not doubled",
			input:    `clips\today`,
			expected: `'clips\today'`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShellEscape(tt.input))
		})
	}
}

func TestShellEscapeCommand(t *testing.T) {
	assert.Equal(t, "yt-dlp --version", ShellEscapeCommand("yt-dlp", "--version"))

	assert.Equal(t,
		"yt-dlp -o '%(title)s.%(ext)s' -P '/media/new clips' 'https://youtube.com/watch?v=abc&t=5'",
		ShellEscapeCommand("yt-dlp",
			"-o", "%(title)s.%(ext)s",
			"-P", "/media/new clips",
			"https://youtube.com/watch?v=abc&t=5"))

	// A binary resolved to a path with spaces gets quoted too
	assert.Equal(t, "'/opt/media tools/yt-dlp' --version",
		ShellEscapeCommand("/opt/media tools/yt-dlp", "--version"))
}

func TestIsShellSpecialChar(t *testing.T) {
	for _, c := range " \t'\"$`\\!*?[](){}|;<>&~#%\n\r" {
		assert.True(t, isShellSpecialChar(c), "expected %q to need escaping", c)
	}
	for _, c := range "abcABC123_-./:@=+" {
		assert.False(t, isShellSpecialChar(c), "expected %q to pass through", c)
	}
}
