package infrastructure

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/yourusername/mediavault/internal/domain"
)

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 40))
	assert.Equal(t, "abcde...", truncateString("abcdefgh", 5))

	// Rune-counted truncation never splits a multi-byte character
	title := strings.Repeat("日本語タイトル", 10)
	cut := truncateString(title, 8)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, "日本語タイトル日本...", cut)

	// Multi-byte strings under the cap pass through untouched
	assert.Equal(t, "日本語", truncateString("日本語", 40))
}

func TestEscapeOSAScript(t *testing.T) {
	assert.Equal(t, `say \"hi\"`, escapeOSAScript(`say "hi"`))
	assert.Equal(t, `C:\\media\\clip`, escapeOSAScript(`C:\media\clip`))
}

func TestNotificationDisabledIsSilent(t *testing.T) {
	svc := NewNotificationService(&domain.NotificationConfig{Enabled: false}, zap.NewNop())
	assert.NoError(t, svc.Send("Download Completed", "Clip"))
}
