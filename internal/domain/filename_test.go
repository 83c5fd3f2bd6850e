package domain

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCleanFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "clip", "clip"},
		{"reserved chars", `a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"whitespace runs", "  my   great\tclip ", "my_great_clip"},
		{"collapse underscores", "a___b", "a_b"},
		{"trailing underscores", "clip???", "clip"},
		{"only reserved", "???", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanFilename(tt.input))
		})
	}
}

func TestCleanFilename_Truncates(t *testing.T) {
	cleaned := CleanFilename(strings.Repeat("a", 300))
	assert.Len(t, cleaned, maxFilenameLength)

	short := strings.Repeat("视", 150)
	assert.Equal(t, short, CleanFilename(short))

	long := CleanFilename(strings.Repeat("视", 250))
	assert.True(t, utf8.ValidString(long))
	assert.Equal(t, maxFilenameLength, utf8.RuneCountInString(long))

	emoji := CleanFilename("a" + strings.Repeat("🎬", 250))
	assert.True(t, utf8.ValidString(emoji))
	assert.Equal(t, maxFilenameLength, utf8.RuneCountInString(emoji))
}

func TestSuggestedFilename(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	record := NewVideoRecord("https://example.com")
	assert.Equal(t, "unknown_video.mp4", record.SuggestedFilename(now))

	record.Username = "some user"
	record.Title = "My: Clip"
	assert.Equal(t, "some_user_My_Clip.mp4", record.SuggestedFilename(now))

	record.Username = ""
	assert.Equal(t, "My_Clip.mp4", record.SuggestedFilename(now))
}

func TestSuggestedFilename_TimestampFallback(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	record := NewVideoRecord("https://example.com")
	record.Username = "///"
	record.Title = ""

	assert.Equal(t, "video_1700000000123.mp4", record.SuggestedFilename(now))
}

func TestSuggestedFilename_Deterministic(t *testing.T) {
	record := NewVideoRecord("https://example.com")
	record.Title = "clip"
	first := record.SuggestedFilename(time.Now())
	second := record.SuggestedFilename(time.Now().Add(time.Hour))

	assert.Equal(t, first, second)
}
