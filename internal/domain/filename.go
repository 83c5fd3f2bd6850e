package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// maxFilenameLength is counted in characters, not bytes
const maxFilenameLength = 200

var (
	reservedChars   = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
	underscoreRuns  = regexp.MustCompile(`__+`)
	defaultVideoExt = ".mp4"
)

// CleanFilename turns arbitrary text into a safe filename component
func CleanFilename(dirty string) string {
	name := reservedChars.ReplaceAllString(dirty, "_")
	name = whitespaceRuns.ReplaceAllString(strings.TrimSpace(name), "_")
	name = underscoreRuns.ReplaceAllString(name, "_")
	if runes := []rune(name); len(runes) > maxFilenameLength {
		name = string(runes[:maxFilenameLength])
	}
	return strings.TrimRight(name, "_")
}

// SuggestedFilename derives the output filename from the record fields.
// now is only used when no descriptive field survives cleaning.
func (v *VideoRecord) SuggestedFilename(now time.Time) string {
	var parts []string
	for _, p := range []string{CleanFilename(v.Username), CleanFilename(v.Title)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("video_%d%s", now.UnixMilli(), defaultVideoExt)
	}
	return strings.Join(parts, "_") + defaultVideoExt
}
