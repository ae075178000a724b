package util

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FormatTimeRange renders a clip's start/end seconds as "MM:SS - MM:SS".
// Negative inputs are clamped to zero.
func FormatTimeRange(startSec, endSec float64) string {
	return fmt.Sprintf("%s - %s", formatClock(startSec), formatClock(endSec))
}

func formatClock(sec float64) string {
	s := int(sec)
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

// TitleFromVideoID derives a display title from a video id by replacing
// separator characters with spaces and title-casing each word.
func TitleFromVideoID(id string) string {
	cleaned := strings.NewReplacer("_", " ", "-", " ").Replace(id)
	words := strings.Fields(cleaned)
	for i, w := range words {
		first, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(first)) + w[size:]
	}
	if len(words) == 0 {
		return "Unknown Video"
	}
	return strings.Join(words, " ")
}

// VideoIDFromPath derives a video id from a media file path: the base name
// without its extension.
func VideoIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
