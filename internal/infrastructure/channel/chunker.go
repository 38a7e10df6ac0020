package channel

import (
	"fmt"
	"strings"
)

// MaxSegmentRunes is the WhatsApp text length ceiling the gateway
// splits at.
const MaxSegmentRunes = 4000

// Chunk splits message into segments of at most MaxSegmentRunes runes.
// Multi-segment messages get an ordinal "[i/N] " prefix so the reader
// can reassemble them.
func Chunk(message string) []string {
	runes := []rune(message)
	if len(runes) <= MaxSegmentRunes {
		return []string{message}
	}

	var segments []string
	for start := 0; start < len(runes); start += MaxSegmentRunes {
		end := start + MaxSegmentRunes
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, string(runes[start:end]))
	}

	for i := range segments {
		segments[i] = fmt.Sprintf("[%d/%d] %s", i+1, len(segments), segments[i])
	}
	return segments
}

// Italicize wraps each line in underscores, the WhatsApp italics
// markup. Empty lines stay bare so "__" never shows up literally.
func Italicize(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line == "" {
			continue
		}
		lines[i] = "_" + line + "_"
	}
	return strings.Join(lines, "\n")
}
