// Package media turns generated speech file paths embedded in responder
// output into playable audio attachments.
package media

import (
	"regexp"
	"strings"
)

// speechPathPattern matches absolute and relative paths to generated
// speech files under public/uploads/audio, with either separator and an
// optional Windows drive letter.
var speechPathPattern = regexp.MustCompile(`(?:[A-Za-z]:)?[\\/]?(?:[\w.-]+[\\/])*public[\\/]uploads[\\/]audio[\\/](?:[\w.-]+[\\/])*speech_[\w-]+\.(?:wav|ogg|mp3)`)

// Detector reports the first generated speech path found in a piece of
// responder text.
type Detector interface {
	Detect(content string) (path string, ok bool)
}

// PathDetector is the regex backed Detector used in production.
type PathDetector struct{}

func NewPathDetector() *PathDetector { return &PathDetector{} }

func (d *PathDetector) Detect(content string) (string, bool) {
	normalized := strings.ReplaceAll(content, `\\`, `\`)
	match := speechPathPattern.FindString(normalized)
	if match == "" {
		return "", false
	}
	return strings.TrimSpace(match), true
}

// PublicURL maps a detected file path to the URL the web player serves
// it from, anchored at the uploads segment. Paths without an uploads
// segment come back unchanged.
func PublicURL(path string) string {
	parts := splitPath(path)
	for i, p := range parts {
		if p == "uploads" {
			return "/" + strings.Join(parts[i:], "/")
		}
	}
	return path
}

// MIMEType classifies a speech file by extension, defaulting to WAV.
func MIMEType(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".ogg"):
		return "audio/ogg"
	case strings.HasSuffix(lower, ".mp3"):
		return "audio/mpeg"
	default:
		return "audio/wav"
	}
}

func splitPath(path string) []string {
	raw := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	parts := raw[:0]
	for _, p := range raw {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
