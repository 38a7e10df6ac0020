package media

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Attachment is the audio payload extracted from responder output.
type Attachment struct {
	Path string
	URL  string
	MIME string
	Data []byte
}

// Interceptor scans responder text for generated speech paths and swaps
// the matched text for the file contents. Reading is fail soft: when
// the file cannot be opened the text passes through untouched.
type Interceptor struct {
	detector Detector
	baseDir  string
	log      zerolog.Logger
}

func NewInterceptor(detector Detector, baseDir string, log zerolog.Logger) *Interceptor {
	if baseDir == "" {
		baseDir = "."
	}
	return &Interceptor{
		detector: detector,
		baseDir:  baseDir,
		log:      log.With().Str("component", "media").Logger(),
	}
}

// Intercept returns the content with the audio stripped plus the loaded
// attachment, or the original content and nil when no playable speech
// file is present. Running it again on its own output is a no-op.
func (i *Interceptor) Intercept(content string) (string, *Attachment) {
	path, ok := i.detector.Detect(content)
	if !ok {
		return content, nil
	}

	resolved := path
	if !filepath.IsAbs(resolved) && !hasDrivePrefix(resolved) {
		resolved = filepath.Join(i.baseDir, filepath.FromSlash(path))
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		i.log.Warn().Err(err).Str("path", path).Msg("generated audio unreadable, keeping text reply")
		return content, nil
	}

	return "", &Attachment{
		Path: path,
		URL:  PublicURL(path),
		MIME: MIMEType(path),
		Data: data,
	}
}

func hasDrivePrefix(path string) bool {
	if len(path) < 2 || path[1] != ':' {
		return false
	}
	c := path[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
