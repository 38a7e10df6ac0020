// Package speech synthesizes voice replies with the Gemini TTS models
// and stores them under the public uploads tree where the media
// interceptor and the web player expect them.
package speech

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

const (
	promptPrefix      = "[Diga de forma simples e direta, use o sotaque e girias paraense]: "
	defaultSampleRate = 24000
)

// Generator turns text into a speech file on disk.
type Generator struct {
	client    *genai.Client
	model     string
	voice     string
	publicDir string
	log       zerolog.Logger
}

func NewGenerator(ctx context.Context, apiKey, model, voice, publicDir string, log zerolog.Logger) (*Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Generator{
		client:    client,
		model:     model,
		voice:     voice,
		publicDir: publicDir,
		log:       log.With().Str("component", "speech").Logger(),
	}, nil
}

// Generate synthesizes text and writes the audio under
// <publicDir>/uploads/audio/<userID>/. It returns the file path using
// forward slashes so the path survives the media detector.
func (g *Generator) Generate(ctx context.Context, text, userID string) (string, error) {
	if userID == "" {
		userID = "default"
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(promptPrefix+text),
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &genai.SpeechConfig{
				LanguageCode: "pt-br",
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
						VoiceName: g.voice,
					},
				},
			},
		})
	if err != nil {
		return "", fmt.Errorf("generate speech: %w", err)
	}

	blob := firstAudioBlob(resp)
	if blob == nil {
		return "", fmt.Errorf("generate speech: no audio in response")
	}

	data, ext := blob.Data, extensionFor(blob.MIMEType)
	if isPCM(blob.MIMEType) {
		data = encodeWAV(data, sampleRateFrom(blob.MIMEType))
	}

	dir := filepath.Join(g.publicDir, "uploads", "audio", userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("speech_%s%s", uuid.NewString(), ext))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write audio file: %w", err)
	}

	g.log.Info().Str("path", path).Str("user_id", userID).Msg("speech generated")
	return filepath.ToSlash(path), nil
}

func firstAudioBlob(resp *genai.GenerateContentResponse) *genai.Blob {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData
			}
		}
	}
	return nil
}

func extensionFor(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "mp3"):
		return ".mp3"
	case strings.Contains(mimeType, "ogg"):
		return ".ogg"
	default:
		return ".wav"
	}
}

func isPCM(mimeType string) bool {
	return strings.Contains(mimeType, "L16") || strings.Contains(mimeType, "pcm")
}

// sampleRateFrom parses "audio/L16;codec=pcm;rate=24000" style MIME
// parameters.
func sampleRateFrom(mimeType string) int {
	for _, param := range strings.Split(mimeType, ";") {
		param = strings.TrimSpace(param)
		if value, ok := strings.CutPrefix(param, "rate="); ok {
			if rate, err := strconv.Atoi(value); err == nil && rate > 0 {
				return rate
			}
		}
	}
	return defaultSampleRate
}

// encodeWAV wraps raw 16-bit mono PCM samples in a RIFF header.
func encodeWAV(pcm []byte, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	buf := make([]byte, 0, 44+len(pcm))
	buf = append(buf, "RIFF"...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(36+len(pcm)))
	buf = append(buf, "WAVE"...)
	buf = append(buf, "fmt "...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1) // PCM format
	buf = binary.LittleEndian.AppendUint16(buf, channels)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(sampleRate))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(byteRate))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(blockAlign))
	buf = binary.LittleEndian.AppendUint16(buf, bitsPerSample)
	buf = append(buf, "data"...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(pcm)))
	return append(buf, pcm...)
}
