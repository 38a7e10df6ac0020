package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"conexao-server/services/chat-gateway/internal/config"
	"conexao-server/services/chat-gateway/internal/domain/team"
	"conexao-server/services/chat-gateway/internal/interfaces/httpserver/dto"
	"conexao-server/services/chat-gateway/internal/worker"
)

// MediaDownloader fetches inbound media content by id.
type MediaDownloader interface {
	DownloadMedia(ctx context.Context, mediaID string) ([]byte, error)
}

// WebhookHandler terminates the WhatsApp Cloud API webhook. Verified
// messages become queued turns; the HTTP response never waits for the
// engine.
type WebhookHandler struct {
	cfg        *config.Config
	queue      *worker.Queue
	downloader MediaDownloader
	log        zerolog.Logger
}

// NewWebhookHandler constructs the handler.
func NewWebhookHandler(cfg *config.Config, queue *worker.Queue, downloader MediaDownloader, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		cfg:        cfg,
		queue:      queue,
		downloader: downloader,
		log:        log.With().Str("handler", "webhook").Logger(),
	}
}

// Verify handles GET /webhook
// @Summary Webhook verification handshake
// @Description Echoes hub.challenge when the verify token matches
// @Tags Webhook
// @Produce plain
// @Param hub.mode query string true "Subscription mode"
// @Param hub.verify_token query string true "Verify token"
// @Param hub.challenge query string true "Challenge to echo"
// @Success 200 {string} string
// @Failure 403 {object} map[string]string
// @Router /webhook [get]
func (h *WebhookHandler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" || token != h.cfg.VerifyToken {
		h.log.Warn().Str("mode", mode).Msg("webhook verification rejected")
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid verify token or mode"})
		return
	}
	if challenge == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no challenge received"})
		return
	}

	c.String(http.StatusOK, challenge)
}

// Receive handles POST /webhook
// @Summary Inbound message webhook
// @Description Validates the payload signature and enqueues each message as a background turn
// @Tags Webhook
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /webhook [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if !h.validSignature(body, c.GetHeader("X-Hub-Signature-256")) {
		h.log.Warn().Msg("invalid webhook signature")
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
		return
	}

	var payload dto.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		return
	}

	if payload.Object != "whatsapp_business_account" {
		h.log.Warn().Str("object", payload.Object).Msg("ignoring non-whatsapp webhook object")
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, message := range change.Value.Messages {
				turn, ok := h.buildTurn(c.Request.Context(), message)
				if !ok {
					continue
				}
				if !h.queue.Enqueue(turn) {
					h.log.Error().Str("from", message.From).Msg("turn queue full, message dropped")
				}
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "processing"})
}

func (h *WebhookHandler) validSignature(body []byte, header string) bool {
	if h.cfg.AppSecret == "" {
		return true
	}
	const prefix = "sha256="
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.cfg.AppSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header[len(prefix):]))
}

// buildTurn maps one webhook message to a queued turn. Unsupported
// types are dropped without a reply.
func (h *WebhookHandler) buildTurn(ctx context.Context, message dto.InboundMessage) (worker.InboundTurn, bool) {
	turn := worker.InboundTurn{
		MessageID: message.ID,
		From:      message.From,
		Type:      message.Type,
		Turn:      team.Turn{UserID: message.From},
	}

	switch message.Type {
	case "text":
		if message.Text == nil {
			return worker.InboundTurn{}, false
		}
		turn.Turn.Input = message.Text.Body
		turn.Turn.IsText = true
	case "image":
		turn.Turn.Input = captionOr(message.Image, "Describe the image")
		if message.Image != nil {
			h.saveInboundMedia(ctx, message.Image.ID, "image", mediaExt("image", message.Image.MimeType), &turn.Turn)
		}
	case "video":
		turn.Turn.Input = captionOr(message.Video, "Describe the video")
		if message.Video != nil {
			h.saveInboundMedia(ctx, message.Video.ID, "video", mediaExt("video", message.Video.MimeType), &turn.Turn)
		}
	case "audio":
		if message.Audio == nil {
			return worker.InboundTurn{}, false
		}
		turn.Turn.Input = "Audio message received"
		h.saveInboundMedia(ctx, message.Audio.ID, "audio", ".ogg", &turn.Turn)
	case "document":
		turn.Turn.Input = "Process the document"
		if message.Document != nil {
			h.saveInboundMedia(ctx, message.Document.ID, "document", mediaExt("document", message.Document.MimeType), &turn.Turn)
		}
	case "location":
		if message.Location == nil {
			return worker.InboundTurn{}, false
		}
		turn.Turn.Input = fmt.Sprintf(
			"Guarde as seguintes coordenadas Lat: %v Long: %v e gere uma visualização da minha propriedade rural.",
			message.Location.Latitude, message.Location.Longitude,
		)
	default:
		return worker.InboundTurn{}, false
	}

	return turn, true
}

// saveInboundMedia downloads inbound media and stores it under the
// public uploads tree so the turn carries a web-relative reference the
// engine and the message log can use. A failed audio download replaces
// the input, a voice note has no caption to fall back on; other kinds
// keep their prompt and run without the attachment.
func (h *WebhookHandler) saveInboundMedia(ctx context.Context, mediaID, kind, ext string, turn *team.Turn) {
	data, err := h.downloader.DownloadMedia(ctx, mediaID)
	if err != nil {
		h.log.Error().Err(err).Str("media_id", mediaID).Str("kind", kind).Msg("failed to download inbound media")
		if kind == "audio" {
			turn.Input = fmt.Sprintf("[Audio Download Failed: %v]", err)
		}
		return
	}

	dir := filepath.Join(h.cfg.PublicDir, "uploads", kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		h.log.Error().Err(err).Str("kind", kind).Msg("failed to create upload directory")
		return
	}

	filename := mediaID + ext
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		h.log.Error().Err(err).Str("kind", kind).Msg("failed to save inbound media")
		return
	}

	mediaType, mediaURL := kind, "/uploads/"+kind+"/"+filename
	turn.MediaType = &mediaType
	turn.MediaURL = &mediaURL
}

// mediaExt picks a filename extension from the reported MIME type.
// Voice notes always arrive as OGG/Opus.
func mediaExt(kind, mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "video/3gpp":
		return ".3gp"
	case "application/pdf":
		return ".pdf"
	}
	switch kind {
	case "image":
		return ".jpg"
	case "video":
		return ".mp4"
	}
	return ".bin"
}

func captionOr(media *dto.MediaContent, fallback string) string {
	if media != nil && media.Caption != "" {
		return media.Caption
	}
	return fallback
}
