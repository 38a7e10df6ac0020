package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"conexao-server/services/chat-gateway/internal/domain/analyzer"
	"conexao-server/services/chat-gateway/internal/domain/conversation"
	"conexao-server/services/chat-gateway/internal/domain/media"
	"conexao-server/services/chat-gateway/internal/domain/responder"
	"conexao-server/services/chat-gateway/internal/domain/team"
	"conexao-server/services/chat-gateway/internal/interfaces/httpserver/requests"
	"conexao-server/services/chat-gateway/internal/interfaces/httpserver/responses"
	"conexao-server/services/chat-gateway/internal/utils/platformerrors"
	"conexao-server/services/chat-gateway/internal/worker"
)

// SpeechGenerator synthesizes a speech artifact and returns its path.
type SpeechGenerator interface {
	Generate(ctx context.Context, text, userID string) (string, error)
}

// AdminHandler exposes the operator surface: manual sends, speech
// generation, conversation inspection and analysis.
type AdminHandler struct {
	coordinator *team.Coordinator
	channel     worker.Channel
	speech      SpeechGenerator
	analyzer    *analyzer.Analyzer
	registry    *responder.Registry
	repo        conversation.Repository
	queueDepth  func() int
	log         zerolog.Logger
}

// NewAdminHandler constructs the handler. speech may be nil when no
// TTS credentials are configured.
func NewAdminHandler(
	coordinator *team.Coordinator,
	channel worker.Channel,
	speech SpeechGenerator,
	analyzerSvc *analyzer.Analyzer,
	registry *responder.Registry,
	repo conversation.Repository,
	queueDepth func() int,
	log zerolog.Logger,
) *AdminHandler {
	return &AdminHandler{
		coordinator: coordinator,
		channel:     channel,
		speech:      speech,
		analyzer:    analyzerSvc,
		registry:    registry,
		repo:        repo,
		queueDepth:  queueDepth,
		log:         log.With().Str("handler", "admin").Logger(),
	}
}

// Send handles POST /internal/send
// @Summary Send a manual text message
// @Description Logs the message as an agent turn and delivers it through the channel
// @Tags Internal
// @Accept json
// @Produce json
// @Param request body requests.SendMessageRequest true "Message"
// @Success 200 {object} map[string]string
// @Failure 400 {object} responses.ErrorResponse
// @Failure 500 {object} responses.ErrorResponse
// @Router /internal/send [post]
func (h *AdminHandler) Send(c *gin.Context) {
	var req requests.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "to and message are required")
		return
	}

	ctx := c.Request.Context()
	if err := h.coordinator.LogManual(ctx, req.To, req.Message, nil, nil); err != nil {
		h.log.Error().Err(err).Str("to", req.To).Msg("failed to log manual message")
	}

	if err := h.channel.SendText(ctx, req.To, req.Message, false); err != nil {
		responses.HandleError(c, err, "failed to send message")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

// SendAudio handles POST /internal/send_audio
// @Summary Send a manual audio message
// @Description Uploads a local audio file to the channel, sends it and logs the agent turn
// @Tags Internal
// @Accept json
// @Produce json
// @Param request body requests.SendAudioRequest true "Audio reference"
// @Success 200 {object} map[string]string
// @Failure 400 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Failure 500 {object} responses.ErrorResponse
// @Router /internal/send_audio [post]
func (h *AdminHandler) SendAudio(c *gin.Context) {
	var req requests.SendAudioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "to and audio_path are required")
		return
	}

	data, err := os.ReadFile(req.AudioPath)
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeNotFound, "audio file not found")
		return
	}

	mimeType := audioMIMEForPath(req.AudioPath)
	ctx := c.Request.Context()

	mediaID, err := h.channel.UploadMedia(ctx, data, mimeType, filepath.Base(req.AudioPath))
	if err != nil {
		responses.HandleError(c, err, "failed to upload audio")
		return
	}
	if err := h.channel.SendAudio(ctx, req.To, mediaID); err != nil {
		responses.HandleError(c, err, "failed to send audio")
		return
	}

	mediaType, mediaURL := "audio", media.PublicURL(req.AudioPath)
	if err := h.coordinator.LogManual(ctx, req.To, "Manual Audio Message", &mediaType, &mediaURL); err != nil {
		h.log.Error().Err(err).Str("to", req.To).Msg("failed to log manual audio message")
	}

	c.JSON(http.StatusOK, gin.H{"status": "sent", "media_id": mediaID})
}

// GenerateSpeech handles POST /internal/generate_speech
// @Summary Synthesize a speech artifact
// @Description Generates an audio file under the public uploads tree for later delivery
// @Tags Internal
// @Accept json
// @Produce json
// @Param request body requests.GenerateSpeechRequest true "Speech request"
// @Success 200 {object} map[string]string
// @Failure 400 {object} responses.ErrorResponse
// @Failure 500 {object} responses.ErrorResponse
// @Failure 503 {object} responses.ErrorResponse
// @Router /internal/generate_speech [post]
func (h *AdminHandler) GenerateSpeech(c *gin.Context) {
	var req requests.GenerateSpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "to and text are required")
		return
	}
	if h.speech == nil {
		c.JSON(http.StatusServiceUnavailable, responses.ErrorResponse{Error: "speech generation is not configured"})
		return
	}

	path, err := h.speech.Generate(c.Request.Context(), req.Text, req.To)
	if err != nil {
		responses.HandleError(c, err, "failed to generate speech")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "generated",
		"file_path": path,
		"url":       media.PublicURL(path),
	})
}

// Analyze handles POST /internal/analyze
// @Summary Classify conversation sentiment and topic
// @Tags Internal
// @Accept json
// @Produce json
// @Param request body requests.AnalyzeRequest true "Analysis request"
// @Success 200 {object} analyzer.Result
// @Failure 400 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /internal/analyze [post]
func (h *AdminHandler) Analyze(c *gin.Context) {
	var req requests.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "conversation_id is required")
		return
	}

	result, err := h.analyzer.Analyze(c.Request.Context(), req.ConversationID, req.Force)
	if err != nil {
		responses.HandleError(c, err, "failed to analyze conversation")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Status handles GET /internal/status
// @Summary Operator surface liveness
// @Tags Internal
// @Produce json
// @Success 200 {object} map[string]string
// @Router /internal/status [get]
func (h *AdminHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "available",
		"queue_depth": h.queueDepth(),
	})
}

// ListConversations handles GET /internal/conversations
// @Summary List conversations
// @Tags Internal
// @Produce json
// @Param limit query int false "Maximum rows" default(50)
// @Success 200 {array} responses.ConversationPayload
// @Failure 500 {object} responses.ErrorResponse
// @Router /internal/conversations [get]
func (h *AdminHandler) ListConversations(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	items, err := h.repo.List(c.Request.Context(), limit)
	if err != nil {
		responses.HandleError(c, err, "failed to list conversations")
		return
	}
	c.JSON(http.StatusOK, responses.MapConversations(items))
}

// ListMessages handles GET /internal/conversations/:id/messages
// @Summary List messages of a conversation
// @Tags Internal
// @Produce json
// @Param id path int true "Conversation ID"
// @Param limit query int false "Maximum rows" default(100)
// @Success 200 {array} responses.MessagePayload
// @Failure 400 {object} responses.ErrorResponse
// @Failure 500 {object} responses.ErrorResponse
// @Router /internal/conversations/{id}/messages [get]
func (h *AdminHandler) ListMessages(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid conversation id")
		return
	}

	limit := queryInt(c, "limit", 100)
	items, err := h.repo.Messages(c.Request.Context(), uint(id), limit)
	if err != nil {
		responses.HandleError(c, err, "failed to list messages")
		return
	}
	c.JSON(http.StatusOK, responses.MapMessages(items))
}

// ListResponders handles GET /internal/responders
// @Summary List the loaded responder roster
// @Tags Internal
// @Produce json
// @Success 200 {array} responses.ResponderPayload
// @Router /internal/responders [get]
func (h *AdminHandler) ListResponders(c *gin.Context) {
	c.JSON(http.StatusOK, responses.MapResponders(h.registry.Profiles()))
}

// ReloadResponders handles POST /internal/responders/reload
// @Summary Reload the responder roster from storage
// @Tags Internal
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 500 {object} responses.ErrorResponse
// @Router /internal/responders/reload [post]
func (h *AdminHandler) ReloadResponders(c *gin.Context) {
	if err := h.registry.Reload(c.Request.Context()); err != nil {
		responses.HandleError(c, err, "failed to reload responders")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "reloaded",
		"count":  len(h.registry.Profiles()),
	})
}

// audioMIMEForPath classifies by extension. The channel rejects raw
// WAV voice notes but the operator may still push them deliberately.
func audioMIMEForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	default:
		return "audio/ogg"
	}
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
