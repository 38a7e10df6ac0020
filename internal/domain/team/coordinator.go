package team

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"conexao-server/services/chat-gateway/internal/domain/conversation"
	"conexao-server/services/chat-gateway/internal/domain/media"
	"conexao-server/services/chat-gateway/internal/domain/session"
)

// Coordinator wraps every delegation call with conversation logging.
// The inbound message is persisted before anything else so the history
// stays complete even when the user is paused or the engine fails.
type Coordinator struct {
	repo        conversation.Repository
	status      *conversation.StatusResolver
	sessions    *session.Adapter
	engine      Engine
	models      ModelProvider
	roster      ProfileProvider
	interceptor *media.Interceptor
	log         zerolog.Logger
}

func NewCoordinator(
	repo conversation.Repository,
	status *conversation.StatusResolver,
	sessions *session.Adapter,
	engine Engine,
	models ModelProvider,
	roster ProfileProvider,
	interceptor *media.Interceptor,
	log zerolog.Logger,
) *Coordinator {
	return &Coordinator{
		repo:        repo,
		status:      status,
		sessions:    sessions,
		engine:      engine,
		models:      models,
		roster:      roster,
		interceptor: interceptor,
		log:         log.With().Str("component", "coordinator").Logger(),
	}
}

// Handle runs one turn end to end: log the user message, check the
// override gate, inject history, delegate, intercept generated audio
// and log the agent reply.
func (c *Coordinator) Handle(ctx context.Context, turn Turn) (*Reply, error) {
	userID := conversation.QualifyUserID(turn.UserID)

	if err := c.repo.LogMessage(ctx, userID, conversation.SenderUser, turn.Input, turn.MediaType, turn.MediaURL); err != nil {
		c.log.Error().Err(err).Str("user_id", userID).Msg("failed to log user message")
	}

	if c.status.Status(ctx, userID) == conversation.AIStatusPaused {
		c.log.Info().Str("user_id", userID).Msg("conversation paused, skipping delegation")
		return &Reply{Paused: true}, nil
	}

	input := turn.Input
	if turn.IsText {
		input = c.sessions.Inject(ctx, userID, input)
	}

	req := RunRequest{
		Model:     c.models.ModelFor(ctx, turn),
		Input:     input,
		UserID:    conversation.BareUserID(userID),
		SessionID: userID,
	}
	if turn.MediaType != nil && turn.MediaURL != nil {
		req.Attachments = []MediaRef{{Type: *turn.MediaType, URL: *turn.MediaURL}}
	}
	if c.roster != nil {
		req.Responders = c.roster.Profiles()
	}

	result, err := c.engine.Run(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("engine run: %w", err)
	}

	reply := &Reply{
		Content:   result.Content,
		Reasoning: result.Reasoning,
		Images:    result.Images,
	}

	content, attachment := c.interceptor.Intercept(result.Content)
	var mediaType, mediaURL *string
	if attachment != nil {
		reply.Content = content
		reply.Audio = attachment
		t, u := "audio", attachment.URL
		mediaType, mediaURL = &t, &u
	} else if len(result.Audio) > 0 {
		mime := result.AudioMIME
		if mime == "" {
			mime = "audio/ogg"
		}
		reply.Audio = &media.Attachment{MIME: mime, Data: result.Audio}
		t := "audio"
		mediaType = &t
	}

	if err := c.repo.LogMessage(ctx, userID, conversation.SenderAgent, reply.Content, mediaType, mediaURL); err != nil {
		c.log.Error().Err(err).Str("user_id", userID).Msg("failed to log agent message")
	}

	return reply, nil
}

// LogManual records a message sent outside the delegation flow, such as
// an operator message pushed through the admin endpoints.
func (c *Coordinator) LogManual(ctx context.Context, userID, content string, mediaType, mediaURL *string) error {
	return c.repo.LogMessage(ctx, conversation.QualifyUserID(userID), conversation.SenderAgent, content, mediaType, mediaURL)
}
