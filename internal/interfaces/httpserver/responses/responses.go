// Package responses maps domain objects and errors to HTTP payloads.
package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"conexao-server/services/chat-gateway/internal/domain/conversation"
	"conexao-server/services/chat-gateway/internal/domain/responder"
	"conexao-server/services/chat-gateway/internal/utils/platformerrors"
)

// ErrorResponse is the envelope for all failed requests.
type ErrorResponse struct {
	Code      string `json:"code,omitempty"`
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// HandleError converts platform errors to their mapped status code and
// everything else to a plain 500.
func HandleError(reqCtx *gin.Context, err error, message string) {
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		reqCtx.AbortWithStatusJSON(platformerrors.ErrorTypeToHTTPStatus(platformErr.Type), ErrorResponse{
			Code:      platformErr.UUID,
			Error:     message,
			Message:   message,
			RequestID: platformErr.RequestID,
		})
		return
	}

	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error:   message,
		Message: message,
	})
}

// HandleNewError raises a typed error at the handler layer and writes it.
func HandleNewError(reqCtx *gin.Context, errorType platformerrors.ErrorType, message string) {
	err := platformerrors.NewError(reqCtx.Request.Context(), platformerrors.LayerHandler, errorType, message, nil)
	reqCtx.AbortWithStatusJSON(platformerrors.ErrorTypeToHTTPStatus(err.Type), ErrorResponse{
		Code:      err.UUID,
		Error:     message,
		Message:   message,
		RequestID: err.RequestID,
	})
}

// ConversationPayload is the admin view of a conversation row.
type ConversationPayload struct {
	ID             uint              `json:"id"`
	UserID         string            `json:"user_id"`
	AIStatus       string            `json:"ai_status"`
	LastMessageAt  int64             `json:"last_message_at"`
	LastAnalyzedAt *int64            `json:"last_analyzed_at,omitempty"`
	Sentiment      *string           `json:"sentiment,omitempty"`
	Topic          *string           `json:"topic,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// MessagePayload is one logged message.
type MessagePayload struct {
	ID        uint    `json:"id"`
	Sender    string  `json:"sender"`
	Content   string  `json:"content"`
	MediaType *string `json:"media_type,omitempty"`
	MediaURL  *string `json:"media_url,omitempty"`
	CreatedAt int64   `json:"created_at"`
}

// ResponderPayload is the admin view of a roster profile.
type ResponderPayload struct {
	ID           string   `json:"id"`
	Subject      string   `json:"subject"`
	Role         string   `json:"role"`
	Model        string   `json:"model"`
	Instructions []string `json:"instructions"`
	Documents    []string `json:"documents,omitempty"`
}

// MapConversation converts a domain conversation.
func MapConversation(c *conversation.Conversation) ConversationPayload {
	payload := ConversationPayload{
		ID:            c.ID,
		UserID:        c.UserID,
		AIStatus:      string(c.AIStatus),
		LastMessageAt: c.LastMessageAt.Unix(),
		Sentiment:     c.Sentiment,
		Topic:         c.Topic,
		Metadata:      c.Metadata,
	}
	if c.LastAnalyzedAt != nil {
		ts := c.LastAnalyzedAt.Unix()
		payload.LastAnalyzedAt = &ts
	}
	return payload
}

// MapConversations converts a list of conversations.
func MapConversations(items []*conversation.Conversation) []ConversationPayload {
	out := make([]ConversationPayload, 0, len(items))
	for _, c := range items {
		out = append(out, MapConversation(c))
	}
	return out
}

// MapMessages converts logged messages.
func MapMessages(items []conversation.Message) []MessagePayload {
	out := make([]MessagePayload, 0, len(items))
	for _, m := range items {
		out = append(out, MessagePayload{
			ID:        m.ID,
			Sender:    string(m.Sender),
			Content:   m.Content,
			MediaType: m.MediaType,
			MediaURL:  m.MediaURL,
			CreatedAt: m.CreatedAt.Unix(),
		})
	}
	return out
}

// MapResponders converts roster profiles.
func MapResponders(items []responder.Profile) []ResponderPayload {
	out := make([]ResponderPayload, 0, len(items))
	for _, p := range items {
		out = append(out, ResponderPayload{
			ID:           p.ID,
			Subject:      p.Subject,
			Role:         p.Role,
			Model:        p.Model,
			Instructions: p.Instructions,
			Documents:    p.Documents,
		})
	}
	return out
}
