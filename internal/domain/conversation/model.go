package conversation

import (
	"strings"
	"time"
)

// ChannelPrefix qualifies user identifiers that arrived over the WhatsApp
// channel. Legacy rows may carry the bare phone number instead; both forms
// refer to the same person and the status gate resolves between them.
const ChannelPrefix = "wa:"

// AIStatus controls whether automated replies are enabled for a conversation.
type AIStatus string

const (
	AIStatusActive AIStatus = "active"
	AIStatusPaused AIStatus = "paused"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

// Conversation is the persisted continuity unit, keyed by user identifier.
// There is at most one conversation per distinct user_id string.
type Conversation struct {
	ID             uint
	UserID         string
	AIStatus       AIStatus
	LastMessageAt  time.Time
	LastAnalyzedAt *time.Time
	Sentiment      *string
	Topic          *string
	Metadata       map[string]string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Message is one turn half inside a conversation. Content may be empty when
// the turn was delivered as media instead of text.
type Message struct {
	ID             uint
	ConversationID uint
	Sender         Sender
	Content        string
	MediaType      *string
	MediaURL       *string
	CreatedAt      time.Time
}

// HistoryEntry is the reduced view of a message used for context injection.
type HistoryEntry struct {
	Sender  Sender
	Content string
}

// QualifyUserID ensures the channel prefix is present without duplicating it.
func QualifyUserID(id string) string {
	if strings.HasPrefix(id, ChannelPrefix) {
		return id
	}
	return ChannelPrefix + id
}

// BareUserID strips the channel prefix, returning the raw phone number.
func BareUserID(id string) string {
	return strings.TrimPrefix(id, ChannelPrefix)
}

// NewConversation builds a conversation in its initial state.
func NewConversation(userID string) *Conversation {
	now := time.Now()
	return &Conversation{
		UserID:        userID,
		AIStatus:      AIStatusActive,
		LastMessageAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
