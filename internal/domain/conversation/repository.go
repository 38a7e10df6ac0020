package conversation

import (
	"context"
	"time"
)

// Repository is the only access path to conversation state. Every operation
// opens its own transaction scope and releases it before returning; nothing
// holds the store open across a delegation call.
type Repository interface {
	// GetOrCreate returns the conversation for userID, creating it when
	// absent and touching last_message_at. Concurrent first messages for
	// the same user must still resolve to a single row.
	GetOrCreate(ctx context.Context, userID string) (*Conversation, error)

	// FindByID fetches a conversation by its internal ID.
	FindByID(ctx context.Context, id uint) (*Conversation, error)

	// FindByUserID fetches a conversation by exact user_id match.
	FindByUserID(ctx context.Context, userID string) (*Conversation, error)

	// List returns conversations ordered by most recent activity.
	List(ctx context.Context, limit int) ([]*Conversation, error)

	// LogMessage appends a message to the conversation for userID,
	// creating the conversation when needed.
	LogMessage(ctx context.Context, userID string, sender Sender, content string, mediaType, mediaURL *string) error

	// History returns up to limit most recent entries for userID in
	// chronological (oldest-first) order, regardless of the store's
	// native retrieval order. A missing conversation yields an empty
	// slice, not an error.
	History(ctx context.Context, userID string, limit int) ([]HistoryEntry, error)

	// Messages returns full messages for a conversation, oldest
	// first, capped at limit.
	Messages(ctx context.Context, conversationID uint, limit int) ([]Message, error)

	// UpdateAnalysis stores analyzer output and stamps last_analyzed_at.
	UpdateAnalysis(ctx context.Context, conversationID uint, sentiment, topic string, analyzedAt time.Time) error

	// StatusByUserID returns the ai_status for an exact user_id match.
	// The second return reports whether a row exists.
	StatusByUserID(ctx context.Context, userID string) (AIStatus, bool, error)
}
