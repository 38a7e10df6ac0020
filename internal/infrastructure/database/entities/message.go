package entities

import (
	"time"

	"conexao-server/services/chat-gateway/internal/domain/conversation"
)

// Message represents the database schema for a single logged turn.
type Message struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_message_conversation_created"`

	ConversationID uint                `gorm:"index:idx_message_conversation_created;not null"`
	Sender         conversation.Sender `gorm:"type:varchar(10);not null"`
	Content        string              `gorm:"type:text;not null"`
	MediaType      *string             `gorm:"type:varchar(20)"`
	MediaURL       *string             `gorm:"type:varchar(512)"`
}

// TableName specifies the table name for Message.
func (Message) TableName() string {
	return "messages"
}

// EtoD converts database entity to domain model
func (m *Message) EtoD() *conversation.Message {
	return &conversation.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         m.Sender,
		Content:        m.Content,
		MediaType:      m.MediaType,
		MediaURL:       m.MediaURL,
		CreatedAt:      m.CreatedAt,
	}
}

// NewSchemaMessage creates a database entity from domain model
func NewSchemaMessage(m *conversation.Message) *Message {
	return &Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         m.Sender,
		Content:        m.Content,
		MediaType:      m.MediaType,
		MediaURL:       m.MediaURL,
		CreatedAt:      m.CreatedAt,
	}
}
