package entities

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"conexao-server/services/chat-gateway/internal/domain/conversation"
)

// Conversation represents the database schema for conversations
type Conversation struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	UserID         string                `gorm:"type:varchar(64);uniqueIndex;not null"`
	AIStatus       conversation.AIStatus `gorm:"type:varchar(20);not null;default:'active'"`
	LastMessageAt  time.Time             `gorm:"index;not null"`
	LastAnalyzedAt *time.Time
	Sentiment      *string `gorm:"type:varchar(50)"`
	Topic          *string `gorm:"type:varchar(100)"`
	Metadata       JSONMap `gorm:"type:jsonb"`

	Messages []Message `gorm:"foreignKey:ConversationID"`
}

// TableName specifies the table name for Conversation.
func (Conversation) TableName() string {
	return "conversations"
}

// JSONMap is a custom type for map[string]string stored as JSON
type JSONMap map[string]string

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONMap) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// EtoD converts database entity to domain model
func (c *Conversation) EtoD() *conversation.Conversation {
	metadata := make(map[string]string)
	if c.Metadata != nil {
		metadata = c.Metadata
	}

	return &conversation.Conversation{
		ID:             c.ID,
		UserID:         c.UserID,
		AIStatus:       c.AIStatus,
		LastMessageAt:  c.LastMessageAt,
		LastAnalyzedAt: c.LastAnalyzedAt,
		Sentiment:      c.Sentiment,
		Topic:          c.Topic,
		Metadata:       metadata,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// NewSchemaConversation creates a database entity from domain model
func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	return &Conversation{
		ID:             c.ID,
		UserID:         c.UserID,
		AIStatus:       c.AIStatus,
		LastMessageAt:  c.LastMessageAt,
		LastAnalyzedAt: c.LastAnalyzedAt,
		Sentiment:      c.Sentiment,
		Topic:          c.Topic,
		Metadata:       c.Metadata,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
