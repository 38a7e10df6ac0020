package entities

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"conexao-server/services/chat-gateway/internal/domain/responder"
)

// Responder represents the database schema for responder definitions.
type Responder struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID  string           `gorm:"type:varchar(50);uniqueIndex;not null"`
	Subject   string           `gorm:"type:varchar(128);not null"`
	Behaviour string           `gorm:"type:text"`
	Details   string           `gorm:"type:text"`
	Tier      responder.Tier   `gorm:"type:varchar(10);not null;default:'fast'"`
	Status    responder.Status `gorm:"type:varchar(20);index;not null;default:'draft'"`
	Documents datatypes.JSON   `gorm:"type:jsonb"`

	// Single-document column kept for rosters created before the
	// documents list existed.
	KnowledgeBase *string `gorm:"type:varchar(512)"`
}

// TableName specifies the table name for Responder.
func (Responder) TableName() string {
	return "responders"
}

// EtoD converts database entity to domain model
func (r *Responder) EtoD() *responder.Responder {
	var docs []string
	if len(r.Documents) > 0 {
		_ = json.Unmarshal(r.Documents, &docs)
	}
	if r.KnowledgeBase != nil && *r.KnowledgeBase != "" {
		docs = append(docs, *r.KnowledgeBase)
	}

	return &responder.Responder{
		ID:        r.PublicID,
		Subject:   r.Subject,
		Behaviour: r.Behaviour,
		Details:   r.Details,
		Tier:      r.Tier,
		Status:    r.Status,
		Documents: docs,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// NewSchemaResponder creates a database entity from domain model
func NewSchemaResponder(r *responder.Responder) *Responder {
	var docs datatypes.JSON
	if len(r.Documents) > 0 {
		raw, err := json.Marshal(r.Documents)
		if err == nil {
			docs = raw
		}
	}

	return &Responder{
		PublicID:  r.ID,
		Subject:   r.Subject,
		Behaviour: r.Behaviour,
		Details:   r.Details,
		Tier:      r.Tier,
		Status:    r.Status,
		Documents: docs,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
