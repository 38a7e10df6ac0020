package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "conexao-server/services/chat-gateway/internal/domain/conversation"
	"conexao-server/services/chat-gateway/internal/infrastructure/database/entities"
	"conexao-server/services/chat-gateway/internal/utils/platformerrors"
)

// Repository persists conversations and their message log.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a conversation repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetOrCreate returns the conversation for userID, inserting it when
// absent. The upsert keeps concurrent first messages on a single row:
// both writers hit the unique index on user_id and the loser turns into
// an update of last_message_at.
func (r *Repository) GetOrCreate(ctx context.Context, userID string) (*domain.Conversation, error) {
	entity := entities.NewSchemaConversation(domain.NewConversation(userID))

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{"last_message_at": entity.LastMessageAt}),
		}).
		Create(entity).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to get or create conversation",
			err,
		)
	}

	// The returning ID is the surviving row either way; refetch so the
	// caller sees the stored status and analysis fields.
	return r.FindByUserID(ctx, userID)
}

// FindByID fetches a conversation by its internal ID.
func (r *Repository) FindByID(ctx context.Context, id uint) (*domain.Conversation, error) {
	var entity entities.Conversation
	if err := r.db.WithContext(ctx).First(&entity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("conversation not found: %d", id),
				nil,
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch conversation",
			err,
		)
	}
	return entity.EtoD(), nil
}

// FindByUserID fetches a conversation by exact user_id match.
func (r *Repository) FindByUserID(ctx context.Context, userID string) (*domain.Conversation, error) {
	var entity entities.Conversation
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("conversation not found: %s", userID),
				nil,
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch conversation",
			err,
		)
	}
	return entity.EtoD(), nil
}

// List returns conversations ordered by most recent activity.
func (r *Repository) List(ctx context.Context, limit int) ([]*domain.Conversation, error) {
	query := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Order("last_message_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []entities.Conversation
	if err := query.Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list conversations",
			err,
		)
	}

	result := make([]*domain.Conversation, len(rows))
	for i := range rows {
		result[i] = rows[i].EtoD()
	}
	return result, nil
}

// LogMessage appends one message to the conversation for userID,
// creating the conversation first when needed.
func (r *Repository) LogMessage(ctx context.Context, userID string, sender domain.Sender, content string, mediaType, mediaURL *string) error {
	conv, err := r.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}

	entity := entities.NewSchemaMessage(&domain.Message{
		ConversationID: conv.ID,
		Sender:         sender,
		Content:        content,
		MediaType:      mediaType,
		MediaURL:       mediaURL,
	})

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to log message",
			err,
		)
	}

	return nil
}

// History returns up to limit most recent entries for userID, oldest
// first. The store reads newest first to honor the cap, then the slice
// is reversed before returning.
func (r *Repository) History(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error) {
	conv, err := r.FindByUserID(ctx, userID)
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var rows []entities.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conv.ID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch history",
			err,
		)
	}

	entries := make([]domain.HistoryEntry, len(rows))
	for i, row := range rows {
		entries[len(rows)-1-i] = domain.HistoryEntry{
			Sender:  row.Sender,
			Content: row.Content,
		}
	}
	return entries, nil
}

// Messages returns full messages for a conversation, oldest first.
func (r *Repository) Messages(ctx context.Context, conversationID uint, limit int) ([]domain.Message, error) {
	var rows []entities.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch messages",
			err,
		)
	}

	messages := make([]domain.Message, len(rows))
	for i := range rows {
		messages[len(rows)-1-i] = *rows[i].EtoD()
	}
	return messages, nil
}

// UpdateAnalysis stores analyzer output and stamps last_analyzed_at.
func (r *Repository) UpdateAnalysis(ctx context.Context, conversationID uint, sentiment, topic string, analyzedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("id = ?", conversationID).
		Updates(map[string]any{
			"sentiment":        sentiment,
			"topic":            topic,
			"last_analyzed_at": analyzedAt,
		})
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to store analysis",
			result.Error,
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("conversation not found: %d", conversationID),
			nil,
		)
	}
	return nil
}

// StatusByUserID returns the ai_status for an exact user_id match.
func (r *Repository) StatusByUserID(ctx context.Context, userID string) (domain.AIStatus, bool, error) {
	var entity entities.Conversation
	err := r.db.WithContext(ctx).
		Select("ai_status").
		Where("user_id = ?", userID).
		First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch ai status",
			err,
		)
	}
	return entity.AIStatus, true, nil
}
