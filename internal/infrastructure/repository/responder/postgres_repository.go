package responder

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "conexao-server/services/chat-gateway/internal/domain/responder"
	"conexao-server/services/chat-gateway/internal/infrastructure/database/entities"
	"conexao-server/services/chat-gateway/internal/utils/platformerrors"
)

// Repository persists responder definitions.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a responder repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListProduction returns all responders on the live roster.
func (r *Repository) ListProduction(ctx context.Context) ([]*domain.Responder, error) {
	var rows []entities.Responder
	if err := r.db.WithContext(ctx).
		Where("status = ?", domain.StatusProduction).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list production responders",
			err,
		)
	}

	result := make([]*domain.Responder, len(rows))
	for i := range rows {
		result[i] = rows[i].EtoD()
	}
	return result, nil
}

// FindByID fetches a responder by its public ID.
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Responder, error) {
	var entity entities.Responder
	if err := r.db.WithContext(ctx).
		Where("public_id = ?", id).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("responder not found: %s", id),
				nil,
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch responder",
			err,
		)
	}
	return entity.EtoD(), nil
}
