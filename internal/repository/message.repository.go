package repository

import (
	"context"

	"github.com/i-snrdra/SWAG/internal/model"
	"github.com/i-snrdra/SWAG/pkg/pg"
)

type MessageRepository struct {
	*pg.DB
}

func NewMessageRepository(db *pg.DB) *MessageRepository {
	return &MessageRepository{
		db,
	}
}

func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) (*model.Message, error) {
	entity := toMessageEntity(msg)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toMessageModel(entity), nil
}

// List returns the full outbound log, newest first.
func (r *MessageRepository) List(ctx context.Context) ([]*model.Message, error) {
	var entities []*MessageEntity
	err := r.Read(ctx).WithContext(ctx).
		Model(&MessageEntity{}).
		Order("sent_at DESC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toMessageModels(entities), nil
}
