package repository

import (
	"context"

	"github.com/i-snrdra/SWAG/internal/model"
	"github.com/i-snrdra/SWAG/pkg/pg"
)

type AutoReplyRepository struct {
	*pg.DB
}

func NewAutoReplyRepository(db *pg.DB) *AutoReplyRepository {
	return &AutoReplyRepository{
		db,
	}
}

func (r *AutoReplyRepository) Create(ctx context.Context, rule *model.AutoReply) (*model.AutoReply, error) {
	entity := toAutoReplyEntity(rule)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toAutoReplyModel(entity), nil
}

// List returns rules newest first, the order the API exposes.
func (r *AutoReplyRepository) List(ctx context.Context) ([]*model.AutoReply, error) {
	var entities []*AutoReplyEntity
	err := r.Read(ctx).WithContext(ctx).
		Model(&AutoReplyEntity{}).
		Order("id DESC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toAutoReplyModels(entities), nil
}

// ListOldestFirst returns rules in ascending id order. The matcher scans
// in this order, which makes the lowest-id rule the deterministic winner
// when several keywords match the same inbound text.
func (r *AutoReplyRepository) ListOldestFirst(ctx context.Context) ([]*model.AutoReply, error) {
	var entities []*AutoReplyEntity
	err := r.Read(ctx).WithContext(ctx).
		Model(&AutoReplyEntity{}).
		Order("id ASC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toAutoReplyModels(entities), nil
}

// Delete removes a rule by id. Deleting an absent id is not an error.
func (r *AutoReplyRepository) Delete(ctx context.Context, id int64) error {
	return r.Write(ctx).WithContext(ctx).
		Delete(&AutoReplyEntity{}, id).Error
}
