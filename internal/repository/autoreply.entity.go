package repository

import "github.com/i-snrdra/SWAG/internal/model"

type AutoReplyEntity struct {
	ID       int64  `gorm:"primaryKey;autoIncrement;column:id"`
	Keyword  string `gorm:"column:keyword;not null"`
	Response string `gorm:"column:response;not null"`
}

func (AutoReplyEntity) TableName() string {
	return "auto_replies"
}

func toAutoReplyEntity(r *model.AutoReply) *AutoReplyEntity {
	if r == nil {
		return nil
	}
	return &AutoReplyEntity{
		ID:       r.ID,
		Keyword:  r.Keyword,
		Response: r.Response,
	}
}

func toAutoReplyModel(e *AutoReplyEntity) *model.AutoReply {
	if e == nil {
		return nil
	}
	return &model.AutoReply{
		ID:       e.ID,
		Keyword:  e.Keyword,
		Response: e.Response,
	}
}

func toAutoReplyModels(entities []*AutoReplyEntity) []*model.AutoReply {
	if entities == nil {
		return nil
	}
	models := make([]*model.AutoReply, len(entities))
	for i, e := range entities {
		models[i] = toAutoReplyModel(e)
	}
	return models
}
