package repository

import (
	"time"

	"github.com/i-snrdra/SWAG/internal/model"
)

type MessageEntity struct {
	ID             int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Receiver       string    `gorm:"column:receiver;not null;index"`
	Message        *string   `gorm:"column:message"`
	Status         string    `gorm:"column:status;not null"`
	SentAt         time.Time `gorm:"column:sent_at;autoCreateTime;index"`
	AttachmentType *string   `gorm:"column:attachment_type"`
	AttachmentName *string   `gorm:"column:attachment_name"`
}

func (MessageEntity) TableName() string {
	return "messages"
}

func toMessageEntity(m *model.Message) *MessageEntity {
	if m == nil {
		return nil
	}
	return &MessageEntity{
		ID:             m.ID,
		Receiver:       m.Receiver,
		Message:        m.Message,
		Status:         string(m.Status),
		SentAt:         m.SentAt,
		AttachmentType: m.AttachmentType,
		AttachmentName: m.AttachmentName,
	}
}

func toMessageModel(e *MessageEntity) *model.Message {
	if e == nil {
		return nil
	}
	return &model.Message{
		ID:             e.ID,
		Receiver:       e.Receiver,
		Message:        e.Message,
		Status:         model.MessageStatus(e.Status),
		SentAt:         e.SentAt,
		AttachmentType: e.AttachmentType,
		AttachmentName: e.AttachmentName,
	}
}

func toMessageModels(entities []*MessageEntity) []*model.Message {
	if entities == nil {
		return nil
	}
	models := make([]*model.Message, len(entities))
	for i, e := range entities {
		models[i] = toMessageModel(e)
	}
	return models
}
