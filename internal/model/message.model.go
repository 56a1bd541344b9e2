package model

import (
	"errors"
	"time"
)

// MessageStatus is the delivery outcome recorded for an outbound send.
type MessageStatus string

const (
	MessageStatusSent   MessageStatus = "sent"
	MessageStatusFailed MessageStatus = "failed"
)

// AttachmentType classifies the staged file on a send request.
type AttachmentType string

const (
	AttachmentImage    AttachmentType = "image"
	AttachmentVideo    AttachmentType = "video"
	AttachmentDocument AttachmentType = "document"
	AttachmentVCard    AttachmentType = "vcard"
)

// Message is one row of the outbound log. Rows are written on every send
// attempt, successful or not, and are never updated or deleted.
type Message struct {
	ID             int64         `json:"id"`
	Receiver       string        `json:"receiver"`
	Message        *string       `json:"message"`
	Status         MessageStatus `json:"status"`
	SentAt         time.Time     `json:"sent_at"`
	AttachmentType *string       `json:"attachment_type,omitempty"`
	AttachmentName *string       `json:"attachment_name,omitempty"`
}

// Attachment describes a staged upload ready for transmission.
type Attachment struct {
	Type     AttachmentType
	Path     string
	Filename string
	Mimetype string
}

// SendRequest is the orchestration service's input for an outbound send.
type SendRequest struct {
	Receiver   string
	Message    string
	IsGroup    bool
	Attachment *Attachment
}

func (r SendRequest) Validate() error {
	if r.Receiver == "" {
		return errors.New("receiver is required")
	}
	if r.Message == "" && r.Attachment == nil {
		return errors.New("message or attachment is required")
	}
	return nil
}
