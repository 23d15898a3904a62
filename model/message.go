package model

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	DTO
	SenderID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"senderId"`
	SenderRole   Role       `gorm:"size:10;not null" json:"senderRole"`
	ReceiverID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"receiverId"`
	ReceiverRole Role       `gorm:"size:10;not null" json:"receiverRole"`
	OrderID      *uuid.UUID `gorm:"type:uuid;index" json:"orderId"`
	Subject      string     `gorm:"size:200;not null" json:"subject"`
	Body         string     `gorm:"type:text;not null" json:"body"`
	IsRead       bool       `gorm:"not null;default:false" json:"isRead"`
	IsArchived   bool       `gorm:"not null;default:false" json:"isArchived"`
	IsTrashed    bool       `gorm:"not null;default:false" json:"isTrashed"`
	SentAt       time.Time  `gorm:"not null" json:"sentAt"`
}

type SendMessageInput struct {
	WriterID string `json:"writerId" validate:"required,uuid"`
	OrderID  string `json:"orderId" validate:"omitempty,uuid"`
	Subject  string `json:"subject" validate:"required,max=200"`
	Body     string `json:"body" validate:"required,max=10000"`
}

type MessageFilter string

const (
	FilterAll      MessageFilter = "all"
	FilterInbox    MessageFilter = "inbox"
	FilterSent     MessageFilter = "sent"
	FilterUnread   MessageFilter = "unread"
	FilterArchived MessageFilter = "archived"
	FilterTrash    MessageFilter = "trash"
)

type MessageFlag string

const (
	FlagRead    MessageFlag = "read"
	FlagArchive MessageFlag = "archive"
	FlagTrash   MessageFlag = "trash"
)
