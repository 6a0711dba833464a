package models

import "time"

// Message is one unit of text within a Conversation. Only Read changes after
// creation.
type Message struct {
	ID             string `gorm:"primaryKey;size:36"`
	ConversationID string `gorm:"size:36;not null;uniqueIndex:idx_conversation_sequence"`
	Sequence       int    `gorm:"not null;uniqueIndex:idx_conversation_sequence"`
	SenderID       string `gorm:"size:64;not null"`
	SenderName     string `gorm:"size:128"`
	SenderAvatar   string `gorm:"size:512"`
	Content        string `gorm:"type:text"`
	Read           bool   `gorm:"default:false;index"`
	CreatedAt      time.Time
}
