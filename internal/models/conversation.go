package models

import "time"

// Participant kinds.
const (
	KindPersonal = "personal"
	KindBusiness = "business"
)

// Conversation is a thread between the signed-in user and one counterpart,
// either a neighbour or a local business.
type Conversation struct {
	ID                string  `gorm:"primaryKey;size:36"`
	ParticipantID     string  `gorm:"size:64;not null;index"`
	ParticipantName   string  `gorm:"size:128;not null"`
	ParticipantAvatar string  `gorm:"size:512"`
	ParticipantKind   string  `gorm:"size:16;default:personal"`
	LastMessageID     *string `gorm:"size:36"`
	Online            bool    `gorm:"default:true"` // mock presence, never derived
	UnreadCount       int     `gorm:"-"`            // derived from Message.Read
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
