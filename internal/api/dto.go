package api

import (
	"time"

	"github.com/buurtplein/buurtchat/internal/chat"
	"github.com/buurtplein/buurtchat/internal/models"
)

type messageJSON struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Sequence       int    `json:"sequence"`
	SenderID       string `json:"sender_id"`
	SenderName     string `json:"sender_name"`
	SenderAvatar   string `json:"sender_avatar,omitempty"`
	Content        string `json:"content"`
	Read           bool   `json:"read"`
	Timestamp      string `json:"timestamp"`
}

type conversationJSON struct {
	ID                string       `json:"id"`
	ParticipantID     string       `json:"participant_id"`
	ParticipantName   string       `json:"participant_name"`
	ParticipantAvatar string       `json:"participant_avatar,omitempty"`
	ParticipantKind   string       `json:"participant_kind"`
	Online            bool         `json:"online"`
	UnreadCount       int          `json:"unread_count"`
	LastMessage       *messageJSON `json:"last_message"`
	CreatedAt         string       `json:"created_at"`
}

type createConversationRequest struct {
	ParticipantID     string `json:"participant_id"`
	ParticipantName   string `json:"participant_name"`
	ParticipantAvatar string `json:"participant_avatar"`
	ParticipantKind   string `json:"participant_kind"`
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

func toMessageJSON(m models.Message) messageJSON {
	return messageJSON{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sequence:       m.Sequence,
		SenderID:       m.SenderID,
		SenderName:     m.SenderName,
		SenderAvatar:   m.SenderAvatar,
		Content:        m.Content,
		Read:           m.Read,
		Timestamp:      m.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toMessagesJSON(msgs []models.Message) []messageJSON {
	out := make([]messageJSON, len(msgs))
	for i, m := range msgs {
		out[i] = toMessageJSON(m)
	}
	return out
}

func toConversationJSON(s chat.Summary) conversationJSON {
	c := conversationJSON{
		ID:                s.ID,
		ParticipantID:     s.ParticipantID,
		ParticipantName:   s.ParticipantName,
		ParticipantAvatar: s.ParticipantAvatar,
		ParticipantKind:   s.ParticipantKind,
		Online:            s.Online,
		UnreadCount:       s.UnreadCount,
		CreatedAt:         s.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if s.LastMessage != nil {
		m := toMessageJSON(*s.LastMessage)
		c.LastMessage = &m
	}
	return c
}

func toConversationsJSON(convs []chat.Summary) []conversationJSON {
	out := make([]conversationJSON, len(convs))
	for i, s := range convs {
		out[i] = toConversationJSON(s)
	}
	return out
}
