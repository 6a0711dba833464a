// Package store persists conversations and messages with GORM. It is the
// backend behind the chat service, for both the local sqlite database and
// the hosted MySQL one.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/buurtplein/buurtchat/internal/chat"
	"github.com/buurtplein/buurtchat/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxSequenceAttempts bounds retries when two appends claim the same
// sequence.
const maxSequenceAttempts = 3

var (
	_ chat.Backend    = (*Store)(nil)
	_ chat.ReadMarker = (*Store)(nil)
)

// Store is a GORM-backed chat.Backend.
type Store struct {
	db   *gorm.DB
	self string
}

// New creates a Store. selfID identifies the signed-in user; messages from
// any other sender count towards a conversation's unread total.
func New(db *gorm.DB, selfID string) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("store: db is required")
	}
	if selfID == "" {
		return nil, fmt.Errorf("store: self id is required")
	}
	return &Store{db: db, self: selfID}, nil
}

type unreadRow struct {
	ConversationID string
	Unread         int
}

// GetConversations returns every conversation, newest first. UnreadCount is
// the number of counterpart messages not yet read.
func (s *Store) GetConversations(ctx context.Context) ([]models.Conversation, error) {
	var convs []models.Conversation
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&convs).Error; err != nil {
		return nil, fmt.Errorf("store: list conversations: %w", err)
	}

	var rows []unreadRow
	if err := s.db.WithContext(ctx).Model(&models.Message{}).
		Select("conversation_id, COUNT(*) AS unread").
		Where(map[string]interface{}{"read": false}).
		Not(map[string]interface{}{"sender_id": s.self}).
		Group("conversation_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: count unread: %w", err)
	}
	unread := make(map[string]int, len(rows))
	for _, r := range rows {
		unread[r.ConversationID] = r.Unread
	}
	for i := range convs {
		convs[i].UnreadCount = unread[convs[i].ID]
	}
	return convs, nil
}

// GetMessages returns a conversation's messages in append order. An unknown
// conversation has no messages.
func (s *Store) GetMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	msgs := make([]models.Message, 0)
	if err := s.db.WithContext(ctx).Where("conversation_id = ?", conversationID).
		Order("sequence ASC").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("store: messages for %s: %w", conversationID, err)
	}
	return msgs, nil
}

// SendMessage appends msg to its conversation, assigning the next sequence
// number, and makes it the conversation's last message. Empty ID and
// CreatedAt are filled in.
func (s *Store) SendMessage(ctx context.Context, msg models.Message) (*models.Message, error) {
	if msg.ConversationID == "" {
		return nil, fmt.Errorf("store: conversation id is required")
	}
	if msg.SenderID == "" {
		return nil, fmt.Errorf("store: sender id is required")
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	var err error
	for attempt := 0; attempt < maxSequenceAttempts; attempt++ {
		err = s.appendMessage(ctx, &msg)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("store: send to %s: %w", msg.ConversationID, err)
	}
	return &msg, nil
}

// appendMessage inserts msg at the end of its conversation. The conversation
// row is locked for the transaction so concurrent appends take turns on the
// next sequence; the unique (conversation_id, sequence) index rejects any
// that still collide.
func (s *Store) appendMessage(ctx context.Context, msg *models.Message) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv models.Conversation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").Where("id = ?", msg.ConversationID).First(&conv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return chat.ErrConversationNotFound
			}
			return err
		}

		var last int
		if err := tx.Model(&models.Message{}).Where("conversation_id = ?", msg.ConversationID).
			Select("COALESCE(MAX(sequence), 0)").Scan(&last).Error; err != nil {
			return err
		}
		msg.Sequence = last + 1

		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).Where("id = ?", msg.ConversationID).
			Update("last_message_id", msg.ID).Error
	})
}

// CreateConversation stores conv and returns its id, generating one when
// conv.ID is empty.
func (s *Store) CreateConversation(ctx context.Context, conv models.Conversation) (string, error) {
	if conv.ParticipantID == "" {
		return "", fmt.Errorf("store: participant id is required")
	}
	if conv.ParticipantName == "" {
		return "", fmt.Errorf("store: participant name is required")
	}
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	if conv.ParticipantKind == "" {
		conv.ParticipantKind = models.KindPersonal
	}
	conv.LastMessageID = nil

	if err := s.db.WithContext(ctx).Create(&conv).Error; err != nil {
		return "", fmt.Errorf("store: create conversation with %s: %w", conv.ParticipantID, err)
	}
	return conv.ID, nil
}

// MarkRead flags every message in the conversation not written by readerID
// as read.
func (s *Store) MarkRead(ctx context.Context, conversationID, readerID string) error {
	result := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ?", conversationID).
		Where(map[string]interface{}{"read": false}).
		Not(map[string]interface{}{"sender_id": readerID}).
		Update("read", true)
	if result.Error != nil {
		return fmt.Errorf("store: mark %s read: %w", conversationID, result.Error)
	}
	return nil
}
