package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/buurtplein/buurtchat/internal/models"
	"github.com/google/uuid"
)

// Backend is the persistence service behind the inbox.
type Backend interface {
	// GetConversations returns every conversation, newest first, with
	// UnreadCount filled in.
	GetConversations(ctx context.Context) ([]models.Conversation, error)

	// GetMessages returns a conversation's messages in append order.
	GetMessages(ctx context.Context, conversationID string) ([]models.Message, error)

	// SendMessage stores msg and returns the stored copy.
	SendMessage(ctx context.Context, msg models.Message) (*models.Message, error)

	// CreateConversation stores conv and returns its id.
	CreateConversation(ctx context.Context, conv models.Conversation) (string, error)
}

// ReadMarker is an optional interface that backends can implement to persist
// read state.
type ReadMarker interface {
	MarkRead(ctx context.Context, conversationID, readerID string) error
}

// Participant identifies one side of a conversation.
type Participant struct {
	ID     string
	Name   string
	Avatar string
	Kind   string // models.KindPersonal or models.KindBusiness
}

// Service ties the backend, the inbox cache and the reply scheduler together.
// Writes go to the backend first; the inbox only changes once the backend
// accepted them. Per conversation, a backend write and its inbox record happen
// as one step, so the inbox log follows the backend's sequence order.
type Service struct {
	backend Backend
	self    Participant
	inbox   *Inbox
	replies *ReplyScheduler

	writeMu sync.Mutex
	writers map[string]*sync.Mutex

	ctx    context.Context // lifetime of scheduled replies
	cancel context.CancelFunc
}

// ServiceOpts holds parameters for creating a Service.
type ServiceOpts struct {
	Backend        Backend
	Self           Participant
	ReplyDelay     time.Duration // defaults to DefaultReplyDelay
	ReplyTemplates []string
}

// NewService creates a Service with an empty inbox. Call Load to hydrate it.
func NewService(opts ServiceOpts) (*Service, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("chat: service: backend is required")
	}
	if opts.Self.ID == "" {
		return nil, fmt.Errorf("chat: service: self id is required")
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		backend: opts.Backend,
		self:    opts.Self,
		inbox:   NewInbox(opts.Self.ID),
		writers: make(map[string]*sync.Mutex),
		ctx:     ctx,
		cancel:  cancel,
	}
	replies, err := NewReplyScheduler(ReplySchedulerOpts{
		Delay:     opts.ReplyDelay,
		Templates: opts.ReplyTemplates,
		Deliver:   s.deliverReply,
	})
	if err != nil {
		cancel()
		return nil, err
	}
	s.replies = replies
	return s, nil
}

// Inbox returns the service's inbox.
func (s *Service) Inbox() *Inbox {
	return s.inbox
}

// Self returns the signed-in user.
func (s *Service) Self() Participant {
	return s.self
}

// Replies returns the reply scheduler.
func (s *Service) Replies() *ReplyScheduler {
	return s.replies
}

// Load replaces the inbox contents with the backend's conversations and
// messages.
func (s *Service) Load(ctx context.Context) error {
	convs, err := s.backend.GetConversations(ctx)
	if err != nil {
		return fmt.Errorf("chat: load conversations: %w", err)
	}
	msgs := make(map[string][]models.Message, len(convs))
	for _, c := range convs {
		m, err := s.backend.GetMessages(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("chat: load messages for %s: %w", c.ID, err)
		}
		msgs[c.ID] = m
	}
	s.inbox.Load(convs, msgs)
	log.Printf("chat: loaded %d conversations", len(convs))
	return nil
}

// StartConversation creates a conversation with p in the backend and puts it
// at the head of the inbox.
func (s *Service) StartConversation(ctx context.Context, p Participant) (Summary, error) {
	if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.Name) == "" {
		return Summary{}, ErrInvalidParticipant
	}
	kind := p.Kind
	if kind == "" {
		kind = models.KindPersonal
	}
	conv := models.Conversation{
		ID:                uuid.NewString(),
		ParticipantID:     p.ID,
		ParticipantName:   p.Name,
		ParticipantAvatar: p.Avatar,
		ParticipantKind:   kind,
		Online:            true,
		CreatedAt:         time.Now(),
	}
	id, err := s.backend.CreateConversation(ctx, conv)
	if err != nil {
		return Summary{}, fmt.Errorf("chat: create conversation with %s: %w", p.ID, err)
	}
	conv.ID = id
	sum, err := s.inbox.CreateConversation(conv)
	if err != nil {
		return Summary{}, err
	}
	log.Printf("chat: conversation %s started with %s (%s)", id, p.Name, kind)
	return sum, nil
}

// Send posts text from the signed-in user and schedules the counterpart's
// reply. The message is appended to the inbox only after the backend stored
// it; a backend failure returns ErrSendFailed and leaves the inbox as it was.
// The returned PendingReply is nil when replies are no longer accepted.
func (s *Service) Send(ctx context.Context, conversationID, text string) (models.Message, *PendingReply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, nil, ErrEmptyMessage
	}
	if _, ok := s.inbox.Conversation(conversationID); !ok {
		return models.Message{}, nil, ErrConversationNotFound
	}

	draft := models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       s.self.ID,
		SenderName:     s.self.Name,
		SenderAvatar:   s.self.Avatar,
		Content:        text,
		CreatedAt:      time.Now(),
	}
	msg, err := s.write(ctx, draft)
	if err != nil {
		return models.Message{}, nil, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	pending, err := s.replies.Schedule(s.ctx, conversationID, msg.CreatedAt)
	if err != nil {
		log.Printf("chat: schedule reply for %s: %v", conversationID, err)
	}
	return msg, pending, nil
}

// MarkRead clears the conversation's unread state in the inbox and, when the
// backend supports it, in storage.
func (s *Service) MarkRead(ctx context.Context, conversationID string) error {
	if err := s.inbox.MarkRead(conversationID); err != nil {
		return err
	}
	s.persistRead(ctx, conversationID)
	return nil
}

// persistRead is best-effort: a failure is logged, the inbox stays read.
func (s *Service) persistRead(ctx context.Context, conversationID string) {
	rm, ok := s.backend.(ReadMarker)
	if !ok {
		return
	}
	if err := rm.MarkRead(ctx, conversationID, s.self.ID); err != nil {
		log.Printf("chat: persist read state for %s: %v", conversationID, err)
	}
}

// deliverReply writes one simulated counterpart reply. A conversation that
// disappeared in the meantime makes it a no-op.
func (s *Service) deliverReply(ctx context.Context, conversationID string, sentAt time.Time, content string) {
	conv, ok := s.inbox.Conversation(conversationID)
	if !ok {
		log.Printf("chat: reply for unknown conversation %s dropped", conversationID)
		return
	}
	at := time.Now()
	if at.Before(sentAt) {
		at = sentAt
	}
	reply := models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       conv.ParticipantID,
		SenderName:     conv.ParticipantName,
		SenderAvatar:   conv.ParticipantAvatar,
		Content:        content,
		CreatedAt:      at,
	}
	stored, err := s.write(ctx, reply)
	if err != nil {
		log.Printf("chat: store reply in %s: %v", conversationID, err)
		return
	}
	if stored.Read {
		s.persistRead(ctx, conversationID)
	}
}

// write stores msg in the backend and records the stored copy in the inbox
// while holding the conversation's write lock. The returned message is the
// inbox's copy, with Read set when the conversation was open.
func (s *Service) write(ctx context.Context, msg models.Message) (models.Message, error) {
	unlock := s.lockConversation(msg.ConversationID)
	defer unlock()

	stored, err := s.backend.SendMessage(ctx, msg)
	if err != nil {
		return models.Message{}, err
	}
	sum, err := s.inbox.Record(msg.ConversationID, *stored)
	if err != nil {
		return models.Message{}, fmt.Errorf("chat: record %s: %w", stored.ID, err)
	}
	return *sum.LastMessage, nil
}

func (s *Service) lockConversation(id string) func() {
	s.writeMu.Lock()
	mu, ok := s.writers[id]
	if !ok {
		mu = &sync.Mutex{}
		s.writers[id] = mu
	}
	s.writeMu.Unlock()
	mu.Lock()
	return mu.Unlock
}

// NewSession opens a view session on the inbox.
func (s *Service) NewSession() *Session {
	return &Session{svc: s}
}

// Close cancels every pending reply and waits for replies in flight.
func (s *Service) Close() {
	s.replies.Close()
	s.cancel()
}
