package chat

import (
	"context"
	"sync"

	"github.com/buurtplein/buurtchat/internal/models"
)

// Session is the view state of one client: the selected conversation, the
// search filter and the composition buffer. Replies scheduled by its sends
// belong to it and are cancelled by Close.
type Session struct {
	svc *Service

	mu       sync.Mutex
	selected string
	search   string
	draft    string
	pending  []*PendingReply
	closed   bool
}

// Select opens conversationID, closing the previously selected one. Opening
// a conversation marks it read. The read state is persisted after the
// session lock is released.
func (s *Session) Select(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.selected == conversationID {
		s.mu.Unlock()
		return s.svc.MarkRead(ctx, conversationID)
	}
	if err := s.svc.inbox.Activate(conversationID); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.selected != "" {
		s.svc.inbox.Deactivate(s.selected)
	}
	s.selected = conversationID
	s.mu.Unlock()

	s.svc.persistRead(ctx, conversationID)
	return nil
}

// Deselect closes the selected conversation, if any.
func (s *Session) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != "" {
		s.svc.inbox.Deactivate(s.selected)
		s.selected = ""
	}
}

// Selected returns the selected conversation id, empty when none.
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// SetSearch sets the conversation list filter.
func (s *Session) SetSearch(text string) {
	s.mu.Lock()
	s.search = text
	s.mu.Unlock()
}

// Search returns the conversation list filter.
func (s *Session) Search() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search
}

// SetDraft replaces the composition buffer.
func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	s.draft = text
	s.mu.Unlock()
}

// Draft returns the composition buffer.
func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Visible returns the filtered conversation list.
func (s *Session) Visible() []Summary {
	return VisibleConversations(s.svc.inbox.Conversations(), s.Search())
}

// ActiveMessages returns the selected conversation's messages.
func (s *Session) ActiveMessages() []models.Message {
	return ActiveMessages(s.svc.inbox, s.Selected())
}

// TotalUnread returns the unread badge count.
func (s *Session) TotalUnread() int {
	return TotalUnread(s.svc.inbox.Conversations())
}

// Send sends the composition buffer to the selected conversation and clears
// the buffer on success.
func (s *Session) Send(ctx context.Context) (models.Message, error) {
	s.mu.Lock()
	selected, draft, closed := s.selected, s.draft, s.closed
	s.mu.Unlock()
	if closed {
		return models.Message{}, ErrSessionClosed
	}
	if selected == "" {
		return models.Message{}, ErrNoConversationSelected
	}
	msg, err := s.SendTo(ctx, selected, draft)
	if err != nil {
		return models.Message{}, err
	}
	s.mu.Lock()
	if s.draft == draft {
		s.draft = ""
	}
	s.mu.Unlock()
	return msg, nil
}

// SendTo sends text to any conversation without touching the buffer.
func (s *Session) SendTo(ctx context.Context, conversationID, text string) (models.Message, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return models.Message{}, ErrSessionClosed
	}
	s.mu.Unlock()

	msg, pending, err := s.svc.Send(ctx, conversationID, text)
	if err != nil {
		return models.Message{}, err
	}
	if pending == nil {
		return msg, nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		pending.Cancel()
		return msg, nil
	}
	s.pending = append(prunePending(s.pending), pending)
	s.mu.Unlock()
	return msg, nil
}

// Pending returns the replies this session is still waiting for.
func (s *Session) Pending() []*PendingReply {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = prunePending(s.pending)
	out := make([]*PendingReply, len(s.pending))
	copy(out, s.pending)
	return out
}

// Close tears the session down: pending replies are cancelled and the
// selected conversation is closed. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	pending := s.pending
	s.pending = nil
	selected := s.selected
	s.selected = ""
	s.mu.Unlock()

	for _, p := range pending {
		p.Cancel()
	}
	if selected != "" {
		s.svc.inbox.Deactivate(selected)
	}
}

// prunePending drops replies that already finished.
func prunePending(ps []*PendingReply) []*PendingReply {
	out := ps[:0]
	for _, p := range ps {
		select {
		case <-p.Done():
		default:
			out = append(out, p)
		}
	}
	return out
}
