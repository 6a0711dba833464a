package chat

import (
	"sync"
	"time"

	"github.com/buurtplein/buurtchat/internal/models"
	"github.com/google/uuid"
)

// Inbox is the in-process message store and conversation index. It keeps
// one thread per conversation, ordered most-recently-created first, and
// tracks which conversations are open in some session. Reply timers fire on
// their own goroutines, so every method is safe for concurrent use.
type Inbox struct {
	self   string
	events *broker

	mu      sync.RWMutex
	order   []string // conversation ids, head = newest
	threads map[string]*thread
	active  map[string]int // open sessions per conversation
}

// NewInbox creates an empty Inbox for the user identified by selfID. Messages
// from any other sender are counterpart messages.
func NewInbox(selfID string) *Inbox {
	return &Inbox{
		self:    selfID,
		events:  newBroker(),
		threads: make(map[string]*thread),
		active:  make(map[string]int),
	}
}

// SelfID returns the id of the signed-in user.
func (in *Inbox) SelfID() string {
	return in.self
}

// Load replaces the whole inbox with convs, in the given display order, and
// their message logs. The cached last message follows LastMessageID when it
// is present in the log, otherwise the tail of the log. The active set is
// cleared, so Load belongs before any session opens a conversation.
func (in *Inbox) Load(convs []models.Conversation, msgs map[string][]models.Message) {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.order = make([]string, 0, len(convs))
	in.threads = make(map[string]*thread, len(convs))
	in.active = make(map[string]int)
	for _, c := range convs {
		if _, dup := in.threads[c.ID]; dup {
			continue
		}
		t := newThread(c)
		for _, m := range msgs[c.ID] {
			t.append(m)
		}
		if n := len(t.messages); n > 0 {
			last := t.messages[n-1]
			if c.LastMessageID != nil {
				for _, m := range t.messages {
					if m.ID == *c.LastMessageID {
						last = m
						break
					}
				}
			}
			t.setLast(last)
		}
		if t.conv.UnreadCount < 0 {
			t.conv.UnreadCount = 0
		}
		in.threads[c.ID] = t
		in.order = append(in.order, c.ID)
	}
}

// CreateConversation inserts conv at the head of the index with no messages,
// a zero unread counter and online presence. An empty ID is replaced with a
// fresh uuid.
func (in *Inbox) CreateConversation(conv models.Conversation) (Summary, error) {
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	if conv.ParticipantKind == "" {
		conv.ParticipantKind = models.KindPersonal
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now()
	}
	conv.UnreadCount = 0
	conv.LastMessageID = nil
	conv.Online = true

	in.mu.Lock()
	defer in.mu.Unlock()
	if _, ok := in.threads[conv.ID]; ok {
		return Summary{}, ErrConversationExists
	}
	t := newThread(conv)
	in.threads[conv.ID] = t
	in.order = append([]string{conv.ID}, in.order...)

	s := t.summary()
	in.publishLocked(Event{Type: EventConversationCreated, ConversationID: conv.ID, Summary: s})
	return s, nil
}

// Append adds msg at the tail of the conversation's log without touching the
// summary fields. Use Record to keep both in step.
func (in *Inbox) Append(conversationID string, msg models.Message) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	t, ok := in.threads[conversationID]
	if !ok {
		return ErrConversationNotFound
	}
	stored := t.append(msg)
	in.publishLocked(Event{Type: EventMessage, ConversationID: conversationID, Message: &stored, Summary: t.summary()})
	return nil
}

// Messages returns a copy of the conversation's log in append order. An
// unknown conversation yields an empty slice.
func (in *Inbox) Messages(conversationID string) []models.Message {
	in.mu.RLock()
	defer in.mu.RUnlock()
	t, ok := in.threads[conversationID]
	if !ok {
		return []models.Message{}
	}
	return t.snapshot()
}

// UpsertLastMessage sets the conversation's cached last message.
func (in *Inbox) UpsertLastMessage(conversationID string, msg models.Message) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	t, ok := in.threads[conversationID]
	if !ok {
		return ErrConversationNotFound
	}
	t.setLast(msg)
	in.publishLocked(Event{Type: EventConversationUpdated, ConversationID: conversationID, Summary: t.summary()})
	return nil
}

// IncrementUnread bumps the unread counter by one.
func (in *Inbox) IncrementUnread(conversationID string) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	t, ok := in.threads[conversationID]
	if !ok {
		return ErrConversationNotFound
	}
	t.conv.UnreadCount++
	in.publishLocked(Event{Type: EventConversationUpdated, ConversationID: conversationID, Summary: t.summary()})
	return nil
}

// MarkRead zeroes the unread counter. Repeated calls are harmless.
func (in *Inbox) MarkRead(conversationID string) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.markReadLocked(conversationID)
}

func (in *Inbox) markReadLocked(conversationID string) error {
	t, ok := in.threads[conversationID]
	if !ok {
		return ErrConversationNotFound
	}
	if t.markRead(in.self) {
		in.publishLocked(Event{Type: EventConversationRead, ConversationID: conversationID, Summary: t.summary()})
	}
	return nil
}

// Record appends msg, makes it the last message and applies the unread rule
// in one step: a counterpart message increments the counter unless the
// conversation is open in some session. It returns the updated summary, whose
// LastMessage is the stored msg.
func (in *Inbox) Record(conversationID string, msg models.Message) (Summary, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	t, ok := in.threads[conversationID]
	if !ok {
		return Summary{}, ErrConversationNotFound
	}
	stored := t.record(msg, in.self, in.active[conversationID] > 0)
	s := t.summary()
	in.publishLocked(Event{Type: EventMessage, ConversationID: conversationID, Message: &stored, Summary: s})
	return s, nil
}

// Activate marks the conversation as open in one more session and clears its
// unread counter.
func (in *Inbox) Activate(conversationID string) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if _, ok := in.threads[conversationID]; !ok {
		return ErrConversationNotFound
	}
	in.active[conversationID]++
	return in.markReadLocked(conversationID)
}

// Deactivate undoes one Activate. Extra calls are ignored.
func (in *Inbox) Deactivate(conversationID string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if n := in.active[conversationID]; n > 1 {
		in.active[conversationID] = n - 1
	} else {
		delete(in.active, conversationID)
	}
}

// IsActive reports whether any session has the conversation open.
func (in *Inbox) IsActive(conversationID string) bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.active[conversationID] > 0
}

// Conversation returns the summary for one conversation.
func (in *Inbox) Conversation(conversationID string) (Summary, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	t, ok := in.threads[conversationID]
	if !ok {
		return Summary{}, false
	}
	return t.summary(), true
}

// Conversations returns every summary in index order.
func (in *Inbox) Conversations() []Summary {
	in.mu.RLock()
	defer in.mu.RUnlock()
	out := make([]Summary, 0, len(in.order))
	for _, id := range in.order {
		out = append(out, in.threads[id].summary())
	}
	return out
}

// Len returns the number of conversations.
func (in *Inbox) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.order)
}

// Subscribe returns a channel of inbox events and a function that ends the
// subscription and closes the channel.
func (in *Inbox) Subscribe(buffer int) (<-chan Event, func()) {
	return in.events.subscribe(buffer)
}

// publishLocked stamps evt and hands it to subscribers. Publishing under the
// write lock keeps event order identical to mutation order.
func (in *Inbox) publishLocked(evt Event) {
	total := 0
	for _, t := range in.threads {
		total += t.conv.UnreadCount
	}
	evt.TotalUnread = total
	evt.At = time.Now()
	in.events.publish(evt)
}
