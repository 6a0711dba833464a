// Package chat holds conversations, their append-only message logs and unread
// state, and simulates counterpart replies.
package chat

import "github.com/buurtplein/buurtchat/internal/models"

// Summary is a point-in-time copy of a conversation's index entry together
// with its most recent message.
type Summary struct {
	models.Conversation
	LastMessage *models.Message
}

// thread owns one conversation's summary fields and its ordered message log.
// All mutation goes through record, or the single-purpose helpers it is
// built from, while the owning Inbox holds its write lock.
type thread struct {
	conv     models.Conversation
	messages []models.Message
	last     *models.Message
}

func newThread(conv models.Conversation) *thread {
	return &thread{conv: conv}
}

// append adds msg at the tail of the log, filling in the conversation id and
// a 1-based sequence when the caller left them empty.
func (t *thread) append(msg models.Message) models.Message {
	msg.ConversationID = t.conv.ID
	if msg.Sequence == 0 {
		msg.Sequence = len(t.messages) + 1
	}
	t.messages = append(t.messages, msg)
	return msg
}

func (t *thread) setLast(msg models.Message) {
	m := msg
	t.last = &m
	id := msg.ID
	t.conv.LastMessageID = &id
}

// record appends msg, caches it as the last message and bumps the unread
// counter when a counterpart wrote it while nobody had the conversation open.
// A counterpart message arriving in an open conversation is read on arrival.
func (t *thread) record(msg models.Message, self string, active bool) models.Message {
	fromCounterpart := msg.SenderID != self
	if fromCounterpart && active {
		msg.Read = true
	}
	msg = t.append(msg)
	t.setLast(msg)
	if fromCounterpart && !active {
		t.conv.UnreadCount++
	}
	return msg
}

// markRead zeroes the unread counter and flags every counterpart message as
// read. It reports whether anything changed.
func (t *thread) markRead(self string) bool {
	changed := t.conv.UnreadCount != 0
	t.conv.UnreadCount = 0
	for i := range t.messages {
		if t.messages[i].SenderID != self && !t.messages[i].Read {
			t.messages[i].Read = true
			changed = true
		}
	}
	if t.last != nil && t.last.SenderID != self {
		t.last.Read = true
	}
	return changed
}

func (t *thread) summary() Summary {
	s := Summary{Conversation: t.conv}
	if t.last != nil {
		m := *t.last
		s.LastMessage = &m
	}
	return s
}

func (t *thread) snapshot() []models.Message {
	out := make([]models.Message, len(t.messages))
	copy(out, t.messages)
	return out
}
