package chat

import (
	"sync"
	"time"

	"github.com/buurtplein/buurtchat/internal/models"
)

// EventType identifies what changed in the Inbox.
type EventType string

// Inbox event types.
const (
	EventMessage             EventType = "message"
	EventConversationCreated EventType = "conversation_created"
	EventConversationRead    EventType = "conversation_read"
	EventConversationUpdated EventType = "conversation_updated"
)

// Event describes one Inbox mutation. Summary reflects the conversation right
// after the change; Message is set for EventMessage only.
type Event struct {
	Type           EventType
	ConversationID string
	Message        *models.Message
	Summary        Summary
	TotalUnread    int
	At             time.Time
}

// broker fans events out to subscribers. Sends never block: a subscriber
// whose buffer is full misses the event.
type broker struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

func newBroker() *broker {
	return &broker{subs: make(map[int]chan Event)}
}

func (b *broker) subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *broker) publish(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}
