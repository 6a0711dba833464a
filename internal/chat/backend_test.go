package chat

import (
	"context"
	"sync"

	"github.com/buurtplein/buurtchat/internal/models"
)

// fakeBackend is an in-memory Backend and ReadMarker with error injection.
type fakeBackend struct {
	mu        sync.Mutex
	convs     []models.Conversation
	msgs      map[string][]models.Message
	sendErr   error
	createErr error
	readMarks []string

	// afterSend and beforeMarkRead run outside the lock, letting a test stall
	// a backend call midway.
	afterSend      func(models.Message)
	beforeMarkRead func(conversationID string)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{msgs: make(map[string][]models.Message)}
}

func (f *fakeBackend) GetConversations(ctx context.Context) ([]models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Conversation, len(f.convs))
	copy(out, f.convs)
	return out, nil
}

func (f *fakeBackend) GetMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Message, len(f.msgs[conversationID]))
	copy(out, f.msgs[conversationID])
	return out, nil
}

func (f *fakeBackend) SendMessage(ctx context.Context, msg models.Message) (*models.Message, error) {
	f.mu.Lock()
	if f.sendErr != nil {
		f.mu.Unlock()
		return nil, f.sendErr
	}
	msg.Sequence = len(f.msgs[msg.ConversationID]) + 1
	f.msgs[msg.ConversationID] = append(f.msgs[msg.ConversationID], msg)
	hook := f.afterSend
	f.mu.Unlock()

	if hook != nil {
		hook(msg)
	}
	return &msg, nil
}

func (f *fakeBackend) CreateConversation(ctx context.Context, conv models.Conversation) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.convs = append([]models.Conversation{conv}, f.convs...)
	return conv.ID, nil
}

func (f *fakeBackend) MarkRead(ctx context.Context, conversationID, readerID string) error {
	if f.beforeMarkRead != nil {
		f.beforeMarkRead(conversationID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readMarks = append(f.readMarks, conversationID)
	return nil
}

func (f *fakeBackend) setSendErr(err error) {
	f.mu.Lock()
	f.sendErr = err
	f.mu.Unlock()
}

func (f *fakeBackend) stored(conversationID string) []models.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Message, len(f.msgs[conversationID]))
	copy(out, f.msgs[conversationID])
	return out
}

func (f *fakeBackend) readMarkCount(conversationID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, id := range f.readMarks {
		if id == conversationID {
			n++
		}
	}
	return n
}
