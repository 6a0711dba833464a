package notify

import (
	"context"

	"github.com/buurtplein/buurtchat/internal/chat"
)

// Watcher notifies about counterpart messages that arrive while their
// conversation is not open.
type Watcher struct {
	self        string
	notifier    *Notifier
	events      <-chan chat.Event
	unsubscribe func()
}

// NewWatcher subscribes to inbox right away, so no message recorded after
// NewWatcher returns is missed once Run starts.
func NewWatcher(inbox *chat.Inbox, notifier *Notifier) *Watcher {
	events, unsubscribe := inbox.Subscribe(64)
	return &Watcher{
		self:        inbox.SelfID(),
		notifier:    notifier,
		events:      events,
		unsubscribe: unsubscribe,
	}
}

// Run handles inbox events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-w.events:
			if !ok {
				return
			}
			if note, ok := w.noteFor(evt); ok {
				w.notifier.Notify(ctx, note)
			}
		}
	}
}

// noteFor returns the notification for evt, if it warrants one.
func (w *Watcher) noteFor(evt chat.Event) (Notification, bool) {
	if evt.Type != chat.EventMessage || evt.Message == nil {
		return Notification{}, false
	}
	msg := evt.Message
	if msg.SenderID == w.self || msg.Read {
		return Notification{}, false
	}
	from := msg.SenderName
	if from == "" {
		from = msg.SenderID
	}
	return Notification{
		From:         from,
		Content:      msg.Content,
		Conversation: evt.Summary.ParticipantName,
		Unread:       evt.TotalUnread,
	}, true
}
