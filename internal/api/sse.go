package api

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/buurtplein/buurtchat/internal/chat"
	"github.com/gin-gonic/gin"
)

// inboxEvent is the data of a message, conversation_created or
// conversation_read event.
type inboxEvent struct {
	ConversationID string           `json:"conversation_id"`
	Conversation   conversationJSON `json:"conversation"`
	Message        *messageJSON     `json:"message,omitempty"`
	TotalUnread    int              `json:"total_unread"`
}

// handleSSE streams inbox events until the client goes away.
func handleSSE(inbox *chat.Inbox, heartbeat time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		events, unsubscribe := inbox.Subscribe(32)
		defer unsubscribe()

		writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
		c.Writer.Flush()

		ctx := c.Request.Context()
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case evt, ok := <-events:
				if !ok {
					return
				}
				data := inboxEvent{
					ConversationID: evt.ConversationID,
					Conversation:   toConversationJSON(evt.Summary),
					TotalUnread:    evt.TotalUnread,
				}
				if evt.Message != nil {
					m := toMessageJSON(*evt.Message)
					data.Message = &m
				}
				writeSSE(c.Writer, string(evt.Type), data)
				c.Writer.Flush()
			}
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
