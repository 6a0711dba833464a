package chat

import (
	"strings"

	"github.com/buurtplein/buurtchat/internal/models"
)

// MessageReader is the read side of the message store.
type MessageReader interface {
	Messages(conversationID string) []models.Message
}

// VisibleConversations keeps the conversations whose participant name
// contains search, ignoring case, in their original order. An empty search
// keeps everything.
func VisibleConversations(convs []Summary, search string) []Summary {
	out := make([]Summary, 0, len(convs))
	needle := strings.ToLower(search)
	for _, c := range convs {
		if needle == "" || strings.Contains(strings.ToLower(c.ParticipantName), needle) {
			out = append(out, c)
		}
	}
	return out
}

// ActiveMessages returns the selected conversation's log, or an empty slice
// when nothing is selected.
func ActiveMessages(r MessageReader, selectedID string) []models.Message {
	if selectedID == "" || r == nil {
		return []models.Message{}
	}
	return r.Messages(selectedID)
}

// TotalUnread sums the unread counters, for the badge.
func TotalUnread(convs []Summary) int {
	total := 0
	for _, c := range convs {
		total += c.UnreadCount
	}
	return total
}
