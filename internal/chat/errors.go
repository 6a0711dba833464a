package chat

import "errors"

// Errors returned by the messaging core. Callers match them with errors.Is.
var (
	ErrConversationNotFound   = errors.New("chat: conversation not found")
	ErrConversationExists     = errors.New("chat: conversation already exists")
	ErrInvalidParticipant     = errors.New("chat: participant id and name are required")
	ErrEmptyMessage           = errors.New("chat: message is empty")
	ErrSendFailed             = errors.New("chat: message could not be sent")
	ErrNoConversationSelected = errors.New("chat: no conversation selected")
	ErrSessionClosed          = errors.New("chat: session closed")
	ErrSchedulerClosed        = errors.New("chat: reply scheduler closed")
)
