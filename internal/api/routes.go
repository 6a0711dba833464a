package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/buurtplein/buurtchat/internal/chat"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, svc *chat.Service, sessions *sessionRegistry, heartbeat time.Duration) {
	api := router.Group("/api")

	api.GET("/conversations", handleListConversations(sessions))
	api.POST("/conversations", handleCreateConversation(svc))
	api.GET("/conversations/:id/messages", handleListMessages(svc))
	api.POST("/conversations/:id/messages", handleSendMessage(sessions))
	api.POST("/conversations/:id/select", handleSelect(svc, sessions))
	api.GET("/unread", handleUnread(svc))
	api.DELETE("/sessions/current", handleCloseSession(sessions))

	api.GET("/events", handleSSE(svc.Inbox(), heartbeat))
}

// statusFor maps chat errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrInvalidParticipant):
		return http.StatusBadRequest
	case errors.Is(err, chat.ErrConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrConversationExists), errors.Is(err, chat.ErrSessionClosed):
		return http.StatusConflict
	case errors.Is(err, chat.ErrSendFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

func handleListConversations(sessions *sessionRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.get(sessionID(c))
		if q, ok := c.GetQuery("q"); ok {
			sess.SetSearch(q)
		}
		c.JSON(http.StatusOK, gin.H{
			"conversations": toConversationsJSON(sess.Visible()),
			"total_unread":  sess.TotalUnread(),
			"selected":      sess.Selected(),
			"search":        sess.Search(),
		})
	}
}

func handleCreateConversation(svc *chat.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createConversationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		sum, err := svc.StartConversation(c.Request.Context(), chat.Participant{
			ID:     req.ParticipantID,
			Name:   req.ParticipantName,
			Avatar: req.ParticipantAvatar,
			Kind:   req.ParticipantKind,
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, toConversationJSON(sum))
	}
}

func handleListMessages(svc *chat.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		msgs := svc.Inbox().Messages(c.Param("id"))
		c.JSON(http.StatusOK, gin.H{"messages": toMessagesJSON(msgs)})
	}
}

func handleSendMessage(sessions *sessionRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		msg, err := sessions.get(sessionID(c)).SendTo(c.Request.Context(), c.Param("id"), req.Content)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, toMessageJSON(msg))
	}
}

func handleSelect(svc *chat.Service, sessions *sessionRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := sessions.get(sessionID(c)).Select(c.Request.Context(), id); err != nil {
			abortWithError(c, err)
			return
		}
		sum, ok := svc.Inbox().Conversation(id)
		if !ok {
			abortWithError(c, chat.ErrConversationNotFound)
			return
		}
		c.JSON(http.StatusOK, toConversationJSON(sum))
	}
}

func handleUnread(svc *chat.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"total": chat.TotalUnread(svc.Inbox().Conversations())})
	}
}

func handleCloseSession(sessions *sessionRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !sessions.close(sessionID(c)) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no such session"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}
