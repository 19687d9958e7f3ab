package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"migchat/internal/service"
)

// MessageHandler mantiene dependencias para endpoints de mensajes y
// conversaciones. Todas sus rutas corren detrás del middleware de
// autenticación.
type MessageHandler struct {
	logger        *zap.Logger
	messagingServ *service.MessagingService
}

// NewMessageHandler crea una instancia de MessageHandler con dependencias necesarias.
func NewMessageHandler(logger *zap.Logger, messagingServ *service.MessagingService) *MessageHandler {
	return &MessageHandler{
		logger:        logger,
		messagingServ: messagingServ,
	}
}

// SendMessage maneja POST /api/messages/send.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	var req struct {
		ToUsername string `json:"to_username" binding:"required"`
		Content    string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid send message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	message, err := h.messagingServ.Send(c.Request.Context(), userID, req.ToUsername, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyContent):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrRecipientNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "recipient user not found"})
		default:
			h.logger.Error("send message failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send message"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message_id": message.ID,
		"created_at": message.CreatedAt,
	})
}

// ListMessages maneja GET /api/messages, con filtro opcional ?with_user=.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	messages, err := h.messagingServ.ListMessages(c.Request.Context(), userID, c.Query("with_user"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("list messages failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list messages"})
		return
	}

	c.JSON(http.StatusOK, messages)
}

// ListConversations maneja GET /api/conversations.
func (h *MessageHandler) ListConversations(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conversations, err := h.messagingServ.ListConversations(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list conversations failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list conversations"})
		return
	}

	c.JSON(http.StatusOK, conversations)
}

// MarkRead maneja POST /api/messages/read?with_user=.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	userID, ok := GetAuthUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	withUser := c.Query("with_user")
	if withUser == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "with_user parameter is required"})
		return
	}

	marked, err := h.messagingServ.MarkRead(c.Request.Context(), userID, withUser)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("mark read failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not mark messages read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"marked_read": marked})
}
