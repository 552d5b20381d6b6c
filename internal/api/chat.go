package api

import (
	"net/http"
	"strconv"

	"ai-companion-chat/backend/internal/models"
	"ai-companion-chat/backend/internal/service"
	"ai-companion-chat/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chat      *service.ChatService
	proactive *service.ProactiveService
}

func NewChatHandler(chat *service.ChatService, proactive *service.ProactiveService) *ChatHandler {
	return &ChatHandler{chat: chat, proactive: proactive}
}

// SendMessage runs a full chat turn and returns the reply fragments that
// were produced. The user message itself is broadcast over the websocket.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("INVALID_BODY", err.Error()))
		return
	}

	replies, err := h.chat.SendMessage(c.Request.Context(), c.Param("chatId"), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": replies})
}

func (h *ChatHandler) Messages(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.Error(errors.NewBadRequestError("INVALID_LIMIT", "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	messages, err := h.chat.Messages(c.Param("chatId"), limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	if err := h.chat.MarkRead(c.Param("chatId")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) UnreadCount(c *gin.Context) {
	count, err := h.chat.UnreadCount(c.Param("chatId"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *ChatHandler) ClearHistory(c *gin.Context) {
	if err := h.chat.ClearHistory(c.Param("chatId")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ProactiveTick evaluates the proactive policy once. Returns the message
// sent, or 204 when nobody reached out this round.
func (h *ChatHandler) ProactiveTick(c *gin.Context) {
	msg, err := h.proactive.Tick(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	if msg == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, msg)
}
