package api

import (
	stderrors "errors"
	"net/http"

	"ai-companion-chat/backend/ai"
	"ai-companion-chat/backend/internal/service"
	"ai-companion-chat/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	settings *service.SettingsService
	chat     *service.ChatService
}

func NewSettingsHandler(settings *service.SettingsService, chat *service.ChatService) *SettingsHandler {
	return &SettingsHandler{settings: settings, chat: chat}
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	values, err := h.settings.All()
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, values)
}

func (h *SettingsHandler) PutSettings(c *gin.Context) {
	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil {
		c.Error(errors.NewBadRequestError("INVALID_BODY", err.Error()))
		return
	}
	if len(values) == 0 {
		c.Error(errors.NewBadRequestError("EMPTY_BODY", "no settings provided"))
		return
	}

	if err := h.settings.Put(values); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// TestConnection fires one tiny request at the configured provider for the
// given capability (chat, vision or image) and reports the outcome.
func (h *SettingsHandler) TestConnection(c *gin.Context) {
	capability := c.DefaultQuery("capability", "chat")
	switch capability {
	case "chat", "vision", "image":
	default:
		c.Error(errors.NewBadRequestError("INVALID_CAPABILITY", "capability must be chat, vision or image"))
		return
	}

	detail, err := h.chat.TestConnection(c.Request.Context(), capability)
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			c.Error(appErr)
			return
		}
		// Provider failures keep the upstream status and message so the UI
		// can show exactly what the endpoint answered.
		var provErr *ai.ProviderError
		if stderrors.As(err, &provErr) {
			c.JSON(provErr.StatusCode, gin.H{"ok": false, "error": provErr.Message})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "detail": detail})
}
