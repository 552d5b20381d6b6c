package api

import (
	"net/http"

	"ai-companion-chat/backend/internal/models"
	"ai-companion-chat/backend/internal/service"
	"ai-companion-chat/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

type CharacterHandler struct {
	service *service.CharacterService
}

func NewCharacterHandler(service *service.CharacterService) *CharacterHandler {
	return &CharacterHandler{service: service}
}

func (h *CharacterHandler) CreateCharacter(c *gin.Context) {
	var req models.CreateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("INVALID_BODY", err.Error()))
		return
	}

	character, err := h.service.CreateCharacter(&req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, character)
}

func (h *CharacterHandler) GetCharacter(c *gin.Context) {
	character, err := h.service.GetCharacter(c.Param("id"))
	if err != nil {
		c.Error(errors.NewNotFoundError("CHARACTER_NOT_FOUND", "character not found"))
		return
	}
	c.JSON(http.StatusOK, character)
}

func (h *CharacterHandler) ListCharacters(c *gin.Context) {
	characters, err := h.service.ListCharacters()
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, characters)
}

func (h *CharacterHandler) UpdateCharacter(c *gin.Context) {
	var req models.UpdateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("INVALID_BODY", err.Error()))
		return
	}

	character, err := h.service.UpdateCharacter(c.Param("id"), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, character)
}

func (h *CharacterHandler) DeleteCharacter(c *gin.Context) {
	if err := h.service.DeleteCharacter(c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CharacterHandler) GroupMembers(c *gin.Context) {
	members, err := h.service.GroupMembers(c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func (h *CharacterHandler) Relationships(c *gin.Context) {
	rels, err := h.service.RelationshipsFor(c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rels)
}

func (h *CharacterHandler) UpsertRelationship(c *gin.Context) {
	var req models.UpsertRelationshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("INVALID_BODY", err.Error()))
		return
	}

	rel, err := h.service.UpsertRelationship(c.Param("id"), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rel)
}

func (h *CharacterHandler) Stickers(c *gin.Context) {
	stickers, err := h.service.StickersFor(c.Query("owner_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stickers)
}

func (h *CharacterHandler) CreateSticker(c *gin.Context) {
	var req models.CreateStickerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("INVALID_BODY", err.Error()))
		return
	}

	sticker, err := h.service.CreateSticker(&req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, sticker)
}

func (h *CharacterHandler) DeleteSticker(c *gin.Context) {
	if err := h.service.DeleteSticker(c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
