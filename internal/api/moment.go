package api

import (
	"net/http"

	"ai-companion-chat/backend/internal/models"
	"ai-companion-chat/backend/internal/service"
	"ai-companion-chat/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

type MomentHandler struct {
	service *service.MomentService
}

func NewMomentHandler(service *service.MomentService) *MomentHandler {
	return &MomentHandler{service: service}
}

func (h *MomentHandler) ListMoments(c *gin.Context) {
	moments, err := h.service.ListMoments()
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, moments)
}

func (h *MomentHandler) CreateMoment(c *gin.Context) {
	var req models.CreateMomentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("INVALID_BODY", err.Error()))
		return
	}

	moment, err := h.service.CreateMoment(&req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, moment)
}

func (h *MomentHandler) DeleteMoment(c *gin.Context) {
	if err := h.service.DeleteMoment(c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MomentHandler) LikeMoment(c *gin.Context) {
	moment, err := h.service.Like(c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, moment)
}

func (h *MomentHandler) Comments(c *gin.Context) {
	comments, err := h.service.Comments(c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *MomentHandler) CreateComment(c *gin.Context) {
	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("INVALID_BODY", err.Error()))
		return
	}

	comment, err := h.service.CreateComment(c.Param("id"), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}
