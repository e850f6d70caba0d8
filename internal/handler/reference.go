package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/service"
)

type ReferenceHandler struct {
	svc *service.ReferenceService
}

func NewReferenceHandler(svc *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{svc: svc}
}

type referenceRequest struct {
	Name string `json:"name" binding:"required"`
}

type updateReferenceRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

func (h *ReferenceHandler) CreateCategory(c *gin.Context) {
	var req referenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "name is required")
		return
	}
	category, err := h.svc.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *ReferenceHandler) UpdateCategory(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req updateReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid body: "+err.Error())
		return
	}
	category, err := h.svc.UpdateCategory(c.Request.Context(), id, req.Name, req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// ListCategories returns active categories. ?include_inactive=true widens the
// list for admin reference screens.
func (h *ReferenceHandler) ListCategories(c *gin.Context) {
	includeInactive, _ := strconv.ParseBool(c.Query("include_inactive"))
	categories, err := h.svc.ListCategories(c.Request.Context(), includeInactive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *ReferenceHandler) CreateChannel(c *gin.Context) {
	var req referenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "name is required")
		return
	}
	channel, err := h.svc.CreateChannel(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, channel)
}

func (h *ReferenceHandler) UpdateChannel(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req updateReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid body: "+err.Error())
		return
	}
	channel, err := h.svc.UpdateChannel(c.Request.Context(), id, req.Name, req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, channel)
}

func (h *ReferenceHandler) ListChannels(c *gin.Context) {
	includeInactive, _ := strconv.ParseBool(c.Query("include_inactive"))
	channels, err := h.svc.ListChannels(c.Request.Context(), includeInactive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}
