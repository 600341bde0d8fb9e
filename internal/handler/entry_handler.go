package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
	"github.com/yourusername/sweeps-api/internal/handler/dto"
	"github.com/yourusername/sweeps-api/internal/service"
)

// EntryHandler serves participation endpoints.
type EntryHandler struct {
	entryService *service.EntryService
}

// NewEntryHandler creates a new entry handler.
func NewEntryHandler(entryService *service.EntryService) *EntryHandler {
	return &EntryHandler{entryService: entryService}
}

// AddEntryRequest is the participation payload.
type AddEntryRequest struct {
	Phone  string `json:"phone" binding:"required,min=7,max=20"`
	UserID *uint  `json:"user_id"`
	Source string `json:"source" binding:"omitempty,oneof=self_service operator"`
}

// AddEntry handles POST /api/contests/:id/entries.
func (h *EntryHandler) AddEntry(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	var req AddEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var actor *entity.User
	if raw, exists := c.Get("actor"); exists {
		actor = raw.(*entity.User)
	}

	entry, err := h.entryService.AddEntry(contestID, req.Phone, req.UserID, req.Source, actor)
	if err != nil {
		handleContestError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewEntryResponse(entry))
}

// ListEntries handles GET /api/contests/:id/entries (admin).
func (h *EntryHandler) ListEntries(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	entries, err := h.entryService.ListEntries(contestID)
	if err != nil {
		handleContestError(c, err)
		return
	}

	response := make([]*dto.EntryResponse, len(entries))
	for i := range entries {
		response[i] = dto.NewEntryResponse(&entries[i])
	}
	c.JSON(http.StatusOK, gin.H{"entries": response, "total": len(response)})
}
