package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/sweeps-api/internal/service"
)

// ApprovalHandler serves the review workflow endpoints.
type ApprovalHandler struct {
	approvalService *service.ApprovalService
}

// NewApprovalHandler creates a new approval handler.
func NewApprovalHandler(approvalService *service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

// Submit handles POST /api/contests/:id/submit (creator).
func (h *ApprovalHandler) Submit(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	if err := h.approvalService.SubmitForApproval(contestID, actorFromContext(c)); err != nil {
		handleContestError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contest submitted for approval"})
}

// Withdraw handles POST /api/contests/:id/withdraw (creator).
func (h *ApprovalHandler) Withdraw(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	if err := h.approvalService.Withdraw(contestID, actorFromContext(c)); err != nil {
		handleContestError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contest withdrawn from review"})
}

// ApproveRequest carries the optional reviewer note.
type ApproveRequest struct {
	Message string `json:"message" binding:"omitempty,max=500"`
}

// Approve handles POST /api/contests/:id/approve (admin).
func (h *ApprovalHandler) Approve(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	var req ApproveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	status, err := h.approvalService.Approve(contestID, actorFromContext(c), req.Message)
	if err != nil {
		handleContestError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contest approved", "status": status})
}

// RejectRequest carries the mandatory rejection reason.
type RejectRequest struct {
	Reason string `json:"reason" binding:"required,min=3,max=500"`
}

// Reject handles POST /api/contests/:id/reject (admin).
func (h *ApprovalHandler) Reject(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.approvalService.Reject(contestID, actorFromContext(c), req.Reason); err != nil {
		handleContestError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contest rejected"})
}

// BulkDecideRequest carries a batch of contest ids and one decision.
type BulkDecideRequest struct {
	ContestIDs []uint `json:"contest_ids" binding:"required,min=1,max=100"`
	Approved   bool   `json:"approved"`
	Reason     string `json:"reason" binding:"omitempty,max=500"`
}

// BulkDecide handles POST /api/admin/contests/bulk-decide. Each contest is
// decided independently; the response reports every outcome.
func (h *ApprovalHandler) BulkDecide(c *gin.Context) {
	var req BulkDecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.approvalService.BulkDecide(req.ContestIDs, actorFromContext(c), req.Approved, req.Reason)
	if err != nil {
		handleContestError(c, err)
		return
	}

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"results":   results,
		"total":     len(results),
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
	})
}
