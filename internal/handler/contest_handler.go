package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
	"github.com/yourusername/sweeps-api/internal/domain/repository"
	"github.com/yourusername/sweeps-api/internal/handler/dto"
	apperrors "github.com/yourusername/sweeps-api/internal/pkg/errors"
	"github.com/yourusername/sweeps-api/internal/service"
)

// ContestHandler serves contest CRUD, transitions, audit and deletion.
type ContestHandler struct {
	contestService  *service.ContestService
	deletionService *service.DeletionService
	contentService  *service.ContentService
}

// NewContestHandler creates a new contest handler.
func NewContestHandler(
	contestService *service.ContestService,
	deletionService *service.DeletionService,
	contentService *service.ContentService,
) *ContestHandler {
	return &ContestHandler{
		contestService:  contestService,
		deletionService: deletionService,
		contentService:  contentService,
	}
}

// actorFromContext returns the authenticated user the auth middleware stored.
func actorFromContext(c *gin.Context) *entity.User {
	return c.MustGet("actor").(*entity.User)
}

// CreateContestRequest is the create-contest payload.
type CreateContestRequest struct {
	Name         string    `json:"name" binding:"required,min=3,max=100"`
	Description  string    `json:"description" binding:"omitempty,max=2000"`
	Prize        string    `json:"prize" binding:"omitempty,max=500"`
	StartTime    time.Time `json:"start_time" binding:"required"`
	EndTime      time.Time `json:"end_time" binding:"required"`
	WinnerCount  int       `json:"winner_count" binding:"omitempty,min=1,max=50"`
	PrizeTiers   []string  `json:"prize_tiers" binding:"omitempty"`
	HeroImageKey string    `json:"hero_image_key" binding:"omitempty,max=255"`
}

// CreateContest handles POST /api/contests.
func (h *ContestHandler) CreateContest(c *gin.Context) {
	var req CreateContestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contest, err := h.contestService.CreateContest(service.CreateContestInput{
		Name:         req.Name,
		Description:  req.Description,
		Prize:        req.Prize,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		WinnerCount:  req.WinnerCount,
		PrizeTiers:   req.PrizeTiers,
		HeroImageKey: req.HeroImageKey,
	}, actorFromContext(c))
	if err != nil {
		handleContestError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewContestResponse(contest))
}

// GetContest handles GET /api/contests/:id.
func (h *ContestHandler) GetContest(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	details, err := h.contestService.GetContest(contestID)
	if err != nil {
		handleContestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewContestDetailsResponse(details))
}

// ListContests handles GET /api/contests with pagination and filters.
func (h *ContestHandler) ListContests(c *gin.Context) {
	page, pageSize := paginationParams(c)

	filters := repository.ContestFilters{
		Status: entity.Status(c.Query("status")),
		Search: c.Query("search"),
	}
	if createdByStr := c.Query("created_by"); createdByStr != "" {
		if createdBy, err := strconv.ParseUint(createdByStr, 10, 32); err == nil {
			filters.CreatedBy = uint(createdBy)
		}
	}
	if dateFromStr := c.Query("date_from"); dateFromStr != "" {
		if dateFrom, err := time.Parse(time.RFC3339, dateFromStr); err == nil {
			filters.DateFrom = &dateFrom
		}
	}
	if dateToStr := c.Query("date_to"); dateToStr != "" {
		if dateTo, err := time.Parse(time.RFC3339, dateToStr); err == nil {
			filters.DateTo = &dateTo
		}
	}

	contests, total, err := h.contestService.ListContests(page, pageSize, filters)
	if err != nil {
		handleContestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contests": dto.NewListContestResponse(contests),
		"total":    total,
		"page":     page,
		"size":     pageSize,
	})
}

// UpdateContestRequest is the partial-update payload. Pointer fields
// distinguish "absent" from "set to zero value".
type UpdateContestRequest struct {
	Name         *string    `json:"name" binding:"omitempty,min=3,max=100"`
	Description  *string    `json:"description" binding:"omitempty,max=2000"`
	Prize        *string    `json:"prize" binding:"omitempty,max=500"`
	StartTime    *time.Time `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	WinnerCount  *int       `json:"winner_count" binding:"omitempty,min=1,max=50"`
	PrizeTiers   []string   `json:"prize_tiers"`
	HeroImageKey *string    `json:"hero_image_key" binding:"omitempty,max=255"`
}

// UpdateContest handles PATCH /api/contests/:id.
func (h *ContestHandler) UpdateContest(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	var req UpdateContestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contest, err := h.contestService.UpdateContest(contestID, service.UpdateContestInput{
		Name:         req.Name,
		Description:  req.Description,
		Prize:        req.Prize,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		WinnerCount:  req.WinnerCount,
		PrizeTiers:   req.PrizeTiers,
		HeroImageKey: req.HeroImageKey,
	}, actorFromContext(c))
	if err != nil {
		handleContestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewContestResponse(contest))
}

// CancelContestRequest carries the optional cancellation reason.
type CancelContestRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// CancelContest handles POST /api/contests/:id/cancel (admin).
func (h *ContestHandler) CancelContest(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	// The reason is optional, so an empty body is fine.
	var req CancelContestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if err := h.contestService.CancelContest(contestID, actorFromContext(c), req.Reason); err != nil {
		handleContestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Contest cancelled"})
}

// ForceStatusRequest is the admin override payload.
type ForceStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason" binding:"required,min=3,max=500"`
}

// ForceStatus handles POST /api/contests/:id/force-status (admin). It bypasses
// the transition matrix but is still audited.
func (h *ContestHandler) ForceStatus(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	var req ForceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.contestService.ForceStatus(contestID, entity.Status(req.Status), actorFromContext(c), req.Reason)
	if err != nil {
		handleContestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Status forced", "status": req.Status})
}

// GetAuditHistory handles GET /api/contests/:id/audit.
func (h *ContestHandler) GetAuditHistory(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	records, err := h.contestService.GetAuditHistory(contestID)
	if err != nil {
		handleContestError(c, err)
		return
	}

	response := make([]*dto.AuditRecordResponse, len(records))
	for i := range records {
		response[i] = dto.NewAuditRecordResponse(&records[i])
	}
	c.JSON(http.StatusOK, gin.H{"records": response, "total": len(records)})
}

// GetProtection handles GET /api/contests/:id/protection — a dry run of the
// deletion check so UIs can disable the delete button with reasons.
func (h *ContestHandler) GetProtection(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	details, err := h.contestService.GetContest(contestID)
	if err != nil {
		handleContestError(c, err)
		return
	}

	reasons := h.deletionService.EvaluateProtection(details.Contest, details.EntryCount)
	c.JSON(http.StatusOK, gin.H{
		"deletable": len(reasons) == 0,
		"reasons":   reasons,
	})
}

// DeleteContest handles DELETE /api/contests/:id.
func (h *ContestHandler) DeleteContest(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	summary, err := h.deletionService.DeleteContest(contestID, actorFromContext(c))
	if err != nil {
		handleContestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Contest deleted", "summary": summary})
}

// AddOfficialRuleRequest is the official-rules payload.
type AddOfficialRuleRequest struct {
	Body string `json:"body" binding:"required"`
}

// AddOfficialRule handles POST /api/contests/:id/rules.
func (h *ContestHandler) AddOfficialRule(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	var req AddOfficialRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule, err := h.contentService.AddOfficialRule(contestID, req.Body, actorFromContext(c))
	if err != nil {
		handleContestError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// ListOfficialRules handles GET /api/contests/:id/rules.
func (h *ContestHandler) ListOfficialRules(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	rules, err := h.contentService.ListOfficialRules(contestID)
	if err != nil {
		handleContestError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules, "total": len(rules)})
}

// AddSmsTemplateRequest is the SMS template payload.
type AddSmsTemplateRequest struct {
	Name string `json:"name" binding:"required,min=1,max=50"`
	Body string `json:"body" binding:"required,min=1,max=500"`
}

// AddSmsTemplate handles POST /api/contests/:id/sms-templates.
func (h *ContestHandler) AddSmsTemplate(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	var req AddSmsTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template, err := h.contentService.AddSmsTemplate(contestID, req.Name, req.Body, actorFromContext(c))
	if err != nil {
		handleContestError(c, err)
		return
	}
	c.JSON(http.StatusCreated, template)
}

// ListSmsTemplates handles GET /api/contests/:id/sms-templates.
func (h *ContestHandler) ListSmsTemplates(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	templates, err := h.contentService.ListSmsTemplates(contestID)
	if err != nil {
		handleContestError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates, "total": len(templates)})
}

// LogNotificationRequest is a delivery report from the external notifier.
type LogNotificationRequest struct {
	Phone string `json:"phone" binding:"required,max=20"`
	Kind  string `json:"kind" binding:"required,max=20"`
	Body  string `json:"body" binding:"omitempty,max=500"`
}

// LogNotification handles POST /api/contests/:id/notifications (admin). The
// external notifier reports here what it sent; nothing is sent from this side.
func (h *ContestHandler) LogNotification(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	var req LogNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.contentService.LogNotification(contestID, req.Phone, req.Kind, req.Body)
	if err != nil {
		handleContestError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// ListNotifications handles GET /api/contests/:id/notifications (admin).
func (h *ContestHandler) ListNotifications(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	records, err := h.contentService.ListNotifications(contestID)
	if err != nil {
		handleContestError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": records, "total": len(records)})
}

// paginationParams reads page/page_size query params with sane bounds.
func paginationParams(c *gin.Context) (page, pageSize int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err = strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return page, pageSize
}

// handleContestError maps service errors to HTTP responses. Protected
// deletions get their full reason list and snapshot.
func handleContestError(c *gin.Context, err error) {
	var protected *apperrors.ProtectedError
	if errors.As(err, &protected) {
		c.JSON(http.StatusConflict, gin.H{
			"error":      protected.Error(),
			"error_type": "contest_protected",
			"reasons":    protected.Reasons,
			"details":    protected.Details,
		})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidTransition),
		errors.Is(err, apperrors.ErrInvalidState),
		errors.Is(err, apperrors.ErrWinnerClaimed),
		errors.Is(err, repository.ErrDuplicateEntry):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInsufficientEntries),
		errors.Is(err, apperrors.ErrNoEligibleEntries):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		log.Printf("ERROR: Internal server error in contest API: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
