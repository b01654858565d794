package handlers

import (
	"net/http"
	"strconv"

	"startup-fund/internal/auth"
	"startup-fund/internal/models"
	"startup-fund/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AdminHandler struct {
	admin  *services.AdminService
	states *services.GameStateService
}

func NewAdminHandler(admin *services.AdminService, states *services.GameStateService) *AdminHandler {
	return &AdminHandler{admin: admin, states: states}
}

// GetDashboard returns aggregate platform statistics
// GET /api/admin/dashboard
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, err := h.admin.GetDashboard(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute dashboard"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ToggleLock flips the global game lock
// POST /api/admin/lock
func (h *AdminHandler) ToggleLock(c *gin.Context) {
	locked, err := h.admin.ToggleLock(c.Request.Context(), auth.GetAdminName(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locked": locked})
}

// CreateStartup creates a startup
// POST /api/admin/startups
func (h *AdminHandler) CreateStartup(c *gin.Context) {
	var input services.StartupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startup, err := h.admin.CreateStartup(c.Request.Context(), auth.GetAdminName(c), &input)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, startup)
}

// UpdateStartup edits a startup
// PUT /api/admin/startups/:id
func (h *AdminHandler) UpdateStartup(c *gin.Context) {
	startupID, err := parseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid startup id"})
		return
	}

	var input services.StartupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startup, err := h.admin.UpdateStartup(c.Request.Context(), auth.GetAdminName(c), startupID, &input)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, startup)
}

// DeleteStartup removes a startup and its investments
// DELETE /api/admin/startups/:id
func (h *AdminHandler) DeleteStartup(c *gin.Context) {
	startupID, err := parseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid startup id"})
		return
	}

	if err := h.admin.DeleteStartup(c.Request.Context(), auth.GetAdminName(c), startupID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": startupID})
}

// GetInvestors lists all investors with derived totals
// GET /api/admin/investors
func (h *AdminHandler) GetInvestors(c *gin.Context) {
	snapshot, err := h.states.Project(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to project game state"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"investors": snapshot.Investors,
		"total":     len(snapshot.Investors),
	})
}

// CreditUpdateRequest carries the new starting credit for an investor
type CreditUpdateRequest struct {
	StartingCredit *int64 `json:"starting_credit" binding:"required"`
}

// UpdateInvestorCredit sets an investor's starting credit
// PUT /api/admin/investors/:id/credit
func (h *AdminHandler) UpdateInvestorCredit(c *gin.Context) {
	investorID, err := parseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid investor id"})
		return
	}

	var req CreditUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	investor, err := h.admin.UpdateInvestorCredit(c.Request.Context(), auth.GetAdminName(c), investorID, *req.StartingCredit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, investor)
}

// DeleteInvestor removes an investor, cascading investments and requests
// DELETE /api/admin/investors/:id
func (h *AdminHandler) DeleteInvestor(c *gin.Context) {
	investorID, err := parseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid investor id"})
		return
	}

	if err := h.admin.DeleteInvestor(c.Request.Context(), auth.GetAdminName(c), investorID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": investorID})
}

// GetFundsRequests lists funds requests, optionally filtered by status
// GET /api/admin/funds-requests?status=PENDING
func (h *AdminHandler) GetFundsRequests(c *gin.Context) {
	status := models.FundsRequestStatus(c.Query("status"))

	requests, err := h.admin.ListFundsRequests(c.Request.Context(), status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get funds requests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"total":    len(requests),
	})
}

// ReviewRequest is the admin payload for resolving a funds request
type ReviewRequest struct {
	Response string `json:"response"`
}

// ApproveFundsRequest approves a pending request and bumps the investor credit
// POST /api/admin/funds-requests/:id/approve
func (h *AdminHandler) ApproveFundsRequest(c *gin.Context) {
	h.reviewFundsRequest(c, true)
}

// RejectFundsRequest rejects a pending request
// POST /api/admin/funds-requests/:id/reject
func (h *AdminHandler) RejectFundsRequest(c *gin.Context) {
	h.reviewFundsRequest(c, false)
}

func (h *AdminHandler) reviewFundsRequest(c *gin.Context, approve bool) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var request *models.FundsRequest
	if approve {
		request, err = h.admin.ApproveFundsRequest(c.Request.Context(), auth.GetAdminName(c), requestID, req.Response)
	} else {
		request, err = h.admin.RejectFundsRequest(c.Request.Context(), auth.GetAdminName(c), requestID, req.Response)
	}
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// GetAdminLogs returns the admin audit trail
// GET /api/admin/logs
func (h *AdminHandler) GetAdminLogs(c *gin.Context) {
	limit := 50
	offset := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	logs, err := h.admin.GetAdminLogs(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get admin logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"total": len(logs),
	})
}

func parseUintParam(c *gin.Context, name string) (uint, error) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}
