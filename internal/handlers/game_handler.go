package handlers

import (
	"net/http"

	"startup-fund/internal/auth"
	"startup-fund/internal/broadcast"
	"startup-fund/internal/services"

	"github.com/gin-gonic/gin"
)

type GameHandler struct {
	investments *services.InvestmentService
	states      *services.GameStateService
	hub         *broadcast.Hub
}

func NewGameHandler(
	investments *services.InvestmentService,
	states *services.GameStateService,
	hub *broadcast.Hub,
) *GameHandler {
	return &GameHandler{
		investments: investments,
		states:      states,
		hub:         hub,
	}
}

// GetState returns the current snapshot; poll fallback for clients without
// a live WebSocket.
// GET /api/state
func (h *GameHandler) GetState(c *gin.Context) {
	snapshot, err := h.states.Project(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to project game state"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// ServeWS upgrades to a WebSocket subscription; the client receives the
// current snapshot immediately and every subsequent broadcast.
// GET /api/ws
func (h *GameHandler) ServeWS(c *gin.Context) {
	snapshot, err := h.states.Project(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to project game state"})
		return
	}
	_ = h.hub.ServeWS(c.Writer, c.Request, snapshot)
}

// InvestRequest is the allocation-change payload. Amount is a pointer so an
// explicit zero (position removal) binds.
type InvestRequest struct {
	StartupID   uint    `json:"startup_id" binding:"required"`
	Amount      *int64  `json:"amount" binding:"required"`
	Fingerprint *string `json:"fingerprint"`
}

// Invest applies an allocation change for the authenticated investor
// POST /api/investments
func (h *GameHandler) Invest(c *gin.Context) {
	investorID, exists := auth.GetInvestorID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req InvestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	investment, err := h.investments.Apply(c.Request.Context(), investorID, req.StartupID, *req.Amount, req.Fingerprint)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, investment)
}

// Submit finalizes the authenticated investor's allocations
// POST /api/submit
func (h *GameHandler) Submit(c *gin.Context) {
	investorID, exists := auth.GetInvestorID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	investor, err := h.investments.Submit(c.Request.Context(), investorID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, investor)
}

// Me returns the authenticated investor's standing with derived totals
// GET /api/me
func (h *GameHandler) Me(c *gin.Context) {
	investorID, exists := auth.GetInvestorID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	standing, err := h.states.ProjectInvestor(c.Request.Context(), investorID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, standing)
}
