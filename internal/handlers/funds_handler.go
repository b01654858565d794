package handlers

import (
	"net/http"

	"startup-fund/internal/auth"
	"startup-fund/internal/services"

	"github.com/gin-gonic/gin"
)

type FundsHandler struct {
	funds *services.FundsService
}

func NewFundsHandler(funds *services.FundsService) *FundsHandler {
	return &FundsHandler{funds: funds}
}

// FundsRequestInput is the investor payload for requesting more capital
type FundsRequestInput struct {
	Amount        int64  `json:"amount" binding:"required"`
	Justification string `json:"justification" binding:"required"`
}

// SubmitRequest creates a pending funds request
// POST /api/funds-requests
func (h *FundsHandler) SubmitRequest(c *gin.Context) {
	investorID, exists := auth.GetInvestorID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req FundsRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.funds.SubmitRequest(c.Request.Context(), investorID, req.Amount, req.Justification)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

// GetRequests lists the authenticated investor's requests
// GET /api/funds-requests
func (h *FundsHandler) GetRequests(c *gin.Context) {
	investorID, exists := auth.GetInvestorID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	requests, err := h.funds.GetInvestorRequests(c.Request.Context(), investorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get funds requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"total":    len(requests),
	})
}
