package handlers

import (
	"crypto/subtle"
	"net/http"

	"startup-fund/internal/auth"
	"startup-fund/internal/services"

	"github.com/gin-gonic/gin"
)

type JoinHandler struct {
	joins      *services.JoinService
	accessCode string
}

func NewJoinHandler(joins *services.JoinService, accessCode string) *JoinHandler {
	return &JoinHandler{joins: joins, accessCode: accessCode}
}

// JoinRequest is the investor signup payload
type JoinRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	AccessCode string `json:"access_code"`
}

// Join registers (or logs back in) an investor and returns a session token
// POST /api/join
func (h *JoinHandler) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.accessCode != "" {
		if subtle.ConstantTimeCompare([]byte(req.AccessCode), []byte(h.accessCode)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid access code"})
			return
		}
	}

	investor, err := h.joins.Join(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	token, err := auth.GenerateToken(investor.ID, investor.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"investor": investor,
	})
}
