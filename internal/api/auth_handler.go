package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/lodging-booking-backend/internal/auth"
)

// AuthHandler exposes the identity carried by the caller's token.
// Tokens are issued by an external identity provider.
type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

//
// GET /v1/me
//

func (h *AuthHandler) Me(c *gin.Context) {
	userID := auth.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "kind": "permission_denied"})
		return
	}

	c.JSON(http.StatusOK, MeResponse{
		UserID: userID,
		Role:   auth.GetRole(c),
	})
}
