package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/cafe-manager-api/config"
	"github.com/kendall-kelly/cafe-manager-api/middleware"
	"github.com/kendall-kelly/cafe-manager-api/models"
	"github.com/kendall-kelly/cafe-manager-api/services"
)

// LoginRequest represents the request body for signing in
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func authService() *services.AuthService {
	return services.NewAuthService(
		config.GetDB(),
		services.NewBcryptHasher(),
		services.NewTokenIssuer(config.GetConfig()),
		services.GetTokenStore(),
	)
}

// Login handles POST /api/v1/auth/login - exchanges credentials for an access token
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, err)
		return
	}

	result, err := authService().Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, result)
}

// Logout handles POST /api/v1/auth/logout - revokes the presented token
func Logout(c *gin.Context) {
	claims, err := middleware.GetClaims(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	expiresAt := time.Unix(claims.RegisteredClaims.Expiry, 0)
	if err := authService().Logout(c.Request.Context(), claims.RegisteredClaims.ID, expiresAt); err != nil {
		respondError(c, err)
		return
	}

	respondMessage(c, "Logged out successfully")
}

// GetCurrentUser handles GET /api/v1/auth/me - returns the signed in account
func GetCurrentUser(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	respondData(c, http.StatusOK, user)
}

// LoadUser resolves a token subject for middleware.LoadCurrentUser
func LoadUser(ctx context.Context, id uint) (*models.User, error) {
	return authService().CurrentUser(ctx, id)
}
