package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/kendall-kelly/cafe-manager-api/config"
	"github.com/kendall-kelly/cafe-manager-api/middleware"
	"github.com/kendall-kelly/cafe-manager-api/models"
	"github.com/kendall-kelly/cafe-manager-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginData struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int         `json:"expires_in"`
	User        models.User `json:"user"`
}

func TestLogin(t *testing.T) {
	f := setupControllerTest(t)

	router := setupTestRouter()
	router.POST("/api/v1/auth/login", Login)

	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		expectedError  string
	}{
		{name: "valid credentials", requestBody: map[string]string{"username": "manager", "password": "password"}, expectedStatus: http.StatusOK},
		{name: "wrong password", requestBody: map[string]string{"username": "manager", "password": "nope"}, expectedStatus: http.StatusUnauthorized, expectedError: "INVALID_CREDENTIALS"},
		{name: "unknown user", requestBody: map[string]string{"username": "ghost", "password": "password"}, expectedStatus: http.StatusUnauthorized, expectedError: "INVALID_CREDENTIALS"},
		{name: "missing password", requestBody: map[string]string{"username": "manager"}, expectedStatus: http.StatusBadRequest, expectedError: "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, http.MethodPost, "/api/v1/auth/login", tt.requestBody)
			if tt.expectedError != "" {
				requireErrorCode(t, w, tt.expectedStatus, tt.expectedError)
				return
			}
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			var data loginData
			decodeData(t, decodeResponse(t, w), &data)
			assert.NotEmpty(t, data.AccessToken)
			assert.Equal(t, "Bearer", data.TokenType)
			assert.Equal(t, 3600, data.ExpiresIn)
			assert.Equal(t, f.manager.ID, data.User.ID)
			assert.Equal(t, models.RoleManager, data.User.Role)
		})
	}
}

func TestLogoutAndMe(t *testing.T) {
	f := setupControllerTest(t)
	cfg := config.GetConfig()

	router := setupTestRouter()
	router.POST("/api/v1/auth/login", Login)
	authed := router.Group("/api/v1/auth",
		middleware.EnsureValidToken(cfg, services.GetTokenStore()),
		middleware.LoadCurrentUser(LoadUser))
	authed.GET("/me", GetCurrentUser)
	authed.POST("/logout", Logout)

	w := performRequest(router, http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "clerk", "password": "password"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data loginData
	decodeData(t, decodeResponse(t, w), &data)

	w = performAuthedRequest(router, http.MethodGet, "/api/v1/auth/me", data.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var user models.User
	decodeData(t, decodeResponse(t, w), &user)
	assert.Equal(t, f.clerk.ID, user.ID)

	w = performAuthedRequest(router, http.MethodPost, "/api/v1/auth/logout", data.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Logged out successfully", decodeResponse(t, w).Message)

	w = performAuthedRequest(router, http.MethodGet, "/api/v1/auth/me", data.AccessToken, nil)
	requireErrorCode(t, w, http.StatusUnauthorized, "TOKEN_REVOKED")
}

func TestLoadUser_DeletedAccount(t *testing.T) {
	f := setupControllerTest(t)
	require.NoError(t, f.db.Delete(f.clerk).Error)

	_, err := LoadUser(context.Background(), f.clerk.ID)
	var nf *services.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
