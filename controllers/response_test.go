package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/cafe-manager-api/services"
	"github.com/kendall-kelly/cafe-manager-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
		expectedMsg    string
	}{
		{name: "validation", err: &services.ValidationError{Field: "name", Message: "name is required"}, expectedStatus: http.StatusBadRequest, expectedCode: "VALIDATION_ERROR", expectedMsg: "name is required"},
		{name: "upload", err: &utils.FileUploadError{Code: "FILE_TOO_LARGE", Message: "too big"}, expectedStatus: http.StatusBadRequest, expectedCode: "FILE_TOO_LARGE"},
		{name: "not found with spaces", err: &services.NotFoundError{Resource: "menu item", ID: 4}, expectedStatus: http.StatusNotFound, expectedCode: "MENU_ITEM_NOT_FOUND", expectedMsg: "Menu item 4 not found"},
		{name: "conflict", err: &services.ConflictError{Code: "STAFF_HAS_ORDERS", Message: "busy"}, expectedStatus: http.StatusConflict, expectedCode: "STAFF_HAS_ORDERS"},
		{name: "forbidden", err: &services.AuthorizationError{Message: "Access denied. Required role: admin"}, expectedStatus: http.StatusForbidden, expectedCode: "FORBIDDEN"},
		{name: "wrapped conflict", err: fmt.Errorf("outer: %w", &services.ConflictError{Code: "USER_EXISTS", Message: "taken"}), expectedStatus: http.StatusConflict, expectedCode: "USER_EXISTS"},
		{name: "credentials", err: services.ErrInvalidCredentials, expectedStatus: http.StatusUnauthorized, expectedCode: "INVALID_CREDENTIALS"},
		{name: "no image storage", err: services.ErrImageStorageUnavailable, expectedStatus: http.StatusServiceUnavailable, expectedCode: "IMAGE_STORAGE_UNAVAILABLE"},
		{name: "persistence", err: &services.PersistenceError{Op: "create order", Err: errors.New("disk full")}, expectedStatus: http.StatusInternalServerError, expectedCode: "DATABASE_ERROR", expectedMsg: "Failed to create order"},
		{name: "anything else", err: errors.New("boom"), expectedStatus: http.StatusInternalServerError, expectedCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.GET("/fail", func(c *gin.Context) { respondError(c, tt.err) })

			w := performRequest(router, http.MethodGet, "/fail", nil)
			resp := requireErrorCode(t, w, tt.expectedStatus, tt.expectedCode)
			if tt.expectedMsg != "" {
				assert.Equal(t, tt.expectedMsg, resp.Error.Message)
			}
			if tt.expectedStatus == http.StatusForbidden {
				assert.Equal(t, "/api/v1/dashboard", resp.Error.Redirect)
			}
			assert.NotContains(t, w.Body.String(), "disk full", "storage details stay in the logs")
		})
	}
}

func TestParseID(t *testing.T) {
	router := setupTestRouter()
	router.GET("/items/:id", func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	for path, status := range map[string]int{
		"/items/12":  http.StatusOK,
		"/items/0":   http.StatusBadRequest,
		"/items/-3":  http.StatusBadRequest,
		"/items/abc": http.StatusBadRequest,
	} {
		w := performRequest(router, http.MethodGet, path, nil)
		require.Equal(t, status, w.Code, path)
	}
}

func TestPageParams(t *testing.T) {
	router := setupTestRouter()
	router.GET("/page", func(c *gin.Context) {
		page, limit, ok := pageParams(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"page": page, "limit": limit})
	})

	tests := []struct {
		query string
		want  string
	}{
		{query: "", want: `{"page":1,"limit":10}`},
		{query: "?page=3&limit=25", want: `{"page":3,"limit":25}`},
		{query: "?page=0&limit=500", want: `{"page":1,"limit":100}`},
	}
	for _, tt := range tests {
		w := performRequest(router, http.MethodGet, "/page"+tt.query, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, tt.want, w.Body.String())
	}

	w := performRequest(router, http.MethodGet, "/page?limit=ten", nil)
	requireErrorCode(t, w, http.StatusBadRequest, "VALIDATION_ERROR")
}
