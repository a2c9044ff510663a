package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/cafe-manager-api/middleware"
	"github.com/kendall-kelly/cafe-manager-api/services"
	"github.com/kendall-kelly/cafe-manager-api/utils"
	"github.com/rs/zerolog/log"
)

// Pagination describes one page of a listing
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondPage(c *gin.Context, data interface{}, page, limit int, total int64) {
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       data,
		"pagination": Pagination{Page: page, Limit: limit, Total: total},
	})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
	})
}

func errorBody(code, message string) gin.H {
	return gin.H{"code": code, "message": message}
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   errorBody(code, message),
	})
}

func validationFailed(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// respondError maps a service error onto a status code and error envelope
func respondError(c *gin.Context, err error) {
	var (
		ve *services.ValidationError
		ne *services.NotFoundError
		ce *services.ConflictError
		ae *services.AuthorizationError
		fe *utils.FileUploadError
		pe *services.PersistenceError
	)

	switch {
	case errors.As(err, &ve):
		body := errorBody("VALIDATION_ERROR", ve.Message)
		if ve.Field != "" {
			body["details"] = gin.H{"field": ve.Field}
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": body})
	case errors.As(err, &fe):
		abortWithError(c, http.StatusBadRequest, fe.Code, fe.Message)
	case errors.As(err, &ne):
		code := strings.ToUpper(strings.ReplaceAll(ne.Resource, " ", "_")) + "_NOT_FOUND"
		abortWithError(c, http.StatusNotFound, code, capitalize(ne.Error()))
	case errors.As(err, &ce):
		abortWithError(c, http.StatusConflict, ce.Code, ce.Message)
	case errors.As(err, &ae):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":     "FORBIDDEN",
				"message":  ae.Message,
				"redirect": middleware.DashboardPath,
			},
		})
	case errors.Is(err, services.ErrInvalidCredentials):
		abortWithError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
	case errors.Is(err, services.ErrImageStorageUnavailable):
		abortWithError(c, http.StatusServiceUnavailable, "IMAGE_STORAGE_UNAVAILABLE", "Image storage is not configured")
	case errors.As(err, &pe):
		log.Error().Err(err).Str("request_id", c.GetString(middleware.ContextRequestID)).Msg("Database operation failed")
		abortWithError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to "+pe.Op)
	default:
		log.Error().Err(err).Str("request_id", c.GetString(middleware.ContextRequestID)).Msg("Request failed")
		abortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// currentActor turns the user loaded by middleware.LoadCurrentUser into a service actor
func currentActor(c *gin.Context) (services.Actor, bool) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return services.Actor{}, false
	}
	return services.Actor{UserID: user.ID, Username: user.Username, Role: user.Role}, true
}

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		abortWithError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name+" parameter")
		return 0, false
	}
	return uint(id), true
}

// queryInt reads an optional integer query parameter
func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", name+" must be a number")
		return 0, false
	}
	return n, true
}

// pageParams reads page and limit, applying the listing defaults
func pageParams(c *gin.Context) (int, int, bool) {
	page, ok := queryInt(c, "page")
	if !ok {
		return 0, 0, false
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return 0, 0, false
	}
	page, limit = services.NormalizePage(page, limit)
	return page, limit, true
}
