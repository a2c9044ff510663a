package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/cafe-manager-api/config"
	"github.com/kendall-kelly/cafe-manager-api/services"
)

// ListAuditLogs handles GET /api/v1/audit-logs?action=&user_id=&page=&limit= (admin)
func ListAuditLogs(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	page, limit, ok := pageParams(c)
	if !ok {
		return
	}
	userID, ok := queryInt(c, "user_id")
	if !ok {
		return
	}
	if userID < 0 {
		abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "user_id must be positive")
		return
	}

	entries, total, err := services.NewAuditService(config.GetDB()).List(c.Request.Context(), actor, services.AuditFilter{
		Action: c.Query("action"),
		UserID: uint(userID),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, entries, page, limit, total)
}
