package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/cafe-manager-api/config"
	"github.com/kendall-kelly/cafe-manager-api/services"
)

const reportDateLayout = "2006-01-02"

func reportLocation() *time.Location {
	if cfg := config.GetConfig(); cfg != nil {
		return cfg.Location()
	}
	return time.UTC
}

func reportService() *services.ReportService {
	return services.NewReportService(config.GetDB(), reportLocation())
}

// parseReportDate reads an optional YYYY-MM-DD query parameter
func parseReportDate(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.ParseInLocation(reportDateLayout, raw, reportLocation())
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", name+" must be a date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return t, true
}

// GetDailySales handles GET /api/v1/reports/daily-sales?from=YYYY-MM-DD&to=YYYY-MM-DD
func GetDailySales(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	from, ok := parseReportDate(c, "from")
	if !ok {
		return
	}
	to, ok := parseReportDate(c, "to")
	if !ok {
		return
	}

	series, err := reportService().DailySales(c.Request.Context(), actor, services.DateRange{From: from, To: to})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, series)
}

// GetPopularItems handles GET /api/v1/reports/popular-items?limit=N
func GetPopularItems(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}

	items, err := reportService().PopularItems(c.Request.Context(), actor, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, items)
}

// GetStaffPerformance handles GET /api/v1/reports/staff-performance?limit=N
func GetStaffPerformance(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}

	rows, err := reportService().StaffPerformance(c.Request.Context(), actor, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, rows)
}

// GetSummary handles GET /api/v1/reports/summary
func GetSummary(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	summary, err := reportService().Summary(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, summary)
}

// GetDashboard handles GET /api/v1/dashboard, the view denied requests are redirected to
func GetDashboard(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	dashboard, err := reportService().Dashboard(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, dashboard)
}
