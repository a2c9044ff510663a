package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/cafe-manager-api/config"
	"github.com/kendall-kelly/cafe-manager-api/services"
)

// StaffRequest represents the request body for adding a staff member.
// A blank staff_code is generated.
type StaffRequest struct {
	StaffCode string `json:"staff_code"`
	Name      string `json:"name" binding:"required"`
	Position  string `json:"position" binding:"required"`
	Contact   string `json:"contact"`
	Active    *bool  `json:"active"`
}

// UpdateStaffRequest represents a partial update; omitted fields are left unchanged
type UpdateStaffRequest struct {
	StaffCode *string `json:"staff_code"`
	Name      *string `json:"name"`
	Position  *string `json:"position"`
	Contact   *string `json:"contact"`
	Active    *bool   `json:"active"`
}

// ListStaff handles GET /api/v1/staff - ?active=true limits to active staff
func ListStaff(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	activeOnly := false
	if raw := c.Query("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "active must be true or false")
			return
		}
		activeOnly = v
	}

	staff, err := services.NewStaffService(config.GetDB()).List(c.Request.Context(), actor, activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, staff)
}

// GetStaff handles GET /api/v1/staff/:id
func GetStaff(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	staff, err := services.NewStaffService(config.GetDB()).Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, staff)
}

// CreateStaff handles POST /api/v1/staff
func CreateStaff(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req StaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, err)
		return
	}

	staff, err := services.NewStaffService(config.GetDB()).Create(c.Request.Context(), actor, services.StaffInput{
		StaffCode: req.StaffCode,
		Name:      req.Name,
		Position:  req.Position,
		Contact:   req.Contact,
		Active:    req.Active,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, staff)
}

// UpdateStaff handles PUT /api/v1/staff/:id
func UpdateStaff(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, err)
		return
	}

	staff, err := services.NewStaffService(config.GetDB()).Update(c.Request.Context(), actor, id, services.StaffUpdate{
		StaffCode: req.StaffCode,
		Name:      req.Name,
		Position:  req.Position,
		Contact:   req.Contact,
		Active:    req.Active,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, staff)
}

// DeleteStaff handles DELETE /api/v1/staff/:id
func DeleteStaff(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := services.NewStaffService(config.GetDB()).Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}

	respondMessage(c, "Staff member deleted successfully")
}
