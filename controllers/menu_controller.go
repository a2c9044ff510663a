package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/cafe-manager-api/config"
	"github.com/kendall-kelly/cafe-manager-api/services"
	"github.com/shopspring/decimal"
)

// MenuItemRequest represents the request body for creating a menu item
type MenuItemRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Category    string           `json:"category" binding:"required"`
	Available   *bool            `json:"available"`
}

// UpdateMenuItemRequest represents a partial update; omitted fields are left unchanged
type UpdateMenuItemRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	Available   *bool            `json:"available"`
}

func menuService() *services.MenuService {
	return services.NewMenuService(config.GetDB(), services.GetImageService())
}

// ListMenuItems handles GET /api/v1/menu - optional category and available filters
func ListMenuItems(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	availableOnly := false
	if raw := c.Query("available"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "available must be true or false")
			return
		}
		availableOnly = v
	}

	items, err := menuService().List(c.Request.Context(), actor, services.MenuFilter{
		Category:      c.Query("category"),
		AvailableOnly: availableOnly,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, items)
}

// GetMenuItem handles GET /api/v1/menu/:id
func GetMenuItem(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	item, err := menuService().Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, item)
}

// CreateMenuItem handles POST /api/v1/menu (manager, admin)
func CreateMenuItem(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, err)
		return
	}

	item, err := menuService().Create(c.Request.Context(), actor, services.MenuItemInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Category:    req.Category,
		Available:   req.Available,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, item)
}

// UpdateMenuItem handles PUT /api/v1/menu/:id (manager, admin)
func UpdateMenuItem(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, err)
		return
	}

	item, err := menuService().Update(c.Request.Context(), actor, id, services.MenuItemUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Available:   req.Available,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, item)
}

// DeleteMenuItem handles DELETE /api/v1/menu/:id (manager, admin)
func DeleteMenuItem(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := menuService().Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}

	respondMessage(c, "Menu item deleted successfully")
}

// UploadMenuItemImage handles POST /api/v1/menu/:id/image - multipart field "image" (manager, admin)
func UploadMenuItemImage(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	// a missing file reaches the service as nil and is reported as a validation error
	fileHeader, _ := c.FormFile("image")

	item, err := menuService().SetImage(c.Request.Context(), actor, id, fileHeader)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, item)
}
