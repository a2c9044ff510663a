package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/cafe-manager-api/config"
	"github.com/kendall-kelly/cafe-manager-api/services"
)

// CreateOrderRequest represents the request body for creating an order.
// Items may be given as lines with quantities or as a plain list of menu item ids.
type CreateOrderRequest struct {
	CustomerName string               `json:"customer_name" binding:"required"`
	StaffID      uint                 `json:"staff_id" binding:"required"`
	Items        []services.OrderLine `json:"items"`
	MenuItemIDs  []uint               `json:"menu_item_ids"`
}

// UpdateOrderStatusRequest represents the request body for changing an order's status
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateOrder handles POST /api/v1/orders - records a new order (any role)
func CreateOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, err)
		return
	}

	lines := append(req.Items, services.OrderLinesFromMenuItemIDs(req.MenuItemIDs)...)
	order, err := services.NewOrderService(config.GetDB()).Create(c.Request.Context(), actor, services.CreateOrderInput{
		CustomerName: req.CustomerName,
		StaffID:      req.StaffID,
		Items:        lines,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, order)
}

// ListOrders handles GET /api/v1/orders - newest first, filterable by status and staff_id
func ListOrders(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	page, limit, ok := pageParams(c)
	if !ok {
		return
	}
	staffID, ok := queryInt(c, "staff_id")
	if !ok {
		return
	}
	if staffID < 0 {
		abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "staff_id must be positive")
		return
	}

	orders, total, err := services.NewOrderService(config.GetDB()).List(c.Request.Context(), actor, services.OrderFilter{
		Status:  c.Query("status"),
		StaffID: uint(staffID),
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, orders, page, limit, total)
}

// GetOrder handles GET /api/v1/orders/:id
func GetOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := services.NewOrderService(config.GetDB()).Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, order)
}

// UpdateOrderStatus handles PATCH /api/v1/orders/:id/status (manager, admin)
func UpdateOrderStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, err)
		return
	}

	order, err := services.NewOrderService(config.GetDB()).UpdateStatus(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, order)
}

// DeleteOrder handles DELETE /api/v1/orders/:id (manager, admin)
func DeleteOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := services.NewOrderService(config.GetDB()).Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}

	respondMessage(c, "Order deleted successfully")
}
