package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kendall-kelly/cafe-manager-api/models"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxCustomerNameLength = 100

// OrderLine is one requested menu item and how many of it
type OrderLine struct {
	MenuItemID uint `json:"menu_item_id"`
	Quantity   int  `json:"quantity"`
}

// CreateOrderInput is the data needed to record a new order
type CreateOrderInput struct {
	CustomerName string
	StaffID      uint
	Items        []OrderLine
}

// OrderFilter narrows an order listing
type OrderFilter struct {
	Status  string
	StaffID uint
	Page    int
	Limit   int
}

// OrderLinesFromMenuItemIDs turns a plain selection of menu item ids into order lines.
// Repeated ids become a single line whose quantity is the number of repeats.
func OrderLinesFromMenuItemIDs(ids []uint) []OrderLine {
	lines := make([]OrderLine, 0, len(ids))
	index := make(map[uint]int, len(ids))
	for _, id := range ids {
		if i, ok := index[id]; ok {
			lines[i].Quantity++
			continue
		}
		index[id] = len(lines)
		lines = append(lines, OrderLine{MenuItemID: id, Quantity: 1})
	}
	return lines
}

// mergeLines validates quantities and folds duplicate menu items together
func mergeLines(lines []OrderLine) ([]OrderLine, error) {
	if len(lines) == 0 {
		return nil, &ValidationError{Field: "items", Message: "at least one menu item is required"}
	}
	merged := make([]OrderLine, 0, len(lines))
	index := make(map[uint]int, len(lines))
	for _, line := range lines {
		if line.MenuItemID == 0 {
			return nil, &ValidationError{Field: "items", Message: "menu_item_id is required"}
		}
		if line.Quantity < 1 {
			return nil, &ValidationError{Field: "items", Message: fmt.Sprintf("quantity for menu item %d must be at least 1", line.MenuItemID)}
		}
		if i, ok := index[line.MenuItemID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.MenuItemID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

// OrderService records and manages customer orders
type OrderService struct {
	db *gorm.DB
}

// NewOrderService creates an OrderService
func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

// Create records a Pending order. The total is fixed from current menu prices.
func (s *OrderService) Create(ctx context.Context, actor Actor, in CreateOrderInput) (*models.Order, error) {
	if err := actor.Require(models.Roles...); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		return nil, &ValidationError{Field: "customer_name", Message: "customer name is required"}
	}
	if utf8.RuneCountInString(name) > maxCustomerNameLength {
		return nil, &ValidationError{Field: "customer_name", Message: fmt.Sprintf("customer name must be at most %d characters", maxCustomerNameLength)}
	}
	if in.StaffID == 0 {
		return nil, &ValidationError{Field: "staff_id", Message: "staff member is required"}
	}
	lines, err := mergeLines(in.Items)
	if err != nil {
		return nil, err
	}

	var order models.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var staff models.Staff
		if err := tx.First(&staff, in.StaffID).Error; err != nil {
			if isNotFound(err) {
				return &ValidationError{Field: "staff_id", Message: fmt.Sprintf("staff member %d does not exist", in.StaffID)}
			}
			return persistenceError("load staff", err)
		}
		if !staff.Active {
			return &ValidationError{Field: "staff_id", Message: fmt.Sprintf("staff member %s is not active", staff.Name)}
		}

		ids := make([]uint, len(lines))
		for i, line := range lines {
			ids[i] = line.MenuItemID
		}
		var menuItems []models.MenuItem
		if err := tx.Where("id IN ?", ids).Find(&menuItems).Error; err != nil {
			return persistenceError("load menu items", err)
		}
		byID := make(map[uint]models.MenuItem, len(menuItems))
		for _, item := range menuItems {
			byID[item.ID] = item
		}

		total := decimal.Zero
		orderItems := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			item, ok := byID[line.MenuItemID]
			if !ok {
				return &ValidationError{Field: "items", Message: fmt.Sprintf("menu item %d does not exist", line.MenuItemID)}
			}
			if !item.Available {
				return &ValidationError{Field: "items", Message: fmt.Sprintf("menu item %s is not available", item.Name)}
			}
			oi := models.OrderItem{MenuItemID: item.ID, Quantity: line.Quantity, UnitPrice: item.Price}
			total = total.Add(oi.LineTotal())
			orderItems = append(orderItems, oi)
		}

		order = models.Order{
			CustomerName: name,
			StaffID:      staff.ID,
			Status:       models.OrderStatusPending,
			Total:        total,
		}
		if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
			return persistenceError("create order", err)
		}
		for i := range orderItems {
			orderItems[i].OrderID = order.ID
		}
		if err := tx.Omit(clause.Associations).Create(&orderItems).Error; err != nil {
			return persistenceError("create order items", err)
		}

		return recordAudit(tx, actor, models.ActionCreateOrder,
			fmt.Sprintf("Order #%d for %s: %s", order.ID, name, total.StringFixed(2)),
			map[string]interface{}{"order_id": order.ID, "staff_id": staff.ID, "total": total.StringFixed(2)})
	})
	if err != nil {
		return nil, passthrough("create order", err)
	}

	log.Info().Uint("order_id", order.ID).Str("total", order.Total.StringFixed(2)).Msg("Order created")
	return s.load(ctx, order.ID)
}

// Get returns one order with its staff member and line items
func (s *OrderService) Get(ctx context.Context, actor Actor, id uint) (*models.Order, error) {
	if err := actor.Require(models.Roles...); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *OrderService) load(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Staff").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		Preload("Items.MenuItem").
		First(&order, id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, &NotFoundError{Resource: "order", ID: id}
		}
		return nil, persistenceError("load order", err)
	}
	return &order, nil
}

// List returns orders newest first, one page at a time
func (s *OrderService) List(ctx context.Context, actor Actor, filter OrderFilter) ([]models.Order, int64, error) {
	if err := actor.Require(models.Roles...); err != nil {
		return nil, 0, err
	}
	if filter.Status != "" && !models.IsValidOrderStatus(filter.Status) {
		return nil, 0, &ValidationError{Field: "status", Message: invalidStatusMessage()}
	}
	page, limit := NormalizePage(filter.Page, filter.Limit)

	query := s.db.WithContext(ctx).Model(&models.Order{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.StaffID != 0 {
		query = query.Where("staff_id = ?", filter.StaffID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, persistenceError("count orders", err)
	}

	orders := make([]models.Order, 0)
	if err := query.
		Preload("Staff").
		Preload("Items.MenuItem").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, persistenceError("list orders", err)
	}
	return orders, total, nil
}

// UpdateStatus moves an order to any recognized status. Managers and admins only.
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, id uint, status string) (*models.Order, error) {
	if err := actor.Require(models.RoleManager, models.RoleAdmin); err != nil {
		return nil, err
	}
	if !models.IsValidOrderStatus(status) {
		return nil, &ValidationError{Field: "status", Message: invalidStatusMessage()}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, id).Error; err != nil {
			if isNotFound(err) {
				return &NotFoundError{Resource: "order", ID: id}
			}
			return persistenceError("load order", err)
		}
		previous := order.Status
		if err := tx.Model(&order).Update("status", status).Error; err != nil {
			return persistenceError("update order status", err)
		}
		return recordAudit(tx, actor, models.ActionUpdateOrderStatus,
			fmt.Sprintf("Order #%d: %s → %s", id, previous, status),
			map[string]interface{}{"order_id": id, "from": previous, "to": status})
	})
	if err != nil {
		return nil, passthrough("update order status", err)
	}
	return s.load(ctx, id)
}

// Delete removes an order and its line items. Managers and admins only.
func (s *OrderService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := actor.Require(models.RoleManager, models.RoleAdmin); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, id).Error; err != nil {
			if isNotFound(err) {
				return &NotFoundError{Resource: "order", ID: id}
			}
			return persistenceError("load order", err)
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return persistenceError("delete order items", err)
		}
		if err := tx.Delete(&order).Error; err != nil {
			return persistenceError("delete order", err)
		}
		return recordAudit(tx, actor, models.ActionDeleteOrder,
			fmt.Sprintf("Deleted order #%d (%s, %s)", id, order.CustomerName, order.Total.StringFixed(2)),
			map[string]interface{}{"order_id": id})
	})
	if err != nil {
		return passthrough("delete order", err)
	}
	return nil
}

func invalidStatusMessage() string {
	return "status must be one of " + strings.Join(models.OrderStatuses, ", ")
}
