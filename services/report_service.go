package services

import (
	"context"
	"sort"
	"time"

	"github.com/kendall-kelly/cafe-manager-api/models"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	DefaultReportLimit = 5
	MaxReportLimit     = 50
	dateLayout         = "2006-01-02"
)

// DateRange bounds a report by calendar date, both ends inclusive. Zero values are open ends.
type DateRange struct {
	From time.Time
	To   time.Time
}

// DailySale is the sales of one calendar day
type DailySale struct {
	Date   string          `json:"date"`
	Total  decimal.Decimal `json:"total"`
	Orders int             `json:"orders"`
}

// PopularItem is the quantity sold of one menu item
type PopularItem struct {
	MenuItemID    uint            `json:"menu_item_id"`
	Name          string          `json:"name"`
	TotalQuantity int64           `json:"quantity"`
	Revenue       decimal.Decimal `json:"revenue"`
}

// StaffSales is one staff member's order count and sales
type StaffSales struct {
	StaffID    uint            `json:"staff_id"`
	Name       string          `json:"name"`
	StaffCode  string          `json:"staff_code"`
	OrderCount int64           `json:"order_count"`
	Sales      decimal.Decimal `json:"sales"`
}

// Summary holds the headline dashboard figures
type Summary struct {
	TotalOrders    int64            `json:"total_orders"`
	TotalSales     decimal.Decimal  `json:"total_sales"`
	ActiveStaff    int64            `json:"active_staff"`
	MenuItems      int64            `json:"menu_items"`
	OrdersByStatus map[string]int64 `json:"orders_by_status"`
}

// Dashboard is everything the landing view shows
type Dashboard struct {
	Summary      *Summary      `json:"summary"`
	DailySales   []DailySale   `json:"daily_sales"`
	PopularItems []PopularItem `json:"popular_items"`
}

// ReportService computes read-only aggregates over orders
type ReportService struct {
	db  *gorm.DB
	loc *time.Location
}

// NewReportService creates a ReportService grouping dates in loc (UTC when nil)
func NewReportService(db *gorm.DB, loc *time.Location) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{db: db, loc: loc}
}

// DailySales sums order totals per calendar day, oldest day first.
// An empty store yields an empty series.
func (s *ReportService) DailySales(ctx context.Context, actor Actor, r DateRange) ([]DailySale, error) {
	if err := actor.Require(models.Roles...); err != nil {
		return nil, err
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return nil, &ValidationError{Field: "to", Message: "to must not be before from"}
	}

	query := s.db.WithContext(ctx).Model(&models.Order{}).Select("created_at, total")
	if !r.From.IsZero() {
		query = query.Where("created_at >= ?", s.startOfDay(r.From).UTC())
	}
	if !r.To.IsZero() {
		query = query.Where("created_at < ?", s.startOfDay(r.To).AddDate(0, 0, 1).UTC())
	}

	var rows []struct {
		CreatedAt time.Time
		Total     decimal.Decimal
	}
	if err := query.Order("created_at ASC").Scan(&rows).Error; err != nil {
		return nil, persistenceError("load daily sales", err)
	}

	byDate := make(map[string]*DailySale)
	for _, row := range rows {
		day := row.CreatedAt.In(s.loc).Format(dateLayout)
		entry, ok := byDate[day]
		if !ok {
			entry = &DailySale{Date: day, Total: decimal.Zero}
			byDate[day] = entry
		}
		entry.Total = entry.Total.Add(row.Total)
		entry.Orders++
	}

	series := make([]DailySale, 0, len(byDate))
	for _, entry := range byDate {
		series = append(series, *entry)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series, nil
}

func (s *ReportService) startOfDay(t time.Time) time.Time {
	y, m, d := t.In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultReportLimit
	}
	if limit > MaxReportLimit {
		return MaxReportLimit
	}
	return limit
}

// PopularItems ranks menu items by quantity ordered, ties broken by menu item id
func (s *ReportService) PopularItems(ctx context.Context, actor Actor, limit int) ([]PopularItem, error) {
	if err := actor.Require(models.Roles...); err != nil {
		return nil, err
	}

	items := make([]PopularItem, 0)
	err := s.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.menu_item_id AS menu_item_id, menu_items.name AS name, " +
			"SUM(order_items.quantity) AS total_quantity, " +
			"SUM(order_items.quantity * order_items.unit_price) AS revenue").
		Joins("JOIN menu_items ON menu_items.id = order_items.menu_item_id").
		Group("order_items.menu_item_id, menu_items.name").
		Order("total_quantity DESC, order_items.menu_item_id ASC").
		Limit(clampLimit(limit)).
		Scan(&items).Error
	if err != nil {
		return nil, persistenceError("load popular items", err)
	}
	for i := range items {
		items[i].Revenue = items[i].Revenue.Round(2)
	}
	return items, nil
}

// StaffPerformance ranks staff members by sales
func (s *ReportService) StaffPerformance(ctx context.Context, actor Actor, limit int) ([]StaffSales, error) {
	if err := actor.Require(models.Roles...); err != nil {
		return nil, err
	}

	rows := make([]StaffSales, 0)
	err := s.db.WithContext(ctx).
		Table("staff").
		Select("staff.id AS staff_id, staff.name AS name, staff.staff_code AS staff_code, " +
			"COUNT(orders.id) AS order_count, COALESCE(SUM(orders.total), 0) AS sales").
		Joins("JOIN orders ON orders.staff_id = staff.id").
		Group("staff.id, staff.name, staff.staff_code").
		Order("sales DESC, staff.id ASC").
		Limit(clampLimit(limit)).
		Scan(&rows).Error
	if err != nil {
		return nil, persistenceError("load staff performance", err)
	}
	for i := range rows {
		rows[i].Sales = rows[i].Sales.Round(2)
	}
	return rows, nil
}

// Summary returns headline counts and total sales
func (s *ReportService) Summary(ctx context.Context, actor Actor) (*Summary, error) {
	if err := actor.Require(models.Roles...); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	summary := &Summary{TotalSales: decimal.Zero, OrdersByStatus: make(map[string]int64, len(models.OrderStatuses))}
	for _, status := range models.OrderStatuses {
		summary.OrdersByStatus[status] = 0
	}

	var statusRows []struct {
		Status string
		Count  int64
		Sales  decimal.Decimal
	}
	if err := db.Model(&models.Order{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total), 0) AS sales").
		Group("status").
		Scan(&statusRows).Error; err != nil {
		return nil, persistenceError("summarize orders", err)
	}
	for _, row := range statusRows {
		summary.OrdersByStatus[row.Status] = row.Count
		summary.TotalOrders += row.Count
		summary.TotalSales = summary.TotalSales.Add(row.Sales)
	}
	summary.TotalSales = summary.TotalSales.Round(2)

	if err := db.Model(&models.Staff{}).Where("active = ?", true).Count(&summary.ActiveStaff).Error; err != nil {
		return nil, persistenceError("count active staff", err)
	}
	if err := db.Model(&models.MenuItem{}).Count(&summary.MenuItems).Error; err != nil {
		return nil, persistenceError("count menu items", err)
	}
	return summary, nil
}

// Dashboard bundles the summary, the full daily sales series and the top items.
// The three reads are independent and run concurrently.
func (s *ReportService) Dashboard(ctx context.Context, actor Actor) (*Dashboard, error) {
	var (
		summary *Summary
		daily   []DailySale
		popular []PopularItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		summary, err = s.Summary(gctx, actor)
		return err
	})
	g.Go(func() (err error) {
		daily, err = s.DailySales(gctx, actor, DateRange{})
		return err
	})
	g.Go(func() (err error) {
		popular, err = s.PopularItems(gctx, actor, DefaultReportLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Dashboard{Summary: summary, DailySales: daily, PopularItems: popular}, nil
}
