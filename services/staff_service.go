package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/kendall-kelly/cafe-manager-api/models"
	"gorm.io/gorm"
)

const staffCodeAttempts = 20

// StaffInput holds the fields of a new staff record
type StaffInput struct {
	StaffCode string // generated when blank
	Name      string
	Position  string
	Contact   string
	Active    *bool // nil means active
}

// StaffUpdate holds optional changes; nil fields keep their stored value
type StaffUpdate struct {
	StaffCode *string
	Name      *string
	Position  *string
	Contact   *string
	Active    *bool
}

// StaffService manages staff records
type StaffService struct {
	db *gorm.DB
	// codeFn produces candidate staff codes
	codeFn func() string
}

// NewStaffService creates a StaffService
func NewStaffService(db *gorm.DB) *StaffService {
	return &StaffService{db: db, codeFn: randomStaffCode}
}

func randomStaffCode() string {
	return fmt.Sprintf("%d", 100+rand.IntN(900))
}

func validateStaffName(name string) error {
	if name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if utf8.RuneCountInString(name) > 100 {
		return &ValidationError{Field: "name", Message: "name must be at most 100 characters"}
	}
	return nil
}

func validatePosition(position string) error {
	if !models.Position(position).IsValid() {
		names := make([]string, len(models.Positions))
		for i, p := range models.Positions {
			names[i] = string(p)
		}
		return &ValidationError{Field: "position", Message: "position must be one of " + strings.Join(names, ", ")}
	}
	return nil
}

func validateStaffCode(code string) error {
	if code == "" || len(code) > 10 {
		return &ValidationError{Field: "staff_code", Message: "staff code must be 1 to 10 characters"}
	}
	return nil
}

func staffCodeTaken(code string) error {
	return &ConflictError{Code: "STAFF_CODE_EXISTS", Message: fmt.Sprintf("Staff code %s is already in use", code)}
}

// Create adds a staff record, generating a unique code when none is given. Managers and admins only.
func (s *StaffService) Create(ctx context.Context, actor Actor, in StaffInput) (*models.Staff, error) {
	if err := actor.Require(models.RoleManager, models.RoleAdmin); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if err := validateStaffName(name); err != nil {
		return nil, err
	}
	if err := validatePosition(in.Position); err != nil {
		return nil, err
	}
	code := strings.TrimSpace(in.StaffCode)
	explicit := code != ""
	if explicit {
		if err := validateStaffCode(code); err != nil {
			return nil, err
		}
	}

	attempts := staffCodeAttempts
	if explicit {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		if !explicit {
			code = s.codeFn()
		}
		staff := models.Staff{
			StaffCode: code,
			Name:      name,
			Position:  models.Position(in.Position),
			Contact:   strings.TrimSpace(in.Contact),
			Active:    in.Active == nil || *in.Active,
		}
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&staff).Error; err != nil {
				return err
			}
			return recordAudit(tx, actor, models.ActionAddStaff,
				fmt.Sprintf("Added staff %s (%s)", staff.Name, staff.StaffCode),
				map[string]interface{}{"staff_id": staff.ID, "staff_code": staff.StaffCode})
		})
		if err == nil {
			return &staff, nil
		}
		if !isDuplicateKey(err) {
			return nil, passthrough("create staff", err)
		}
		if explicit {
			return nil, staffCodeTaken(code)
		}
	}
	return nil, &ConflictError{Code: "STAFF_CODE_EXHAUSTED", Message: "Could not generate a unique staff code, try again or supply one"}
}

// Update applies the non-nil fields of upd. Managers and admins only.
func (s *StaffService) Update(ctx context.Context, actor Actor, id uint, upd StaffUpdate) (*models.Staff, error) {
	if err := actor.Require(models.RoleManager, models.RoleAdmin); err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if upd.StaffCode != nil {
		code := strings.TrimSpace(*upd.StaffCode)
		if err := validateStaffCode(code); err != nil {
			return nil, err
		}
		changes["staff_code"] = code
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if err := validateStaffName(name); err != nil {
			return nil, err
		}
		changes["name"] = name
	}
	if upd.Position != nil {
		if err := validatePosition(*upd.Position); err != nil {
			return nil, err
		}
		changes["position"] = *upd.Position
	}
	if upd.Contact != nil {
		changes["contact"] = strings.TrimSpace(*upd.Contact)
	}
	if upd.Active != nil {
		changes["active"] = *upd.Active
	}

	var staff models.Staff
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&staff, id).Error; err != nil {
			if isNotFound(err) {
				return &NotFoundError{Resource: "staff", ID: id}
			}
			return persistenceError("load staff", err)
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(&staff).Updates(changes).Error; err != nil {
			if code, ok := changes["staff_code"].(string); ok && isDuplicateKey(err) {
				return staffCodeTaken(code)
			}
			return persistenceError("update staff", err)
		}
		if err := tx.First(&staff, id).Error; err != nil {
			return persistenceError("reload staff", err)
		}
		return recordAudit(tx, actor, models.ActionUpdateStaff,
			fmt.Sprintf("Updated staff %s (%s)", staff.Name, staff.StaffCode),
			map[string]interface{}{"staff_id": id, "fields": changedFields(changes)})
	})
	if err != nil {
		return nil, passthrough("update staff", err)
	}
	return &staff, nil
}

// Delete removes a staff record that no order references. Managers and admins only.
func (s *StaffService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := actor.Require(models.RoleManager, models.RoleAdmin); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var staff models.Staff
		if err := tx.First(&staff, id).Error; err != nil {
			if isNotFound(err) {
				return &NotFoundError{Resource: "staff", ID: id}
			}
			return persistenceError("load staff", err)
		}
		var orders int64
		if err := tx.Model(&models.Order{}).Where("staff_id = ?", id).Count(&orders).Error; err != nil {
			return persistenceError("count staff orders", err)
		}
		if orders > 0 {
			return staffHasOrders(staff.Name)
		}
		if err := tx.Delete(&staff).Error; err != nil {
			if isForeignKeyViolation(err) {
				return staffHasOrders(staff.Name)
			}
			return persistenceError("delete staff", err)
		}
		return recordAudit(tx, actor, models.ActionDeleteStaff,
			fmt.Sprintf("Deleted staff %s (%s)", staff.Name, staff.StaffCode),
			map[string]interface{}{"staff_id": id})
	})
	if err != nil {
		return passthrough("delete staff", err)
	}
	return nil
}

func staffHasOrders(name string) error {
	return &ConflictError{
		Code:    "STAFF_HAS_ORDERS",
		Message: fmt.Sprintf("Staff member %s has recorded orders; deactivate them instead", name),
	}
}

// Get returns one staff record. Managers and admins only.
func (s *StaffService) Get(ctx context.Context, actor Actor, id uint) (*models.Staff, error) {
	if err := actor.Require(models.RoleManager, models.RoleAdmin); err != nil {
		return nil, err
	}
	var staff models.Staff
	if err := s.db.WithContext(ctx).First(&staff, id).Error; err != nil {
		if isNotFound(err) {
			return nil, &NotFoundError{Resource: "staff", ID: id}
		}
		return nil, persistenceError("load staff", err)
	}
	return &staff, nil
}

// List returns staff ordered by name. Managers and admins only.
func (s *StaffService) List(ctx context.Context, actor Actor, activeOnly bool) ([]models.Staff, error) {
	if err := actor.Require(models.RoleManager, models.RoleAdmin); err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Model(&models.Staff{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	staff := make([]models.Staff, 0)
	if err := query.Order("name ASC, id ASC").Find(&staff).Error; err != nil {
		return nil, persistenceError("list staff", err)
	}
	return staff, nil
}
