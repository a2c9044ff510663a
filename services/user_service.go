package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/kendall-kelly/cafe-manager-api/models"
	"gorm.io/gorm"
)

const minPasswordLength = 6

// CreateUserInput holds the fields of a new account
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Role     string // defaults to staff
}

// UserService manages login accounts. Every operation is admin only.
type UserService struct {
	db     *gorm.DB
	hasher PasswordHasher
}

// NewUserService creates a UserService
func NewUserService(db *gorm.DB, hasher PasswordHasher) *UserService {
	return &UserService{db: db, hasher: hasher}
}

func validateNewUser(in *CreateUserInput) error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Role == "" {
		in.Role = models.RoleStaff
	}

	if len(in.Username) < 3 || len(in.Username) > 64 {
		return &ValidationError{Field: "username", Message: "username must be 3 to 64 characters"}
	}
	if _, err := mail.ParseAddress(in.Email); err != nil || strings.ContainsAny(in.Email, "<> ") {
		return &ValidationError{Field: "email", Message: "email must be a valid address"}
	}
	if len(in.Password) < minPasswordLength {
		return &ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}
	if !models.IsValidRole(in.Role) {
		return &ValidationError{Field: "role", Message: "role must be one of " + strings.Join(models.Roles, ", ")}
	}
	return nil
}

// Create adds an account with a hashed password
func (s *UserService) Create(ctx context.Context, actor Actor, in CreateUserInput) (*models.User, error) {
	if err := actor.Require(models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validateNewUser(&in); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := models.User{Username: in.Username, Email: in.Email, PasswordHash: hash, Role: in.Role}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
			return persistenceError("check username", err)
		}
		if count > 0 {
			return &ConflictError{Code: "USER_EXISTS", Message: fmt.Sprintf("Username %s is already taken", in.Username)}
		}
		if err := tx.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
			return persistenceError("check email", err)
		}
		if count > 0 {
			return &ConflictError{Code: "EMAIL_EXISTS", Message: fmt.Sprintf("Email %s is already registered", in.Email)}
		}

		if err := tx.Create(&user).Error; err != nil {
			if isDuplicateKey(err) {
				return &ConflictError{Code: "USER_EXISTS", Message: "A user with this username or email already exists"}
			}
			return persistenceError("create user", err)
		}
		return recordAudit(tx, actor, models.ActionCreateUser,
			fmt.Sprintf("Created user %s with role %s", user.Username, user.Role),
			map[string]interface{}{"user_id": user.ID, "role": user.Role})
	})
	if err != nil {
		return nil, passthrough("create user", err)
	}
	return &user, nil
}

// UpdateRole changes another account's role
func (s *UserService) UpdateRole(ctx context.Context, actor Actor, id uint, role string) (*models.User, error) {
	if err := actor.Require(models.RoleAdmin); err != nil {
		return nil, err
	}
	if actor.UserID == id {
		return nil, &AuthorizationError{Message: "Cannot change your own role"}
	}
	if !models.IsValidRole(role) {
		return nil, &ValidationError{Field: "role", Message: "role must be one of " + strings.Join(models.Roles, ", ")}
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			if isNotFound(err) {
				return &NotFoundError{Resource: "user", ID: id}
			}
			return persistenceError("load user", err)
		}
		previous := user.Role
		if err := tx.Model(&user).Update("role", role).Error; err != nil {
			return persistenceError("update user role", err)
		}
		return recordAudit(tx, actor, models.ActionUpdateUserRole,
			fmt.Sprintf("User %s: %s → %s", user.Username, previous, role),
			map[string]interface{}{"user_id": id, "from": previous, "to": role})
	})
	if err != nil {
		return nil, passthrough("update user role", err)
	}
	return &user, nil
}

// Delete removes another account. Audit entries keep the username.
func (s *UserService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := actor.Require(models.RoleAdmin); err != nil {
		return err
	}
	if actor.UserID == id {
		return &AuthorizationError{Message: "Cannot delete your own account"}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			if isNotFound(err) {
				return &NotFoundError{Resource: "user", ID: id}
			}
			return persistenceError("load user", err)
		}
		// detach history explicitly; not every store enforces ON DELETE SET NULL
		if err := tx.Model(&models.AuditLog{}).Where("user_id = ?", id).Update("user_id", nil).Error; err != nil {
			return persistenceError("detach audit logs", err)
		}
		if err := tx.Delete(&user).Error; err != nil {
			return persistenceError("delete user", err)
		}
		return recordAudit(tx, actor, models.ActionDeleteUser,
			fmt.Sprintf("Deleted user %s", user.Username),
			map[string]interface{}{"user_id": id})
	})
	if err != nil {
		return passthrough("delete user", err)
	}
	return nil
}

// Get returns one account
func (s *UserService) Get(ctx context.Context, actor Actor, id uint) (*models.User, error) {
	if err := actor.Require(models.RoleAdmin); err != nil {
		return nil, err
	}
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if isNotFound(err) {
			return nil, &NotFoundError{Resource: "user", ID: id}
		}
		return nil, persistenceError("load user", err)
	}
	return &user, nil
}

// List returns every account ordered by username
func (s *UserService) List(ctx context.Context, actor Actor) ([]models.User, error) {
	if err := actor.Require(models.RoleAdmin); err != nil {
		return nil, err
	}
	users := make([]models.User, 0)
	if err := s.db.WithContext(ctx).Order("username ASC").Find(&users).Error; err != nil {
		return nil, persistenceError("list users", err)
	}
	return users, nil
}
