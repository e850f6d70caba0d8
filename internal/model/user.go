package model

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleOperator UserRole = "OPERATOR"
	RoleExecutor UserRole = "EXECUTOR"
	RoleAdmin    UserRole = "ADMIN"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r UserRole) bool {
	return r == RoleOperator || r == RoleExecutor || r == RoleAdmin
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	FullName     string    `gorm:"type:varchar(200);not null" json:"full_name"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Role         UserRole  `gorm:"type:varchar(16);index;not null;default:'OPERATOR'" json:"role"`
	IsActive     bool      `gorm:"index;not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryAccess is one (executor, category) grant. A row existing is the
// grant; an executor with zero rows has access to nothing.
type CategoryAccess struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ExecutorID uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_executor_category;not null" json:"executor_id"`
	CategoryID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_executor_category;not null" json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (CategoryAccess) TableName() string { return "executor_category_access" }
