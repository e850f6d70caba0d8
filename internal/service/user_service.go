package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/auth"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/errs"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/model"
	"gorm.io/gorm"
)

// UserService manages user accounts (ADMIN operations) and authenticates
// logins.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type CreateUserInput struct {
	Username string
	Email    string
	FullName string
	Password string
	Role     model.UserRole
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	if n := len(in.Username); n < 3 || n > 50 {
		return nil, fmt.Errorf("username must be between 3 and 50 characters: %w", errs.ErrValidation)
	}
	if !emailPattern.MatchString(in.Email) {
		return nil, fmt.Errorf("email is not valid: %w", errs.ErrValidation)
	}
	if in.FullName == "" {
		return nil, fmt.Errorf("full_name is required: %w", errs.ErrValidation)
	}
	if !model.ValidRole(in.Role) {
		return nil, fmt.Errorf("unknown role %q: %w", in.Role, errs.ErrValidation)
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return nil, fmt.Errorf("%s: %w", err, errs.ErrValidation)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username:     in.Username,
		Email:        strings.ToLower(in.Email),
		FullName:     in.FullName,
		PasswordHash: hash,
		Role:         in.Role,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("username or email already exists: %w", errs.ErrValidation)
		}
		return nil, err
	}
	return user, nil
}

type UpdateUserInput struct {
	Email    *string
	FullName *string
	Role     *model.UserRole
}

func (s *UserService) Update(ctx context.Context, userID uuid.UUID, in UpdateUserInput) (*model.User, error) {
	changes := make(map[string]interface{})
	if in.Email != nil {
		if !emailPattern.MatchString(*in.Email) {
			return nil, fmt.Errorf("email is not valid: %w", errs.ErrValidation)
		}
		changes["email"] = strings.ToLower(*in.Email)
	}
	if in.FullName != nil {
		if *in.FullName == "" {
			return nil, fmt.Errorf("full_name cannot be empty: %w", errs.ErrValidation)
		}
		changes["full_name"] = *in.FullName
	}
	if in.Role != nil {
		if !model.ValidRole(*in.Role) {
			return nil, fmt.Errorf("unknown role %q: %w", *in.Role, errs.ErrValidation)
		}
		changes["role"] = *in.Role
	}
	if len(changes) == 0 {
		return nil, fmt.Errorf("no changes provided: %w", errs.ErrValidation)
	}
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(changes).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("email already exists: %w", errs.ErrValidation)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, errs.ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

type UserFilter struct {
	Role     *model.UserRole
	IsActive *bool
	Search   string
	OrderBy  string
	Limit    int
	Offset   int
}

func (s *UserService) List(ctx context.Context, f UserFilter) ([]model.User, int64, error) {
	tx := s.db.WithContext(ctx).Model(&model.User{})
	if f.Role != nil {
		tx = tx.Where("role = ?", *f.Role)
	}
	if f.IsActive != nil {
		tx = tx.Where("is_active = ?", *f.IsActive)
	}
	if f.Search != "" {
		q := "%" + f.Search + "%"
		tx = tx.Where("username ILIKE ? OR email ILIKE ? OR full_name ILIKE ?", q, q, q)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	order := "username ASC"
	switch f.OrderBy {
	case "", "username":
	case "-username":
		order = "username DESC"
	case "created_at":
		order = "created_at ASC"
	case "-created_at":
		order = "created_at DESC"
	default:
		return nil, 0, fmt.Errorf("cannot order by %q: %w", f.OrderBy, errs.ErrValidation)
	}
	limit := f.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	var users []model.User
	if err := tx.Order(order).Limit(limit).Offset(f.Offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Deactivate blocks a user from logging in. When the user still holds
// non-terminal case assignments the call fails with the open-case count
// unless force is set; forcing leaves the assignments in place.
func (s *UserService) Deactivate(ctx context.Context, userID uuid.UUID, force bool) (*model.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !force {
		var open int64
		err := s.db.WithContext(ctx).Model(&model.Case{}).
			Where("responsible_id = ? AND status NOT IN ?", userID,
				[]model.CaseStatus{model.CaseStatusDone, model.CaseStatusRejected}).
			Count(&open).Error
		if err != nil {
			return nil, err
		}
		if open > 0 {
			return nil, fmt.Errorf("user has %d open case(s) assigned, pass force=true to deactivate anyway: %w",
				open, errs.ErrValidation)
		}
	}
	if err := s.db.WithContext(ctx).Model(user).Update("is_active", false).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Activate(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("is_active", true).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// ResetPassword replaces the user's password with a generated temporary one
// and returns it in plain text exactly once. Delivery to the user (email) is
// an external concern; the caller decides what to do with the value.
func (s *UserService) ResetPassword(ctx context.Context, userID uuid.UUID) (*model.User, string, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	temp, err := auth.GenerateTempPassword(12)
	if err != nil {
		return nil, "", err
	}
	hash, err := auth.HashPassword(temp)
	if err != nil {
		return nil, "", err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password_hash", hash).Error; err != nil {
		return nil, "", err
	}
	return user, temp, nil
}

// ChangePassword is the self-service path: the current password must verify,
// the new one must pass the policy and actually differ.
func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, current, newPassword string) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(current, user.PasswordHash) {
		return fmt.Errorf("current password is incorrect: %w", errs.ErrForbidden)
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%s: %w", err, errs.ErrValidation)
	}
	if auth.CheckPassword(newPassword, user.PasswordHash) {
		return fmt.Errorf("new password must differ from the current one: %w", errs.ErrValidation)
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(user).Update("password_hash", hash).Error
}

// ActiveCases returns the cases the user is currently working on, i.e.
// assigned to them in a non-terminal status. Backs the deactivation warning
// in the admin UI.
func (s *UserService) ActiveCases(ctx context.Context, userID uuid.UUID) (*model.User, []model.Case, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	var cases []model.Case
	err = s.db.WithContext(ctx).
		Where("responsible_id = ? AND status NOT IN ?", userID,
			[]model.CaseStatus{model.CaseStatusDone, model.CaseStatusRejected}).
		Order("created_at ASC").
		Find(&cases).Error
	if err != nil {
		return nil, nil, err
	}
	return user, cases, nil
}

// Authenticate checks a login. Inactive users and unknown usernames fail the
// same way as a bad password.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invalid username or password: %w", errs.ErrForbidden)
		}
		return nil, err
	}
	if !user.IsActive || !auth.CheckPassword(password, user.PasswordHash) {
		return nil, fmt.Errorf("invalid username or password: %w", errs.ErrForbidden)
	}
	return &user, nil
}
