package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/errs"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/model"
	"gorm.io/gorm"
)

// Reference names: letters (incl. cyrillic), digits, spaces and light
// punctuation, 2-200 characters.
var refNamePattern = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} .,'’/()\-]{1,199}$`)

// ReferenceService manages the category and channel dictionaries.
// Deactivating an entry hides it from new cases but never cascades to
// existing case references.
type ReferenceService struct {
	db *gorm.DB
}

func NewReferenceService(db *gorm.DB) *ReferenceService {
	return &ReferenceService{db: db}
}

func validateRefName(name string) error {
	if !refNamePattern.MatchString(name) {
		return fmt.Errorf("name must be 2-200 characters of letters, digits and basic punctuation: %w", errs.ErrValidation)
	}
	return nil
}

func (s *ReferenceService) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	if err := validateRefName(name); err != nil {
		return nil, err
	}
	cat := &model.Category{Name: name, IsActive: true}
	if err := s.db.WithContext(ctx).Create(cat).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("category %q already exists: %w", name, errs.ErrValidation)
		}
		return nil, err
	}
	return cat, nil
}

func (s *ReferenceService) UpdateCategory(ctx context.Context, id uuid.UUID, name *string, isActive *bool) (*model.Category, error) {
	var cat model.Category
	if err := s.db.WithContext(ctx).First(&cat, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category %s: %w", id, errs.ErrNotFound)
		}
		return nil, err
	}
	changes := make(map[string]interface{})
	if name != nil {
		if err := validateRefName(*name); err != nil {
			return nil, err
		}
		changes["name"] = *name
	}
	if isActive != nil {
		changes["is_active"] = *isActive
	}
	if len(changes) == 0 {
		return nil, fmt.Errorf("no changes provided: %w", errs.ErrValidation)
	}
	if err := s.db.WithContext(ctx).Model(&cat).Updates(changes).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("category name already exists: %w", errs.ErrValidation)
		}
		return nil, err
	}
	return &cat, nil
}

func (s *ReferenceService) ListCategories(ctx context.Context, includeInactive bool) ([]model.Category, error) {
	tx := s.db.WithContext(ctx).Model(&model.Category{})
	if !includeInactive {
		tx = tx.Where("is_active = true")
	}
	var items []model.Category
	if err := tx.Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *ReferenceService) CreateChannel(ctx context.Context, name string) (*model.Channel, error) {
	if err := validateRefName(name); err != nil {
		return nil, err
	}
	ch := &model.Channel{Name: name, IsActive: true}
	if err := s.db.WithContext(ctx).Create(ch).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("channel %q already exists: %w", name, errs.ErrValidation)
		}
		return nil, err
	}
	return ch, nil
}

func (s *ReferenceService) UpdateChannel(ctx context.Context, id uuid.UUID, name *string, isActive *bool) (*model.Channel, error) {
	var ch model.Channel
	if err := s.db.WithContext(ctx).First(&ch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("channel %s: %w", id, errs.ErrNotFound)
		}
		return nil, err
	}
	changes := make(map[string]interface{})
	if name != nil {
		if err := validateRefName(*name); err != nil {
			return nil, err
		}
		changes["name"] = *name
	}
	if isActive != nil {
		changes["is_active"] = *isActive
	}
	if len(changes) == 0 {
		return nil, fmt.Errorf("no changes provided: %w", errs.ErrValidation)
	}
	if err := s.db.WithContext(ctx).Model(&ch).Updates(changes).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("channel name already exists: %w", errs.ErrValidation)
		}
		return nil, err
	}
	return &ch, nil
}

func (s *ReferenceService) ListChannels(ctx context.Context, includeInactive bool) ([]model.Channel, error) {
	tx := s.db.WithContext(ctx).Model(&model.Channel{})
	if !includeInactive {
		tx = tx.Where("is_active = true")
	}
	var items []model.Channel
	if err := tx.Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
