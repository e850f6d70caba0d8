package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/errs"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/model"
	"gorm.io/gorm"
)

// CategoryAccessService maintains per-executor category grants and answers
// the visibility questions the case service and listing endpoints depend on.
// ADMIN and OPERATOR are never scoped by grants; this service is consulted
// for EXECUTOR only.
type CategoryAccessService struct {
	db *gorm.DB
}

func NewCategoryAccessService(db *gorm.DB) *CategoryAccessService {
	return &CategoryAccessService{db: db}
}

// ReplaceGrants replaces the executor's full grant set with categoryIDs.
// Full-replace semantics: the previous set is discarded, not merged. The
// replace happens in one transaction, so concurrent admin edits serialize to
// last-write-wins with no interleaved partial state.
func (s *CategoryAccessService) ReplaceGrants(ctx context.Context, executorID uuid.UUID, categoryIDs []uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, "id = ?", executorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %s: %w", executorID, errs.ErrNotFound)
			}
			return err
		}
		if user.Role != model.RoleExecutor {
			return fmt.Errorf("category access can only be granted to EXECUTOR users: %w", errs.ErrValidation)
		}
		if len(categoryIDs) > 0 {
			var count int64
			if err := tx.Model(&model.Category{}).Where("id IN ?", categoryIDs).Count(&count).Error; err != nil {
				return err
			}
			if count != int64(len(dedupe(categoryIDs))) {
				return fmt.Errorf("one or more categories do not exist: %w", errs.ErrNotFound)
			}
		}
		if err := tx.Where("executor_id = ?", executorID).Delete(&model.CategoryAccess{}).Error; err != nil {
			return err
		}
		for _, catID := range dedupe(categoryIDs) {
			grant := model.CategoryAccess{ExecutorID: executorID, CategoryID: catID}
			if err := tx.Create(&grant).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// HasAccess reports whether a grant row exists for (executorID, categoryID).
func (s *CategoryAccessService) HasAccess(ctx context.Context, executorID, categoryID uuid.UUID) (bool, error) {
	return hasGrant(s.db.WithContext(ctx), executorID, categoryID)
}

// AccessibleCategories returns the categories granted to the executor. An
// empty result is a meaningful "no access" state, distinct from the unscoped
// access ADMIN and OPERATOR have.
func (s *CategoryAccessService) AccessibleCategories(ctx context.Context, executorID uuid.UUID) ([]model.Category, error) {
	var categories []model.Category
	err := s.db.WithContext(ctx).
		Joins("JOIN executor_category_access eca ON eca.category_id = categories.id").
		Where("eca.executor_id = ?", executorID).
		Order("categories.name").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// AccessibleCategoryIDs returns just the granted category ids, used to scope
// case listings.
func (s *CategoryAccessService) AccessibleCategoryIDs(ctx context.Context, executorID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&model.CategoryAccess{}).
		Where("executor_id = ?", executorID).
		Pluck("category_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func hasGrant(tx *gorm.DB, executorID, categoryID uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&model.CategoryAccess{}).
		Where("executor_id = ? AND category_id = ?", executorID, categoryID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
