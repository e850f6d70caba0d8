package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/errs"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/model"
	"gorm.io/gorm"
)

const maxListLimit = 100

// CaseFilter narrows a case listing. All set fields combine with AND;
// multi-value fields (Statuses, CategoryIDs, ChannelIDs) are OR within the
// field. Applicant fields match case-insensitive substrings.
type CaseFilter struct {
	Statuses       []model.CaseStatus
	CategoryIDs    []uuid.UUID
	ChannelIDs     []uuid.UUID
	AuthorID       *uuid.UUID
	ResponsibleID  *uuid.UUID
	PublicID       *int64
	Subcategory    string
	ApplicantName  string
	ApplicantPhone string
	ApplicantEmail string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	UpdatedFrom    *time.Time
	UpdatedTo      *time.Time

	OrderBy string // created_at, updated_at, public_id, status; "-" prefix for descending
	Limit   int
	Offset  int
}

var orderableColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"public_id":  true,
	"status":     true,
}

// List returns cases visible to the viewer, filtered and paginated.
// Visibility: OPERATOR — own cases; EXECUTOR — cases in granted categories
// that are NEW or assigned to them (zero grants means zero cases); ADMIN —
// everything.
func (s *CaseService) List(ctx context.Context, viewer *model.User, f CaseFilter) ([]model.Case, int64, error) {
	tx := s.db.WithContext(ctx).Model(&model.Case{})

	switch viewer.Role {
	case model.RoleOperator:
		tx = tx.Where("author_id = ?", viewer.ID)
	case model.RoleExecutor:
		var grantIDs []uuid.UUID
		if err := s.db.WithContext(ctx).Model(&model.CategoryAccess{}).
			Where("executor_id = ?", viewer.ID).
			Pluck("category_id", &grantIDs).Error; err != nil {
			return nil, 0, err
		}
		if len(grantIDs) == 0 {
			// "no access", not "all access"
			return []model.Case{}, 0, nil
		}
		tx = tx.Where("category_id IN ?", grantIDs).
			Where("status = ? OR responsible_id = ?", model.CaseStatusNew, viewer.ID)
	case model.RoleAdmin:
		// unscoped
	default:
		return nil, 0, fmt.Errorf("unknown role %q: %w", viewer.Role, errs.ErrForbidden)
	}

	tx = applyCaseFilter(tx, f)

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, err := parseOrderBy(f.OrderBy)
	if err != nil {
		return nil, 0, err
	}
	limit := f.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	var items []model.Case
	err = tx.Preload("Category").Preload("Channel").Preload("Responsible").
		Order(order).Limit(limit).Offset(f.Offset).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func applyCaseFilter(tx *gorm.DB, f CaseFilter) *gorm.DB {
	if len(f.Statuses) > 0 {
		tx = tx.Where("status IN ?", f.Statuses)
	}
	if len(f.CategoryIDs) > 0 {
		tx = tx.Where("category_id IN ?", f.CategoryIDs)
	}
	if len(f.ChannelIDs) > 0 {
		tx = tx.Where("channel_id IN ?", f.ChannelIDs)
	}
	if f.AuthorID != nil {
		tx = tx.Where("author_id = ?", *f.AuthorID)
	}
	if f.ResponsibleID != nil {
		tx = tx.Where("responsible_id = ?", *f.ResponsibleID)
	}
	if f.PublicID != nil {
		tx = tx.Where("public_id = ?", *f.PublicID)
	}
	if f.Subcategory != "" {
		tx = tx.Where("subcategory = ?", f.Subcategory)
	}
	if f.ApplicantName != "" {
		tx = tx.Where("applicant_name ILIKE ?", "%"+f.ApplicantName+"%")
	}
	if f.ApplicantPhone != "" {
		tx = tx.Where("applicant_phone LIKE ?", "%"+f.ApplicantPhone+"%")
	}
	if f.ApplicantEmail != "" {
		tx = tx.Where("applicant_email ILIKE ?", "%"+f.ApplicantEmail+"%")
	}
	if f.CreatedFrom != nil {
		tx = tx.Where("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		tx = tx.Where("created_at <= ?", *f.CreatedTo)
	}
	if f.UpdatedFrom != nil {
		tx = tx.Where("updated_at >= ?", *f.UpdatedFrom)
	}
	if f.UpdatedTo != nil {
		tx = tx.Where("updated_at <= ?", *f.UpdatedTo)
	}
	return tx
}

func parseOrderBy(orderBy string) (string, error) {
	if orderBy == "" {
		return "created_at DESC", nil
	}
	desc := strings.HasPrefix(orderBy, "-")
	col := strings.TrimPrefix(orderBy, "-")
	if !orderableColumns[col] {
		return "", fmt.Errorf("cannot order by %q: %w", col, errs.ErrValidation)
	}
	if desc {
		return col + " DESC", nil
	}
	return col + " ASC", nil
}
