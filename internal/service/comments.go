package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/errs"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/model"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/workflow"
)

const (
	minCommentLen = 5
	maxCommentLen = 5000
)

// AddComment attaches a comment to a case. Internal comments may only be
// written by EXECUTOR or ADMIN; everyone must be allowed to see the case in
// the first place.
func (s *CaseService) AddComment(ctx context.Context, author *model.User, caseID uuid.UUID, text string, isInternal bool) (*model.Comment, error) {
	if n := len([]rune(text)); n < minCommentLen || n > maxCommentLen {
		return nil, fmt.Errorf("comment text must be between %d and %d characters: %w",
			minCommentLen, maxCommentLen, errs.ErrValidation)
	}
	if isInternal && !workflow.Authorize(author.Role, workflow.ActionInternalComment) {
		return nil, fmt.Errorf("role %s cannot create internal comments: %w", author.Role, errs.ErrForbidden)
	}
	if _, err := s.GetByID(ctx, author, caseID); err != nil {
		return nil, err
	}
	comment := &model.Comment{
		CaseID:     caseID,
		AuthorID:   author.ID,
		Text:       text,
		IsInternal: isInternal,
	}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns a case's comments in creation order. Internal comments
// are included only for EXECUTOR and ADMIN viewers.
func (s *CaseService) ListComments(ctx context.Context, viewer *model.User, caseID uuid.UUID) ([]model.Comment, error) {
	if _, err := s.GetByID(ctx, viewer, caseID); err != nil {
		return nil, err
	}
	tx := s.db.WithContext(ctx).Preload("Author").Where("case_id = ?", caseID)
	if !workflow.Authorize(viewer.Role, workflow.ActionInternalComment) {
		tx = tx.Where("is_internal = false")
	}
	var comments []model.Comment
	if err := tx.Order("created_at ASC").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}
