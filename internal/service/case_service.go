package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/errs"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/kafka"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/model"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/searchindex"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/workflow"
	"gorm.io/gorm"
)

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()\-]{5,48}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

const maxSummaryLen = 5000

// CaseService owns the case lifecycle: creation, role-scoped listing, and the
// three state-changing commands (take, assign, change status). Every mutation
// runs in a single transaction and appends exactly one status-history row.
type CaseService struct {
	db       *gorm.DB
	producer kafka.CaseEventProducer
	search   *searchindex.Client
}

func NewCaseService(db *gorm.DB, producer kafka.CaseEventProducer, search *searchindex.Client) *CaseService {
	return &CaseService{db: db, producer: producer, search: search}
}

type CreateCaseInput struct {
	CategoryID     uuid.UUID
	ChannelID      uuid.UUID
	Subcategory    string
	ApplicantName  string
	ApplicantPhone string
	ApplicantEmail string
	Summary        string
}

func (in *CreateCaseInput) validate() error {
	if in.ApplicantName == "" {
		return fmt.Errorf("applicant_name is required: %w", errs.ErrValidation)
	}
	if n := len([]rune(in.Summary)); n < 1 || n > maxSummaryLen {
		return fmt.Errorf("summary must be between 1 and %d characters: %w", maxSummaryLen, errs.ErrValidation)
	}
	if in.ApplicantPhone != "" && !phonePattern.MatchString(in.ApplicantPhone) {
		return fmt.Errorf("applicant_phone is not a valid phone number: %w", errs.ErrValidation)
	}
	if in.ApplicantEmail != "" && !emailPattern.MatchString(in.ApplicantEmail) {
		return fmt.Errorf("applicant_email is not a valid email: %w", errs.ErrValidation)
	}
	return nil
}

// Create registers a new case in status NEW and writes the initial history
// row (old status absent, no comment).
func (s *CaseService) Create(ctx context.Context, author *model.User, in CreateCaseInput) (*model.Case, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	cs := &model.Case{
		CategoryID:     in.CategoryID,
		ChannelID:      in.ChannelID,
		Subcategory:    in.Subcategory,
		ApplicantName:  in.ApplicantName,
		ApplicantPhone: in.ApplicantPhone,
		ApplicantEmail: in.ApplicantEmail,
		Summary:        in.Summary,
		Status:         model.CaseStatusNew,
		AuthorID:       author.ID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActiveRef(tx, &model.Category{}, in.CategoryID, "category"); err != nil {
			return err
		}
		if err := requireActiveRef(tx, &model.Channel{}, in.ChannelID, "channel"); err != nil {
			return err
		}
		if err := tx.Create(cs).Error; err != nil {
			return err
		}
		history := model.StatusHistory{
			CaseID:      cs.ID,
			OldStatus:   nil,
			NewStatus:   model.CaseStatusNew,
			ChangedByID: author.ID,
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return nil, err
	}
	s.emitEvent("case.created", cs)
	s.search.IndexCaseAsync(cs)
	return cs, nil
}

// Take is an executor's self-service claim of an unassigned NEW case. At most
// one of N concurrent callers wins; the rest get ErrAlreadyTaken. The winner
// becomes responsible and the case moves to IN_PROGRESS.
func (s *CaseService) Take(ctx context.Context, actor *model.User, caseID uuid.UUID) (*model.Case, error) {
	if !workflow.Authorize(actor.Role, workflow.ActionTakeCase) {
		return nil, fmt.Errorf("only EXECUTOR can take cases: %w", errs.ErrForbidden)
	}
	var out model.Case
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cs, err := findCase(tx, caseID)
		if err != nil {
			return err
		}
		ok, err := hasGrant(tx, actor.ID, cs.CategoryID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("category %s: %w", cs.CategoryID, errs.ErrForbiddenCategory)
		}
		// Conditional claim: the WHERE clause is the arbiter of the race.
		res := tx.Model(&model.Case{}).
			Where("id = ? AND status = ? AND responsible_id IS NULL", caseID, model.CaseStatusNew).
			Updates(map[string]interface{}{
				"status":         model.CaseStatusInProgress,
				"responsible_id": actor.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrAlreadyTaken
		}
		if err := appendHistory(tx, caseID, &cs.Status, model.CaseStatusInProgress, actor.ID, ""); err != nil {
			return err
		}
		return tx.First(&out, "id = ?", caseID).Error
	})
	if err != nil {
		return nil, err
	}
	s.emitEvent("case.taken", &out)
	s.search.IndexCaseAsync(&out)
	return &out, nil
}

// Assign binds (or, with a nil target, unbinds) the responsible executor,
// ADMIN only. Assignment and status move in lockstep: a target means
// IN_PROGRESS, no target means NEW. Terminal cases must be reopened through
// a status change before they can be reassigned.
func (s *CaseService) Assign(ctx context.Context, actor *model.User, caseID uuid.UUID, targetID *uuid.UUID) (*model.Case, error) {
	if !workflow.Authorize(actor.Role, workflow.ActionAssignCase) {
		return nil, fmt.Errorf("only ADMIN can assign cases: %w", errs.ErrForbidden)
	}
	var out model.Case
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cs, err := findCase(tx, caseID)
		if err != nil {
			return err
		}
		if workflow.IsTerminal(cs.Status) {
			return fmt.Errorf("case is %s, reopen it before reassigning: %w", cs.Status, errs.ErrInvalidTransition)
		}
		newStatus := model.CaseStatusNew
		if targetID != nil {
			var target model.User
			if err := tx.First(&target, "id = ?", *targetID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("user %s: %w", *targetID, errs.ErrNotFound)
				}
				return err
			}
			if !target.IsActive {
				return fmt.Errorf("user %s is inactive: %w", target.Username, errs.ErrNotFound)
			}
			if target.Role != model.RoleExecutor && target.Role != model.RoleAdmin {
				return fmt.Errorf("assigned user must be EXECUTOR or ADMIN: %w", errs.ErrValidation)
			}
			newStatus = model.CaseStatusInProgress
		}
		res := tx.Model(&model.Case{}).
			Where("id = ? AND status = ?", caseID, cs.Status).
			Updates(map[string]interface{}{
				"status":         newStatus,
				"responsible_id": targetID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("case changed concurrently: %w", errs.ErrInvalidTransition)
		}
		if err := appendHistory(tx, caseID, &cs.Status, newStatus, actor.ID, ""); err != nil {
			return err
		}
		return tx.First(&out, "id = ?", caseID).Error
	})
	if err != nil {
		return nil, err
	}
	s.emitEvent("case.assigned", &out)
	s.search.IndexCaseAsync(&out)
	return &out, nil
}

// ChangeStatus moves a case through the workflow. The transition must be in
// the acting role's table, the comment is mandatory, and an EXECUTOR must
// hold a grant for the case's category. Nothing is applied on failure.
//
// Assignment stays coupled to status: moving to NEW clears the responsible,
// and an ADMIN moving an unassigned case out of NEW becomes responsible.
func (s *CaseService) ChangeStatus(ctx context.Context, actor *model.User, caseID uuid.UUID, to model.CaseStatus, comment string) (*model.Case, error) {
	if !workflow.Authorize(actor.Role, workflow.ActionChangeStatus) {
		return nil, fmt.Errorf("role %s cannot change case status: %w", actor.Role, errs.ErrForbidden)
	}
	if !model.ValidStatus(to) {
		return nil, fmt.Errorf("unknown status %q: %w", to, errs.ErrValidation)
	}
	if !workflow.ValidStatusComment(comment) {
		return nil, fmt.Errorf("comment must be between %d and %d characters: %w",
			workflow.MinStatusComment, workflow.MaxStatusComment, errs.ErrValidation)
	}
	var out model.Case
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cs, err := findCase(tx, caseID)
		if err != nil {
			return err
		}
		if actor.Role == model.RoleExecutor {
			ok, err := hasGrant(tx, actor.ID, cs.CategoryID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("category %s: %w", cs.CategoryID, errs.ErrForbiddenCategory)
			}
		}
		if !workflow.Can(actor.Role, cs.Status, to) {
			return fmt.Errorf("%s -> %s is not allowed for %s: %w", cs.Status, to, actor.Role, errs.ErrInvalidTransition)
		}
		changes := map[string]interface{}{"status": to}
		if to == model.CaseStatusNew {
			changes["responsible_id"] = nil
		} else if cs.ResponsibleID == nil {
			changes["responsible_id"] = actor.ID
		}
		// Guarded on the observed status: a concurrent mover wins, we fail.
		res := tx.Model(&model.Case{}).
			Where("id = ? AND status = ?", caseID, cs.Status).
			Updates(changes)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("case changed concurrently: %w", errs.ErrInvalidTransition)
		}
		if err := appendHistory(tx, caseID, &cs.Status, to, actor.ID, comment); err != nil {
			return err
		}
		return tx.First(&out, "id = ?", caseID).Error
	})
	if err != nil {
		return nil, err
	}
	s.emitEvent("case.status_changed", &out)
	s.search.IndexCaseAsync(&out)
	return &out, nil
}

// GetByID loads a case with its nested references, enforcing visibility:
// OPERATOR sees only own cases, EXECUTOR needs a category grant, ADMIN sees
// everything.
func (s *CaseService) GetByID(ctx context.Context, viewer *model.User, caseID uuid.UUID) (*model.Case, error) {
	var cs model.Case
	err := s.db.WithContext(ctx).
		Preload("Category").Preload("Channel").Preload("Author").Preload("Responsible").
		First(&cs, "id = ?", caseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("case %s: %w", caseID, errs.ErrNotFound)
		}
		return nil, err
	}
	switch viewer.Role {
	case model.RoleOperator:
		if cs.AuthorID != viewer.ID {
			return nil, fmt.Errorf("not the author of this case: %w", errs.ErrForbidden)
		}
	case model.RoleExecutor:
		ok, err := hasGrant(s.db.WithContext(ctx), viewer.ID, cs.CategoryID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("category %s: %w", cs.CategoryID, errs.ErrForbiddenCategory)
		}
	}
	return &cs, nil
}

// History returns the append-only status audit trail, oldest first.
func (s *CaseService) History(ctx context.Context, caseID uuid.UUID) ([]model.StatusHistory, error) {
	var items []model.StatusHistory
	err := s.db.WithContext(ctx).
		Preload("ChangedBy").
		Where("case_id = ?", caseID).
		Order("changed_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func findCase(tx *gorm.DB, caseID uuid.UUID) (*model.Case, error) {
	var cs model.Case
	if err := tx.First(&cs, "id = ?", caseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("case %s: %w", caseID, errs.ErrNotFound)
		}
		return nil, err
	}
	return &cs, nil
}

func appendHistory(tx *gorm.DB, caseID uuid.UUID, oldStatus *model.CaseStatus, newStatus model.CaseStatus, actorID uuid.UUID, comment string) error {
	h := model.StatusHistory{
		CaseID:      caseID,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
		ChangedByID: actorID,
		Comment:     comment,
	}
	return tx.Create(&h).Error
}

func requireActiveRef(tx *gorm.DB, ref interface{}, id uuid.UUID, name string) error {
	var count int64
	if err := tx.Model(ref).Where("id = ? AND is_active = true", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%s %s missing or inactive: %w", name, id, errs.ErrNotFound)
	}
	return nil
}

// emitEvent publishes fire-and-forget: the event should go out even when the
// request context is already cancelled, but never blocks the response.
func (s *CaseService) emitEvent(event string, cs *model.Case) {
	if s.producer == nil {
		return
	}
	payload := map[string]interface{}{
		"case_id":     cs.ID.String(),
		"public_id":   cs.PublicID,
		"category_id": cs.CategoryID.String(),
		"status":      string(cs.Status),
		"author_id":   cs.AuthorID.String(),
	}
	if cs.ResponsibleID != nil {
		payload["responsible_id"] = cs.ResponsibleID.String()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	go func() {
		defer cancel()
		s.producer.ProduceCaseEvent(ctx, event, payload)
	}()
}
