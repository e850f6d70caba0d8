package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/model"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/service"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/workflow"
)

type CaseHandler struct {
	svc *service.CaseService
}

func NewCaseHandler(svc *service.CaseService) *CaseHandler {
	return &CaseHandler{svc: svc}
}

type createCaseRequest struct {
	CategoryID     string `json:"category_id" binding:"required"`
	ChannelID      string `json:"channel_id" binding:"required"`
	Subcategory    string `json:"subcategory"`
	ApplicantName  string `json:"applicant_name" binding:"required"`
	ApplicantPhone string `json:"applicant_phone"`
	ApplicantEmail string `json:"applicant_email"`
	Summary        string `json:"summary" binding:"required"`
}

func (h *CaseHandler) Create(c *gin.Context) {
	var req createCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid body: "+err.Error())
		return
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		respondValidation(c, "category_id is not a valid UUID")
		return
	}
	channelID, err := uuid.Parse(req.ChannelID)
	if err != nil {
		respondValidation(c, "channel_id is not a valid UUID")
		return
	}
	cs, err := h.svc.Create(c.Request.Context(), CurrentUser(c), service.CreateCaseInput{
		CategoryID:     categoryID,
		ChannelID:      channelID,
		Subcategory:    req.Subcategory,
		ApplicantName:  req.ApplicantName,
		ApplicantPhone: req.ApplicantPhone,
		ApplicantEmail: req.ApplicantEmail,
		Summary:        req.Summary,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cs)
}

// List serves GET /cases with role-based scoping built into the service.
func (h *CaseHandler) List(c *gin.Context) {
	filter, ok := parseCaseFilter(c)
	if !ok {
		return
	}
	h.list(c, filter)
}

// ListMy serves GET /cases/my — an operator's own cases.
func (h *CaseHandler) ListMy(c *gin.Context) {
	user := CurrentUser(c)
	if user.Role != model.RoleOperator {
		c.JSON(http.StatusForbidden, errorBody{
			Error: "forbidden", Message: "this endpoint is only for OPERATOR, use /cases or /cases/assigned",
		})
		return
	}
	filter, ok := parseCaseFilter(c)
	if !ok {
		return
	}
	filter.AuthorID = &user.ID
	h.list(c, filter)
}

// ListAssigned serves GET /cases/assigned. For an EXECUTOR the service scope
// already yields "available or mine"; for ADMIN it narrows to cases assigned
// to them.
func (h *CaseHandler) ListAssigned(c *gin.Context) {
	user := CurrentUser(c)
	if user.Role == model.RoleOperator {
		c.JSON(http.StatusForbidden, errorBody{
			Error: "forbidden", Message: "this endpoint is only for EXECUTOR or ADMIN",
		})
		return
	}
	filter, ok := parseCaseFilter(c)
	if !ok {
		return
	}
	if user.Role == model.RoleAdmin {
		filter.ResponsibleID = &user.ID
	}
	h.list(c, filter)
}

func (h *CaseHandler) list(c *gin.Context, filter service.CaseFilter) {
	items, total, err := h.svc.List(c.Request.Context(), CurrentUser(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cases": items,
		"total": total,
	})
}

type caseDetailResponse struct {
	*model.Case
	StatusHistory []model.StatusHistory `json:"status_history"`
	Comments      []model.Comment       `json:"comments"`
	// statuses the viewer may move this case to, for rendering controls
	AllowedTransitions []model.CaseStatus `json:"allowed_transitions"`
}

func (h *CaseHandler) Get(c *gin.Context) {
	caseID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	user := CurrentUser(c)
	cs, err := h.svc.GetByID(c.Request.Context(), user, caseID)
	if err != nil {
		respondError(c, err)
		return
	}
	history, err := h.svc.History(c.Request.Context(), caseID)
	if err != nil {
		respondError(c, err)
		return
	}
	comments, err := h.svc.ListComments(c.Request.Context(), user, caseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, caseDetailResponse{
		Case:               cs,
		StatusHistory:      history,
		Comments:           comments,
		AllowedTransitions: workflow.Targets(user.Role, cs.Status),
	})
}

func (h *CaseHandler) Take(c *gin.Context) {
	caseID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	cs, err := h.svc.Take(c.Request.Context(), CurrentUser(c), caseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cs)
}

type assignRequest struct {
	AssignedToID *string `json:"assigned_to_id"`
}

func (h *CaseHandler) Assign(c *gin.Context) {
	caseID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid body: "+err.Error())
		return
	}
	var targetID *uuid.UUID
	if req.AssignedToID != nil {
		id, err := uuid.Parse(*req.AssignedToID)
		if err != nil {
			respondValidation(c, "assigned_to_id is not a valid UUID")
			return
		}
		targetID = &id
	}
	cs, err := h.svc.Assign(c.Request.Context(), CurrentUser(c), caseID, targetID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cs)
}

type changeStatusRequest struct {
	ToStatus string `json:"to_status" binding:"required"`
	Comment  string `json:"comment" binding:"required"`
}

func (h *CaseHandler) ChangeStatus(c *gin.Context) {
	caseID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "to_status and comment are required")
		return
	}
	cs, err := h.svc.ChangeStatus(c.Request.Context(), CurrentUser(c), caseID,
		model.CaseStatus(req.ToStatus), req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cs)
}

type addCommentRequest struct {
	Text       string `json:"text" binding:"required"`
	IsInternal bool   `json:"is_internal"`
}

func (h *CaseHandler) AddComment(c *gin.Context) {
	caseID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "text is required")
		return
	}
	comment, err := h.svc.AddComment(c.Request.Context(), CurrentUser(c), caseID, req.Text, req.IsInternal)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *CaseHandler) ListComments(c *gin.Context) {
	caseID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	comments, err := h.svc.ListComments(c.Request.Context(), CurrentUser(c), caseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments, "total": len(comments)})
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondValidation(c, name+" is not a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseCaseFilter(c *gin.Context) (service.CaseFilter, bool) {
	var f service.CaseFilter
	if v := c.Query("status"); v != "" {
		for _, s := range strings.Split(v, ",") {
			st := model.CaseStatus(strings.TrimSpace(s))
			if !model.ValidStatus(st) {
				respondValidation(c, "invalid status value "+string(st))
				return f, false
			}
			f.Statuses = append(f.Statuses, st)
		}
	}
	var ok bool
	if f.CategoryIDs, ok = queryUUIDList(c, "category_id"); !ok {
		return f, false
	}
	if f.ChannelIDs, ok = queryUUIDList(c, "channel_id"); !ok {
		return f, false
	}
	if v := c.Query("responsible_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			respondValidation(c, "responsible_id is not a valid UUID")
			return f, false
		}
		f.ResponsibleID = &id
	}
	if v := c.Query("public_id"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondValidation(c, "public_id must be an integer")
			return f, false
		}
		f.PublicID = &n
	}
	f.Subcategory = c.Query("subcategory")
	f.ApplicantName = c.Query("applicant_name")
	f.ApplicantPhone = c.Query("applicant_phone")
	f.ApplicantEmail = c.Query("applicant_email")
	for _, q := range []struct {
		name string
		dst  **time.Time
	}{
		{"date_from", &f.CreatedFrom},
		{"date_to", &f.CreatedTo},
		{"updated_date_from", &f.UpdatedFrom},
		{"updated_date_to", &f.UpdatedTo},
	} {
		if v := c.Query(q.name); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				respondValidation(c, q.name+" must be an RFC3339 timestamp")
				return f, false
			}
			*q.dst = &t
		}
	}
	f.OrderBy = c.Query("order_by")
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			f.Offset = n
		}
	}
	return f, true
}

func queryUUIDList(c *gin.Context, name string) ([]uuid.UUID, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, true
	}
	var out []uuid.UUID
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			respondValidation(c, name+" contains an invalid UUID")
			return nil, false
		}
		out = append(out, id)
	}
	return out, true
}
