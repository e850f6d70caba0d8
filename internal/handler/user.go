package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/model"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/service"
)

type UserHandler struct {
	users  *service.UserService
	access *service.CategoryAccessService
}

func NewUserHandler(users *service.UserService, access *service.CategoryAccessService) *UserHandler {
	return &UserHandler{users: users, access: access}
}

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid body: "+err.Error())
		return
	}
	user, err := h.users.Create(c.Request.Context(), service.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
		Role:     model.UserRole(req.Role),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type updateUserRequest struct {
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	Role     *string `json:"role"`
}

func (h *UserHandler) Update(c *gin.Context) {
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid body: "+err.Error())
		return
	}
	in := service.UpdateUserInput{Email: req.Email, FullName: req.FullName}
	if req.Role != nil {
		role := model.UserRole(*req.Role)
		in.Role = &role
	}
	user, err := h.users.Update(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Get(c *gin.Context) {
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) List(c *gin.Context) {
	var f service.UserFilter
	if v := c.Query("role"); v != "" {
		role := model.UserRole(v)
		if !model.ValidRole(role) {
			respondValidation(c, "unknown role "+v)
			return
		}
		f.Role = &role
	}
	if v := c.Query("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			respondValidation(c, "is_active must be true or false")
			return
		}
		f.IsActive = &active
	}
	f.Search = c.Query("search")
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
	users, total, err := h.users.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": total})
}

// Deactivate serves POST /users/:id/deactivate. With ?force=true the user is
// deactivated even while still responsible for open cases.
func (h *UserHandler) Deactivate(c *gin.Context) {
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	force, _ := strconv.ParseBool(c.Query("force"))
	if actor := CurrentUser(c); actor != nil && actor.ID == userID {
		respondValidation(c, "cannot deactivate your own account")
		return
	}
	user, err := h.users.Deactivate(c.Request.Context(), userID, force)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Activate(c *gin.Context) {
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Activate(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ResetPassword serves POST /users/:id/reset-password. The generated
// temporary password is returned in the response; delivering it to the user
// by email is left to an external consumer.
func (h *UserHandler) ResetPassword(c *gin.Context) {
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	user, temp, err := h.users.ResetPassword(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "password reset successfully for user " + user.Username,
		"temp_password": temp,
	})
}

// ActiveCases serves GET /users/:id/active-cases: the non-terminal cases the
// user is responsible for, shown before deactivating them.
func (h *UserHandler) ActiveCases(c *gin.Context) {
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	user, cases, err := h.users.ActiveCases(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	caseIDs := make([]string, 0, len(cases))
	for _, cs := range cases {
		caseIDs = append(caseIDs, cs.ID.String())
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":            user.ID,
		"username":           user.Username,
		"active_cases_count": len(cases),
		"case_ids":           caseIDs,
	})
}

// Me returns the authenticated user's own profile.
func (h *UserHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, CurrentUser(c))
}

// MyCategoryAccess lists the categories the authenticated executor may work
// in. Grants only exist for EXECUTOR users, everyone else gets an empty set.
func (h *UserHandler) MyCategoryAccess(c *gin.Context) {
	user := CurrentUser(c)
	categories, err := h.access.AccessibleCategories(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categoryAccessBody(user.ID, categories))
}

func categoryAccessBody(executorID uuid.UUID, categories []model.Category) gin.H {
	return gin.H{
		"executor_id": executorID,
		"categories":  categories,
		"total":       len(categories),
	}
}

type setCategoryAccessRequest struct {
	CategoryIDs []string `json:"category_ids"`
}

// SetCategoryAccess serves PUT /users/:id/category-access. The submitted set
// replaces the previous grants in full.
func (h *UserHandler) SetCategoryAccess(c *gin.Context) {
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req setCategoryAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "category_ids is required")
		return
	}
	ids := make([]uuid.UUID, 0, len(req.CategoryIDs))
	for _, raw := range req.CategoryIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondValidation(c, "category_ids contains an invalid UUID")
			return
		}
		ids = append(ids, id)
	}
	if err := h.access.ReplaceGrants(c.Request.Context(), userID, ids); err != nil {
		respondError(c, err)
		return
	}
	categories, err := h.access.AccessibleCategories(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categoryAccessBody(userID, categories))
}

// GetCategoryAccess serves GET /users/:id/category-access.
func (h *UserHandler) GetCategoryAccess(c *gin.Context) {
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if _, err := h.users.GetByID(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	categories, err := h.access.AccessibleCategories(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categoryAccessBody(userID, categories))
}
