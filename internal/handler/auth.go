package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/auth"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/errs"
	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/service"
)

type AuthHandler struct {
	tokens *auth.Manager
	users  *service.UserService
}

func NewAuthHandler(tokens *auth.Manager, users *service.UserService) *AuthHandler {
	return &AuthHandler{tokens: tokens, users: users}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "username and password are required")
		return
	}
	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		// deliberately indistinguishable from a bad password
		c.JSON(http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "invalid username or password"})
		return
	}
	access, err := h.tokens.AccessToken(user)
	if err != nil {
		respondError(c, err)
		return
	}
	refresh, err := h.tokens.RefreshToken(user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// ChangePassword lets the authenticated user replace their own password.
// A wrong current password answers 401, mirroring a failed login.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "current_password, new_password and confirm_password are required")
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		respondValidation(c, "new_password and confirm_password do not match")
		return
	}
	user := CurrentUser(c)
	err := h.users.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, errs.ErrForbidden) {
			c.JSON(http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "current password is incorrect"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "password changed successfully",
		"changed_at": time.Now().UTC(),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "refresh_token is required")
		return
	}
	userID, _, err := h.tokens.Verify(req.RefreshToken, auth.TokenTypeRefresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "invalid or expired refresh token"})
		return
	}
	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil || !user.IsActive {
		c.JSON(http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "user missing or inactive"})
		return
	}
	access, err := h.tokens.AccessToken(user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{AccessToken: access, TokenType: "bearer"})
}
