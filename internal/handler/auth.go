// internal/handler/auth.go
package handler

import (
	"budget-tracker/internal/auth"
	"budget-tracker/internal/domain"
	"budget-tracker/internal/middleware"
	"budget-tracker/internal/storage"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register godoc
// @Summary Register a new user
// @Param request body RegisterRequest true "Credentials"
// @Success 201 {object} domain.User
// @Failure 400 {object} map[string]string "validation error or email taken"
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.svc.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if errors.Is(err, storage.ErrAlreadyExists) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		return
	}
	if err != nil {
		slog.Error("register failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(http.StatusCreated, u)
}

// Login godoc
// @Summary Exchange credentials for a bearer token
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} TokenResponse
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string "inactive user"
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect email or password"})
		return
	case errors.Is(err, auth.ErrInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": "Inactive user"})
		return
	default:
		slog.Error("login failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	slog.Info("user logged in", "user_id", session.User.ID)
	c.JSON(http.StatusOK, h.tokenResponse(session))
}

// Refresh issues a fresh token for the already authenticated user.
func (h *AuthHandler) Refresh(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	session, err := h.svc.IssueToken(u)
	if err != nil {
		slog.Error("refresh token", "error", err, "user_id", u.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(http.StatusOK, h.tokenResponse(session))
}

func (h *AuthHandler) Me(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) UpdateMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req ProfileUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.svc.UpdateProfile(c.Request.Context(), userID, req.Email, req.DisplayName)
	if errors.Is(err, storage.ErrAlreadyExists) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		return
	}
	if err != nil {
		writeStoreError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.svc.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Incorrect current password"})
		return
	}
	if err != nil {
		writeStoreError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed", "success": true})
}

func (h *AuthHandler) tokenResponse(s auth.Session) TokenResponse {
	return TokenResponse{
		AccessToken: s.Token,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.svc.Tokens().ExpiresIn().Seconds()),
		User:        s.User,
	}
}

func currentUser(c *gin.Context) (domain.User, bool) {
	v, ok := c.Get(middleware.UserKey)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "user missing"})
		return domain.User{}, false
	}
	u, ok := v.(domain.User)
	if !ok {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "invalid user"})
		return domain.User{}, false
	}
	return u, true
}

// === DTO ===

type RegisterRequest struct {
	Email       string  `json:"email" validate:"required,email,max=255"`
	Password    string  `json:"password" validate:"required,min=8,max=128"`
	DisplayName *string `json:"display_name" validate:"omitnil,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ProfileUpdateRequest struct {
	Email       *string `json:"email" validate:"omitnil,email,max=255"`
	DisplayName *string `json:"display_name" validate:"omitnil,max=100"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

type TokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	User        domain.User `json:"user"`
}
