// internal/handlers/auth/auth_handler.go
package auth

import (
	"context"
	"net/http"

	"lms-web/internal/domain/auth"
	"lms-web/internal/middleware"
	xerrors "lms-web/internal/pkg/errors"
	"lms-web/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionService is what the handlers need from the auth service.
type SessionService interface {
	State() auth.SessionState
	Login(ctx context.Context, email, password string) (auth.Session, error)
	Register(ctx context.Context, in auth.RegisterInput) (auth.Session, error)
	Logout(ctx context.Context)
}

type AuthHandler struct {
	authService SessionService
	logger      *zap.Logger
}

func NewAuthHandler(authService SessionService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// RegisterRequest is the sign-up form.
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	FirstName       string `json:"first_name" binding:"required"`
	LastName        string `json:"last_name" binding:"required"`
	Role            string `json:"role" binding:"required,oneof=teacher student"`
	Program         string `json:"program"`
}

// ========== Session ==========

// Session returns the current session state (public endpoint)
func (h *AuthHandler) Session(c *gin.Context) {
	response.Success(c, http.StatusOK, "session state", h.authService.State())
}

// ========== Registration ==========

// Register handles user registration (public endpoint)
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}
	if req.Password != req.ConfirmPassword {
		response.ValidationError(c, "Passwords do not match", xerrors.ErrInvalidInput)
		return
	}

	_, err := h.authService.Register(c.Request.Context(), auth.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		Program:   req.Program,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "registration successful", h.authService.State())
}

// ========== Login ==========

// Login handles user login (public endpoint)
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	if _, err := h.authService.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "login successful", h.authService.State())
}

// ========== Logout ==========

// Logout always succeeds; the local session is cleared even if the backend is down.
// A plain form post from a page is sent back to the entry point.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.authService.Logout(c.Request.Context())
	if c.ContentType() == gin.MIMEPOSTForm {
		c.Redirect(http.StatusSeeOther, middleware.EntryPath)
		return
	}
	response.Success(c, http.StatusOK, "logout successful", h.authService.State())
}
