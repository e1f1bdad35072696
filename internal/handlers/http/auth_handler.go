package http

import (
	"net/http"

	"meetgate/internal/core/ports"
	"meetgate/internal/infrastructure/middleware"
	apperrors "meetgate/pkg/errors"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService ports.AuthService
	cookie      CookieSettings
}

func NewAuthHandler(authService ports.AuthService, cookie CookieSettings) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
	}
}

func (h *AuthHandler) SetupRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	api := router.Group("/api/auth")
	{
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.POST("/logout", auth, h.Logout)
		api.POST("/reset-password", h.ResetPassword)
	}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	LastName string `json:"last_name"`
	Age      int    `json:"age"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type resetPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid request format"))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), ports.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		LastName: req.LastName,
		Age:      req.Age,
	})
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusCreated, userToResponse(user))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid request format"))
		return
	}

	user, credential, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.Error(err)
		return
	}

	setSessionCookie(c, h.cookie, credential)
	respond(c, http.StatusOK, userToResponse(user))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	uid, ok := middleware.CallerUID(c)
	if !ok {
		c.Error(apperrors.NewUnauthenticatedError("authentication required"))
		return
	}

	if err := h.authService.Logout(c.Request.Context(), uid); err != nil {
		c.Error(err)
		return
	}

	clearSessionCookie(c, h.cookie)
	respond(c, http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid request format"))
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Email); err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "password reset email sent"})
}
