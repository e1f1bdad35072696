package http

import (
	"net/http"

	"meetgate/internal/core/domain"
	"meetgate/internal/core/ports"
	"meetgate/internal/infrastructure/middleware"
	apperrors "meetgate/pkg/errors"
	"meetgate/pkg/validation"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService ports.UserService
	cookie      CookieSettings
}

func NewUserHandler(userService ports.UserService, cookie CookieSettings) *UserHandler {
	return &UserHandler{
		userService: userService,
		cookie:      cookie,
	}
}

func (h *UserHandler) SetupRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	api := router.Group("/api/users", auth)
	{
		api.GET("/profile", h.GetProfile)
		api.PUT("/profile", h.UpdateProfile)
		api.DELETE("/profile", h.DeleteAccount)
		api.GET("/:userId", h.GetByID)
	}
}

type updateProfileRequest struct {
	Name     *string `json:"name"`
	LastName *string `json:"last_name"`
	Age      *int    `json:"age"`
	Email    *string `json:"email"`
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	uid, ok := middleware.CallerUID(c)
	if !ok {
		c.Error(apperrors.NewUnauthenticatedError("authentication required"))
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), uid)
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, userToResponse(user))
}

func (h *UserHandler) GetByID(c *gin.Context) {
	userID := c.Param("userId")
	if err := validation.ValidateUserID(userID); err != nil {
		c.Error(apperrors.NewInvalidInputError(err.Error()))
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), domain.UserID(userID))
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, userToResponse(user))
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	uid, ok := middleware.CallerUID(c)
	if !ok {
		c.Error(apperrors.NewUnauthenticatedError("authentication required"))
		return
	}

	var req updateProfileRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid request format"))
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), uid, domain.UserUpdate{
		Name:     req.Name,
		LastName: req.LastName,
		Age:      req.Age,
		Email:    req.Email,
	})
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, userToResponse(user))
}

func (h *UserHandler) DeleteAccount(c *gin.Context) {
	uid, ok := middleware.CallerUID(c)
	if !ok {
		c.Error(apperrors.NewUnauthenticatedError("authentication required"))
		return
	}

	if err := h.userService.DeleteAccount(c.Request.Context(), uid); err != nil {
		c.Error(err)
		return
	}

	// The account is gone; the cookie should not outlive it.
	clearSessionCookie(c, h.cookie)
	respond(c, http.StatusOK, gin.H{"message": "account deleted"})
}
