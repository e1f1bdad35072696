package http

import (
	"net/http"

	"meetgate/internal/core/domain"
	"meetgate/internal/core/ports"
	"meetgate/internal/infrastructure/middleware"
	apperrors "meetgate/pkg/errors"

	"github.com/gin-gonic/gin"
)

type MeetingHandler struct {
	meetingService ports.MeetingService
}

func NewMeetingHandler(meetingService ports.MeetingService) *MeetingHandler {
	return &MeetingHandler{
		meetingService: meetingService,
	}
}

func (h *MeetingHandler) SetupRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	api := router.Group("/api/meetings", auth)
	{
		api.POST("", h.Create)
		api.GET("", h.List)
		api.GET("/:meetingId", h.GetByID)
		api.PUT("/:meetingId", h.Update)
		api.DELETE("/:meetingId", h.Delete)
		api.POST("/:meetingId/join", h.Join)
		api.POST("/:meetingId/leave", h.Leave)
	}
}

type createMeetingRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type updateMeetingRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func (h *MeetingHandler) Create(c *gin.Context) {
	caller, ok := middleware.CallerUID(c)
	if !ok {
		c.Error(apperrors.NewUnauthenticatedError("authentication required"))
		return
	}

	var req createMeetingRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid request format"))
		return
	}

	meeting, err := h.meetingService.Create(c.Request.Context(), caller, ports.MeetingCreate{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusCreated, meetingToResponse(meeting))
}

func (h *MeetingHandler) List(c *gin.Context) {
	caller, ok := middleware.CallerUID(c)
	if !ok {
		c.Error(apperrors.NewUnauthenticatedError("authentication required"))
		return
	}

	meetings, err := h.meetingService.ListForUser(c.Request.Context(), caller)
	if err != nil {
		c.Error(err)
		return
	}

	out := make([]meetingResponse, 0, len(meetings))
	for _, m := range meetings {
		out = append(out, meetingToResponse(m))
	}
	respond(c, http.StatusOK, out)
}

func (h *MeetingHandler) GetByID(c *gin.Context) {
	caller, ok := middleware.CallerUID(c)
	if !ok {
		c.Error(apperrors.NewUnauthenticatedError("authentication required"))
		return
	}

	meeting, err := h.meetingService.GetByID(c.Request.Context(), caller, domain.MeetingID(c.Param("meetingId")))
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, meetingToResponse(meeting))
}

func (h *MeetingHandler) Update(c *gin.Context) {
	caller, ok := middleware.CallerUID(c)
	if !ok {
		c.Error(apperrors.NewUnauthenticatedError("authentication required"))
		return
	}

	var req updateMeetingRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidInputError("invalid request format"))
		return
	}

	update := domain.MeetingUpdate{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		status := domain.MeetingStatus(*req.Status)
		if status != domain.MeetingStatusActive && status != domain.MeetingStatusEnded {
			c.Error(apperrors.NewInvalidInputError("status must be active or ended"))
			return
		}
		update.Status = &status
	}

	meeting, err := h.meetingService.Update(c.Request.Context(), caller, domain.MeetingID(c.Param("meetingId")), update)
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, meetingToResponse(meeting))
}

func (h *MeetingHandler) Delete(c *gin.Context) {
	caller, ok := middleware.CallerUID(c)
	if !ok {
		c.Error(apperrors.NewUnauthenticatedError("authentication required"))
		return
	}

	if err := h.meetingService.Delete(c.Request.Context(), caller, domain.MeetingID(c.Param("meetingId"))); err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "meeting deleted"})
}

func (h *MeetingHandler) Join(c *gin.Context) {
	caller, ok := middleware.CallerUID(c)
	if !ok {
		c.Error(apperrors.NewUnauthenticatedError("authentication required"))
		return
	}

	meeting, err := h.meetingService.Join(c.Request.Context(), caller, domain.MeetingID(c.Param("meetingId")))
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, meetingToResponse(meeting))
}

func (h *MeetingHandler) Leave(c *gin.Context) {
	caller, ok := middleware.CallerUID(c)
	if !ok {
		c.Error(apperrors.NewUnauthenticatedError("authentication required"))
		return
	}

	meeting, err := h.meetingService.Leave(c.Request.Context(), caller, domain.MeetingID(c.Param("meetingId")))
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, meetingToResponse(meeting))
}
