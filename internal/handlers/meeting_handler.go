package handlers

import (
	"net/http"

	"clientdesk_backend/internal/services"
	"clientdesk_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type MeetingHandler struct {
	*BaseHandler
	meetingService services.MeetingService
}

func NewMeetingHandler(base *BaseHandler, meetingService services.MeetingService) *MeetingHandler {
	return &MeetingHandler{
		BaseHandler:    base,
		meetingService: meetingService,
	}
}

// RegisterRoutes регистрирует маршруты встреч
func (h *MeetingHandler) RegisterRoutes(rg *gin.RouterGroup, mw *Middlewares) {
	meetings := rg.Group("/meetings")
	meetings.Use(mw.Auth)
	{
		meetings.POST("", h.Create)
		meetings.GET("", h.List)
		meetings.POST("/:id/cancel", h.Cancel)
	}
}

func (h *MeetingHandler) Create(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateMeetingRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	meeting, err := h.meetingService.Create(c.Request.Context(), db, userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, meeting)
}

func (h *MeetingHandler) List(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	meetings, err := h.meetingService.List(db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, meetings)
}

// Cancel отменяет встречу, доступно только организатору
func (h *MeetingHandler) Cancel(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	if err := h.meetingService.Cancel(c.Request.Context(), db, c.Param("id"), userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Meeting cancelled",
	})
}
