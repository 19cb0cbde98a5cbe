package handlers

import (
	"net/http"

	"clientdesk_backend/internal/services"
	"clientdesk_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type VideoHandler struct {
	*BaseHandler
	videoService services.VideoService
}

func NewVideoHandler(base *BaseHandler, videoService services.VideoService) *VideoHandler {
	return &VideoHandler{
		BaseHandler:  base,
		videoService: videoService,
	}
}

// RegisterRoutes регистрирует маршруты видео
func (h *VideoHandler) RegisterRoutes(rg *gin.RouterGroup, mw *Middlewares) {
	videos := rg.Group("/videos")
	videos.Use(mw.Auth)
	{
		videos.POST("", h.Upload)
		videos.GET("", h.List)
		videos.DELETE("/:id", h.Delete)
	}
}

// Upload принимает файл и отдает его на видеохостинг
func (h *VideoHandler) Upload(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Missing file in multipart form"))
		return
	}

	title := c.PostForm("title")
	if title == "" {
		title = fileHeader.Filename
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.HandleServiceError(c, apperrors.InternalError(err))
		return
	}
	defer file.Close()

	db := h.GetDB(c)

	video, err := h.videoService.Upload(
		c.Request.Context(),
		db,
		userID,
		userID,
		title,
		c.PostForm("description"),
		fileHeader.Size,
		file,
	)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, video)
}

func (h *VideoHandler) List(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	page, pageSize := ParsePagination(c)
	db := h.GetDB(c)

	response, err := h.videoService.List(db, userID, page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *VideoHandler) Delete(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	if err := h.videoService.Delete(c.Request.Context(), db, c.Param("id"), userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Video deleted",
	})
}
