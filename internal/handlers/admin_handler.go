package handlers

import (
	"io"
	"net/http"

	"clientdesk_backend/internal/email"
	"clientdesk_backend/internal/services"
	"clientdesk_backend/internal/services/dto"
	"clientdesk_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// Лимит на суммарный размер вложений одного письма
const maxAttachmentsSize = 15 * 1024 * 1024

type AdminHandler struct {
	*BaseHandler
	adminService services.AdminService
}

func NewAdminHandler(base *BaseHandler, adminService services.AdminService) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  base,
		adminService: adminService,
	}
}

// RegisterRoutes регистрирует маршруты админки
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup, mw *Middlewares) {
	admin := rg.Group("/admin")
	admin.Use(mw.Auth, mw.Admin)
	{
		admin.GET("/users", h.ListUsers)
		admin.GET("/users/:id", h.GetUserDetails)
		admin.PUT("/users/:id/ban", h.BanUser)
		admin.PUT("/users/:id/unban", h.UnbanUser)
		admin.DELETE("/users/:id", h.DeleteUser)
		admin.POST("/emails", h.SendEmail)
		admin.GET("/emails", h.EmailHistory)
		admin.GET("/stats", h.Stats)
	}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	var query dto.ListUsersQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	db := h.GetDB(c)

	response, err := h.adminService.ListUsers(db, &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *AdminHandler) GetUserDetails(c *gin.Context) {
	db := h.GetDB(c)

	details, err := h.adminService.GetUserDetails(db, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

func (h *AdminHandler) BanUser(c *gin.Context) {
	db := h.GetDB(c)

	if err := h.adminService.BanUser(db, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User banned"})
}

func (h *AdminHandler) UnbanUser(c *gin.Context) {
	db := h.GetDB(c)

	if err := h.adminService.UnbanUser(db, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User unbanned"})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	db := h.GetDB(c)

	result, err := h.adminService.DeleteUser(c.Request.Context(), db, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	if len(result.FailedCleanups) > 0 {
		c.JSON(http.StatusOK, gin.H{
			"message": "User deleted, some external objects could not be cleaned up",
			"data":    result,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// SendEmail - отправка письма из админки, multipart с вложениями
func (h *AdminHandler) SendEmail(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid multipart form"))
		return
	}

	req := &dto.SendEmailRequest{
		To:      form.Value["to"],
		Cc:      form.Value["cc"],
		Subject: c.PostForm("subject"),
		Message: c.PostForm("message"),
	}
	if err := h.validator.Validate(req); err != nil {
		h.HandleServiceError(c, apperrors.NewBadRequestError("Invalid email request: "+err.Error()))
		return
	}

	var totalSize int64
	var attachments []email.Attachment
	for _, fileHeader := range form.File["attachments"] {
		totalSize += fileHeader.Size
		if totalSize > maxAttachmentsSize {
			apperrors.HandleError(c, apperrors.ErrFileTooLarge)
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			h.HandleServiceError(c, apperrors.InternalError(err))
			return
		}
		content, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			h.HandleServiceError(c, apperrors.InternalError(err))
			return
		}

		attachments = append(attachments, email.Attachment{
			Name:        fileHeader.Filename,
			Content:     content,
			ContentType: fileHeader.Header.Get("Content-Type"),
		})
	}

	db := h.GetDB(c)

	if err := h.adminService.SendEmail(db, adminID, req, attachments); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email sent"})
}

func (h *AdminHandler) EmailHistory(c *gin.Context) {
	page, pageSize := ParsePagination(c)
	db := h.GetDB(c)

	response, err := h.adminService.EmailHistory(db, c.Query("search"), page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *AdminHandler) Stats(c *gin.Context) {
	db := h.GetDB(c)

	stats, err := h.adminService.Stats(db)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
