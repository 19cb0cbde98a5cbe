package handlers

import (
	"io"
	"net/http"
	"strconv"

	"clientdesk_backend/internal/logger"
	"clientdesk_backend/internal/services"
	"clientdesk_backend/internal/services/dto"
	"clientdesk_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	*BaseHandler
	documentService services.DocumentService
}

func NewDocumentHandler(base *BaseHandler, documentService services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		BaseHandler:     base,
		documentService: documentService,
	}
}

// RegisterRoutes регистрирует маршруты документов
func (h *DocumentHandler) RegisterRoutes(rg *gin.RouterGroup, mw *Middlewares) {
	documents := rg.Group("/documents")
	documents.Use(mw.Auth)
	{
		documents.POST("", h.Upload)
		documents.GET("", h.List)
		documents.GET("/:id/download", h.Download)
		documents.GET("/:id/content", h.Content)
		documents.PUT("/:id/soft-delete", h.RemoveFromDownloads)
		documents.DELETE("/:id", h.Delete)
	}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Missing file in multipart form"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.HandleServiceError(c, apperrors.InternalError(err))
		return
	}
	defer file.Close()

	db := h.GetDB(c)

	doc, err := h.documentService.Upload(
		c.Request.Context(),
		db,
		userID,
		userID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		file,
	)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var query dto.ListDocumentsQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	db := h.GetDB(c)

	response, err := h.documentService.List(db, userID, &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Download выдает временную подписанную ссылку на документ
func (h *DocumentHandler) Download(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	link, err := h.documentService.DownloadLink(c.Request.Context(), db, c.Param("id"), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, link)
}

// RemoveFromDownloads убирает документ из списка скачанных
func (h *DocumentHandler) RemoveFromDownloads(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	doc, err := h.documentService.RemoveFromDownloads(db, c.Param("id"), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Content отдает содержимое документа потоком из хранилища
func (h *DocumentHandler) Content(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	doc, content, err := h.documentService.Open(c.Request.Context(), db, c.Param("id"), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	defer func() {
		if err := content.Close(); err != nil {
			logger.CtxWithError(c.Request.Context(), "failed to close document stream", err, "document_id", doc.ID)
		}
	}()

	c.Header("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	c.Header("Content-Type", doc.FileType)
	c.Header("Content-Length", strconv.FormatInt(doc.FileSize, 10))

	if _, err := io.Copy(c.Writer, content); err != nil {
		logger.CtxWithError(c.Request.Context(), "failed to stream document", err, "document_id", doc.ID)
	}
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	if err := h.documentService.Delete(c.Request.Context(), db, c.Param("id"), userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Document deleted",
	})
}
