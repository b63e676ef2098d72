package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/atelier-labs/tailor-orders-api/config"
	"github.com/atelier-labs/tailor-orders-api/models"
	"github.com/atelier-labs/tailor-orders-api/services"
)

func documentService() *services.DocumentService {
	return services.NewDocumentService(config.GetDB(), nil)
}

// ListOrderDocuments handles GET /api/v1/orders/:id/documents - an order's
// documents with attachments and missing flags (staff)
func ListOrderDocuments(c *gin.Context) {
	if _, ok := requireStaff(c); !ok {
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	docs, err := documentService().ListDocuments(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	type documentView struct {
		models.Document
		Missing bool `json:"missing"`
	}
	views := make([]documentView, len(docs))
	for i := range docs {
		views[i] = documentView{Document: docs[i], Missing: docs[i].IsMissing()}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    views,
	})
}

// UploadOrderDocument handles POST /api/v1/orders/:id/documents/:type -
// staff upload to any document type
func UploadOrderDocument(c *gin.Context) {
	user, ok := requireStaff(c)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}
	docType := c.Param("type")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "A file is required")
		return
	}

	attachment, err := documentService().UploadAttachment(user, orderID, docType, fileHeader)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    attachment,
	})
}

// DownloadOrderDocument handles GET /api/v1/orders/:id/documents/:type/download (staff)
func DownloadOrderDocument(c *gin.Context) {
	user, ok := requireStaff(c)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}
	docType := c.Param("type")
	attachmentID := uintQuery(c, "attachment_id")

	url, attachment, err := documentService().AttachmentURL(user, orderID, docType, attachmentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"attachment":   attachment,
			"download_url": url,
		},
	})
}

// DeleteDocumentAttachment handles DELETE /api/v1/attachments/:id - admin
// only, every other role is append-only
func DeleteDocumentAttachment(c *gin.Context) {
	user, ok := requireStaff(c)
	if !ok {
		return
	}

	attachmentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid attachment ID")
		return
	}

	if err := documentService().DeleteAttachment(models.ActorFor(user), uint(attachmentID)); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"deleted": true},
	})
}
