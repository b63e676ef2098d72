package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atelier-labs/tailor-orders-api/config"
	"github.com/atelier-labs/tailor-orders-api/models"
	"github.com/atelier-labs/tailor-orders-api/services"
)

// requireCustomer loads the authenticated user and rejects staff; the
// portal surface is customer-only.
func requireCustomer(c *gin.Context) (*models.User, bool) {
	user, ok := requireUser(c)
	if !ok {
		return nil, false
	}
	if user.Role != models.RoleCustomer {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Portal access is for customers only")
		return nil, false
	}
	return user, true
}

// PortalListOrders handles GET /api/v1/portal/orders - the customer's own
// orders
func PortalListOrders(c *gin.Context) {
	user, ok := requireCustomer(c)
	if !ok {
		return
	}

	orders, err := orderService().ListOrders(c.Query("status"), user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// PortalGetOrder handles GET /api/v1/portal/orders/:id - one of the
// customer's orders
func PortalGetOrder(c *gin.Context) {
	user, ok := requireCustomer(c)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := orderService().GetOrder(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if order.CustomerID != user.ID {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Order not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// PortalApproveOrder handles POST /api/v1/portal/orders/:id/approve - the
// customer signs off on a draft order. Status never changes here; the
// stock manager confirms separately.
func PortalApproveOrder(c *gin.Context) {
	user, ok := requireCustomer(c)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := orderService().ApproveByCustomer(user, orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// PortalUploadDocument handles POST /api/v1/portal/orders/:id/documents/:type
// - uploads a file to one of the customer's documents. Only invoice and
// contract types are open to customers and attachments are append-only.
func PortalUploadDocument(c *gin.Context) {
	user, ok := requireCustomer(c)
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

	docs := services.NewDocumentService(config.GetDB(), nil)
	attachment, err := docs.UploadAttachment(user, orderID, docType, fileHeader)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    attachment,
	})
}

// PortalDownloadDocument handles GET /api/v1/portal/orders/:id/documents/:type/download
// - resolves a presigned URL for a specific attachment (?attachment_id=N)
// or the latest one.
func PortalDownloadDocument(c *gin.Context) {
	user, ok := requireCustomer(c)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}
	docType := c.Param("type")
	attachmentID := uintQuery(c, "attachment_id")

	docs := services.NewDocumentService(config.GetDB(), nil)
	url, attachment, err := docs.AttachmentURL(user, orderID, docType, attachmentID)
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
