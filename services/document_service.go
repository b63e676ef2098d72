package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"github.com/atelier-labs/tailor-orders-api/models"
	"github.com/atelier-labs/tailor-orders-api/utils"
)

// ensureRequiredDocuments seeds the five required document records for a
// new order. One document per (order, type).
func ensureRequiredDocuments(tx *gorm.DB, order *models.TailorOrder) error {
	for _, docType := range models.RequiredDocumentTypes {
		var count int64
		if err := tx.Model(&models.Document{}).Where("order_id = ? AND type = ?", order.ID, docType).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		doc := models.Document{
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			Type:       docType,
			Required:   true,
		}
		if err := tx.Create(&doc).Error; err != nil {
			return err
		}
	}
	return nil
}

// DocumentService handles document attachments: validation, S3 storage and
// the append-only rules.
type DocumentService struct {
	db *gorm.DB
	s3 S3Interface
}

// NewDocumentService builds a document service. A nil s3 falls back to the
// globally initialized S3 service.
func NewDocumentService(db *gorm.DB, s3 S3Interface) *DocumentService {
	if s3 == nil {
		s3 = GetS3Service()
	}
	return &DocumentService{db: db, s3: s3}
}

// ListDocuments returns the documents of an order with attachments loaded,
// so the missing flag is meaningful.
func (s *DocumentService) ListDocuments(orderID uint) ([]models.Document, error) {
	var docs []models.Document
	err := s.db.Preload("Attachments").Preload("Attachments.Uploader").
		Where("order_id = ?", orderID).Order("id").Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// MissingCount counts required documents of an order that still have no
// attachment.
func (s *DocumentService) MissingCount(orderID uint) (int, error) {
	docs, err := s.ListDocuments(orderID)
	if err != nil {
		return 0, err
	}
	missing := 0
	for i := range docs {
		if docs[i].IsMissing() {
			missing++
		}
	}
	return missing, nil
}

// UploadAttachment validates and stores a file as a new attachment on the
// per-(order, type) document, creating the document on demand. Attachments
// are append-only; replacement is DeleteAttachment plus a new upload, admin
// only.
func (s *DocumentService) UploadAttachment(uploader *models.User, orderID uint, docType string, fileHeader *multipart.FileHeader) (*models.DocumentAttachment, error) {
	if !models.IsValidDocType(docType) {
		return nil, validation(fmt.Sprintf("Unknown document type %q", docType))
	}
	if uploader.Role == models.RoleCustomer && !models.IsPortalUploadable(docType) {
		return nil, forbidden(fmt.Sprintf("Customers can only upload %s documents", strings.Join(models.PortalUploadableDocTypes, " or ")))
	}
	if err := utils.ValidateDocumentFile(fileHeader); err != nil {
		return nil, &RuleError{Code: CodeValidation, Message: err.Error()}
	}

	var order models.TailorOrder
	if err := s.db.First(&order, orderID).Error; err != nil {
		return nil, notFound("Order not found")
	}
	if uploader.Role == models.RoleCustomer && order.CustomerID != uploader.ID {
		return nil, notFound("Order not found")
	}

	s3Key, err := s.s3.UploadFile(fileHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload document: %w", err)
	}

	var attachment models.DocumentAttachment
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var doc models.Document
		err := tx.Where("order_id = ? AND type = ?", orderID, docType).First(&doc).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			doc = models.Document{
				OrderID:    order.ID,
				CustomerID: order.CustomerID,
				Type:       docType,
				Required:   false,
			}
			if err := tx.Create(&doc).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		attachment = models.DocumentAttachment{
			DocumentID:  doc.ID,
			UploaderID:  uploader.ID,
			FileName:    filepath.Base(fileHeader.Filename),
			ContentType: utils.ContentTypeForExt(filepath.Ext(fileHeader.Filename)),
			SizeBytes:   fileHeader.Size,
			S3Key:       s3Key,
		}
		return tx.Create(&attachment).Error
	})
	if err != nil {
		// Attachment row failed, drop the uploaded object.
		_ = s.s3.DeleteFile(s3Key)
		return nil, err
	}
	return &attachment, nil
}

// AttachmentURL resolves a presigned download URL for one attachment of an
// order's document. With attachmentID zero the latest attachment is used.
// For customers the ownership of the order is enforced.
func (s *DocumentService) AttachmentURL(requester *models.User, orderID uint, docType string, attachmentID uint) (string, *models.DocumentAttachment, error) {
	var order models.TailorOrder
	if err := s.db.First(&order, orderID).Error; err != nil {
		return "", nil, notFound("Order not found")
	}
	if requester.Role == models.RoleCustomer && order.CustomerID != requester.ID {
		return "", nil, notFound("Order not found")
	}

	var doc models.Document
	if err := s.db.Where("order_id = ? AND type = ?", orderID, docType).First(&doc).Error; err != nil {
		return "", nil, notFound("Document not found")
	}

	var attachment models.DocumentAttachment
	query := s.db.Where("document_id = ?", doc.ID)
	if attachmentID != 0 {
		query = query.Where("id = ?", attachmentID)
	}
	if err := query.Order("id desc").First(&attachment).Error; err != nil {
		return "", nil, notFound("No attachment found for this document")
	}

	url, err := s.s3.GetPresignedURL(attachment.S3Key)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate download URL: %w", err)
	}
	attachment.DownloadURL = &url
	return url, &attachment, nil
}

// DeleteAttachment removes one attachment. Admin only; for every other role
// attachments are append-only.
func (s *DocumentService) DeleteAttachment(actor models.Actor, attachmentID uint) error {
	if !actor.IsAdmin() {
		return forbidden("Attachments are append-only, only admins can delete them")
	}

	var attachment models.DocumentAttachment
	if err := s.db.First(&attachment, attachmentID).Error; err != nil {
		return notFound("Attachment not found")
	}

	if err := s.db.Delete(&attachment).Error; err != nil {
		return err
	}
	if err := s.s3.DeleteFile(attachment.S3Key); err != nil {
		return fmt.Errorf("failed to delete stored file: %w", err)
	}
	return nil
}
