package models

import (
	"time"

	"gorm.io/gorm"
)

// Document types. One document exists per (order, type).
const (
	DocTypeInvoice      = "invoice"
	DocTypeContract     = "contract"
	DocTypeMeasurement  = "measurement_sheet"
	DocTypeDesignSketch = "design_sketch"
	DocTypeDeliveryNote = "delivery_note"
)

// RequiredDocumentTypes are auto-created with every order.
var RequiredDocumentTypes = []string{
	DocTypeInvoice,
	DocTypeContract,
	DocTypeMeasurement,
	DocTypeDesignSketch,
	DocTypeDeliveryNote,
}

// PortalUploadableDocTypes are the only document types customers may upload
// to through the portal.
var PortalUploadableDocTypes = []string{DocTypeInvoice, DocTypeContract}

// IsPortalUploadable reports whether customers can upload the given type.
func IsPortalUploadable(docType string) bool {
	for _, t := range PortalUploadableDocTypes {
		if t == docType {
			return true
		}
	}
	return false
}

// IsValidDocType reports whether the given document type is recognized.
func IsValidDocType(docType string) bool {
	for _, t := range RequiredDocumentTypes {
		if t == docType {
			return true
		}
	}
	return false
}

// Document is the per-(order, type) singleton that attachments hang off.
// A required document with no attachments counts as missing.
type Document struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	OrderID    uint        `gorm:"not null;uniqueIndex:idx_document_order_type" json:"order_id"`
	Order      TailorOrder `gorm:"foreignKey:OrderID" json:"-"`
	CustomerID uint        `gorm:"not null;index" json:"customer_id"`
	Customer   User        `gorm:"foreignKey:CustomerID" json:"-"`

	Type     string `gorm:"not null;uniqueIndex:idx_document_order_type" json:"type"`
	Required bool   `gorm:"not null;default:true" json:"required"`

	Attachments []DocumentAttachment `gorm:"foreignKey:DocumentID" json:"attachments,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Document model
func (Document) TableName() string {
	return "documents"
}

// IsMissing reports whether a required document still has no attachments.
// Attachments must be loaded for the result to be meaningful.
func (d *Document) IsMissing() bool {
	return d.Required && len(d.Attachments) == 0
}

// DocumentAttachment is one uploaded file of a document. Attachments are
// append-only for non-admin roles; files live in S3 under S3Key.
type DocumentAttachment struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	DocumentID uint     `gorm:"not null;index" json:"document_id"`
	Document   Document `gorm:"foreignKey:DocumentID" json:"-"`
	UploaderID uint     `gorm:"not null;index" json:"uploader_id"`
	Uploader   User     `gorm:"foreignKey:UploaderID" json:"uploader"`

	FileName    string  `gorm:"not null" json:"file_name"`
	ContentType string  `gorm:"not null" json:"content_type"`
	SizeBytes   int64   `gorm:"not null" json:"size_bytes"`
	S3Key       string  `gorm:"not null" json:"-"`
	DownloadURL *string `gorm:"-" json:"download_url,omitempty"` // computed, presigned

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the DocumentAttachment model
func (DocumentAttachment) TableName() string {
	return "document_attachments"
}
