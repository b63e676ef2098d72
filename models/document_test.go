package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidDocType(t *testing.T) {
	for _, docType := range RequiredDocumentTypes {
		assert.True(t, IsValidDocType(docType), "expected %q to be valid", docType)
	}
	assert.False(t, IsValidDocType("receipt"))
	assert.False(t, IsValidDocType(""))
}

func TestIsPortalUploadable(t *testing.T) {
	assert.True(t, IsPortalUploadable(DocTypeInvoice))
	assert.True(t, IsPortalUploadable(DocTypeContract))
	assert.False(t, IsPortalUploadable(DocTypeMeasurement))
	assert.False(t, IsPortalUploadable(DocTypeDesignSketch))
	assert.False(t, IsPortalUploadable(DocTypeDeliveryNote))
}

func TestDocumentIsMissing(t *testing.T) {
	required := Document{Required: true}
	assert.True(t, required.IsMissing(), "required document with no attachments is missing")

	required.Attachments = []DocumentAttachment{{FileName: "invoice.pdf"}}
	assert.False(t, required.IsMissing())

	optional := Document{Required: false}
	assert.False(t, optional.IsMissing(), "optional documents are never missing")
}
