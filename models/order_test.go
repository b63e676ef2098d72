package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTailorOrderTableName(t *testing.T) {
	order := TailorOrder{}
	assert.Equal(t, "tailor_orders", order.TableName())
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"draft to confirmed", StatusDraft, StatusConfirmed, true},
		{"draft to cancel", StatusDraft, StatusCancel, true},
		{"draft to cutting skips confirm", StatusDraft, StatusCutting, false},
		{"confirmed to cutting", StatusConfirmed, StatusCutting, true},
		{"cutting to sewing", StatusCutting, StatusSewing, true},
		{"sewing to qc", StatusSewing, StatusQC, true},
		{"qc to ready_delivery", StatusQC, StatusReadyDelivery, true},
		{"qc back to sewing for rework", StatusQC, StatusSewing, true},
		{"qc to cancel", StatusQC, StatusCancel, true},
		{"ready_delivery to delivered", StatusReadyDelivery, StatusDelivered, true},
		{"delivered is terminal", StatusDelivered, StatusCancel, false},
		{"cancel is terminal", StatusCancel, StatusDraft, false},
		{"no backwards jump to draft", StatusSewing, StatusDraft, false},
		{"unknown source status", "folded", StatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, status := range []string{
		StatusDraft, StatusConfirmed, StatusCutting, StatusSewing,
		StatusQC, StatusReadyDelivery, StatusDelivered, StatusCancel,
	} {
		assert.True(t, IsValidStatus(status), "expected %q to be valid", status)
	}
	assert.False(t, IsValidStatus("ironing"))
	assert.False(t, IsValidStatus(""))
}

func TestInProduction(t *testing.T) {
	for _, status := range []string{StatusCutting, StatusSewing, StatusQC} {
		order := TailorOrder{Status: status}
		assert.True(t, order.InProduction(), "expected %q to be a production stage", status)
	}
	for _, status := range []string{StatusDraft, StatusConfirmed, StatusReadyDelivery, StatusDelivered, StatusCancel} {
		order := TailorOrder{Status: status}
		assert.False(t, order.InProduction(), "expected %q not to be a production stage", status)
	}
}

func TestMaterialsGateOpen(t *testing.T) {
	tests := []struct {
		name          string
		stockChecked  bool
		adminApproved bool
		want          bool
	}{
		{"neither half", false, false, false},
		{"stock check only", true, false, false},
		{"admin approval only", false, true, false},
		{"both halves", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := TailorOrder{
				StockChecked:           tt.stockChecked,
				AdminMaterialsApproved: tt.adminApproved,
			}
			assert.Equal(t, tt.want, order.MaterialsGateOpen())
		})
	}
}

func TestQCChecklistComplete(t *testing.T) {
	order := TailorOrder{
		QCMeasurements: true,
		QCFabric:       true,
		QCStitching:    true,
		QCStyle:        true,
		QCFinishing:    true,
	}
	assert.True(t, order.QCChecklistComplete())

	order.QCStitching = false
	assert.False(t, order.QCChecklistComplete(), "one failed item fails the checklist")

	assert.False(t, (&TailorOrder{}).QCChecklistComplete())
}

func TestValidateStyles(t *testing.T) {
	tests := []struct {
		name      string
		order     TailorOrder
		wantField string
	}{
		{
			name: "valid arabic selections",
			order: TailorOrder{
				GarmentTemplate: TemplateArabicKandura,
				FrontDesign:     "zipper",
				SleeveStyle:     "cuff",
				CollarStyle:     "round",
				CuffStyle:       "double",
				ButtonStyle:     "fabric_covered",
				StitchingStyle:  "single",
			},
			wantField: "",
		},
		{
			name: "valid kuwaiti selections",
			order: TailorOrder{
				GarmentTemplate: TemplateKuwaitiKandura,
				FrontDesign:     "visible_buttons",
				CollarStyle:     "shirt",
				CuffStyle:       "french",
				ButtonStyle:     "pearl",
			},
			wantField: "",
		},
		{
			name: "empty selections are allowed",
			order: TailorOrder{
				GarmentTemplate: TemplateArabicKandura,
			},
			wantField: "",
		},
		{
			name: "arabic rejects visible buttons front",
			order: TailorOrder{
				GarmentTemplate: TemplateArabicKandura,
				FrontDesign:     "visible_buttons",
			},
			wantField: "front_design",
		},
		{
			name: "kuwaiti rejects chinese collar",
			order: TailorOrder{
				GarmentTemplate: TemplateKuwaitiKandura,
				CollarStyle:     "chinese",
			},
			wantField: "collar_style",
		},
		{
			name: "unknown template",
			order: TailorOrder{
				GarmentTemplate: "omani_dishdasha",
			},
			wantField: "garment_template",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantField, tt.order.ValidateStyles())
		})
	}
}

func TestOrigin(t *testing.T) {
	order := TailorOrder{Reference: "TO-00042"}
	assert.Equal(t, "TO-00042", order.Origin())
}
