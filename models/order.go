package models

import (
	"time"

	"gorm.io/gorm"
)

// Order statuses. Transitions between them follow AllowedStatusTransitions.
const (
	StatusDraft         = "draft"
	StatusConfirmed     = "confirmed"
	StatusCutting       = "cutting"
	StatusSewing        = "sewing"
	StatusQC            = "qc"
	StatusReadyDelivery = "ready_delivery"
	StatusDelivered     = "delivered"
	StatusCancel        = "cancel"
)

// Garment templates supported by the fabric estimator and style rules.
const (
	TemplateArabicKandura  = "arabic_kandura"
	TemplateKuwaitiKandura = "kuwaiti_kandura"
)

// AllowedStatusTransitions is the fixed order state machine. Terminal states
// map to an empty set.
var AllowedStatusTransitions = map[string][]string{
	StatusDraft:         {StatusConfirmed, StatusCancel},
	StatusConfirmed:     {StatusCutting, StatusCancel},
	StatusCutting:       {StatusSewing, StatusCancel},
	StatusSewing:        {StatusQC, StatusCancel},
	StatusQC:            {StatusReadyDelivery, StatusSewing, StatusCancel},
	StatusReadyDelivery: {StatusDelivered, StatusCancel},
	StatusDelivered:     {},
	StatusCancel:        {},
}

// CanTransition reports whether from→to exists in the transition table.
func CanTransition(from, to string) bool {
	for _, next := range AllowedStatusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsValidStatus reports whether the given status string is a known status.
func IsValidStatus(status string) bool {
	_, ok := AllowedStatusTransitions[status]
	return ok
}

// TailorOrder is the central order record: customer, garment template,
// measurements, style selections, fabric requirement, lifecycle status and
// the gates that guard it.
type TailorOrder struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Reference  string `gorm:"uniqueIndex;not null" json:"reference"` // TO-xxxxx
	CustomerID uint   `gorm:"not null;index" json:"customer_id"`
	Customer   User   `gorm:"foreignKey:CustomerID" json:"customer"`
	SalesID    *uint  `gorm:"index" json:"sales_id"` // staff member who took the order
	Sales      *User  `gorm:"foreignKey:SalesID" json:"sales,omitempty"`

	GarmentTemplate  string   `gorm:"not null;default:'arabic_kandura'" json:"garment_template"`
	GarmentProductID *uint    `gorm:"index" json:"garment_product_id"` // finished garment, produced by the MO and billed on the SO
	GarmentProduct   *Product `gorm:"foreignKey:GarmentProductID" json:"garment_product,omitempty"`
	Quantity         int      `gorm:"not null;default:1;check:quantity > 0" json:"quantity"`

	// Body measurements in centimeters.
	Length        float64 `json:"length"`
	ShoulderWidth float64 `json:"shoulder_width"`
	SleeveLength  float64 `json:"sleeve_length"`
	Chest         float64 `json:"chest"`
	Waist         float64 `json:"waist"`
	Hip           float64 `json:"hip"`
	Neck          float64 `json:"neck"`
	BottomWidth   float64 `json:"bottom_width"`

	// Style selections, validated against the garment template's style rules.
	FrontDesign    string `json:"front_design"`
	SleeveStyle    string `json:"sleeve_style"`
	CollarStyle    string `json:"collar_style"`
	CuffStyle      string `json:"cuff_style"`
	ButtonStyle    string `json:"button_style"`
	StitchingStyle string `json:"stitching_style"`
	PocketChest    bool   `json:"pocket_chest"`
	PocketSideLeft bool   `json:"pocket_side_left"`
	PocketSideRight bool  `json:"pocket_side_right"`
	PocketInnerLeft bool  `json:"pocket_inner_left"`
	PocketInnerRight bool `json:"pocket_inner_right"`

	// Fabric requirement. FabricQty is auto-computed from the measurements
	// unless FabricQtyManual is set (stock/admin, draft only).
	FabricProductID *uint    `gorm:"index" json:"fabric_product_id"`
	FabricProduct   *Product `gorm:"foreignKey:FabricProductID" json:"fabric_product,omitempty"`
	FabricQty       float64  `json:"fabric_qty"` // meters
	FabricQtyManual bool     `json:"fabric_qty_is_manual"`
	FabricUnitCost  float64  `json:"fabric_unit_cost"`
	FabricDeducted  bool     `json:"fabric_deducted"`

	// Dates. DeliveryDate defaults to OrderDate plus the lead time unless
	// DeliveryDateManual is set.
	OrderDate          time.Time  `json:"order_date"`
	BookingDate        *time.Time `json:"booking_date"`
	TrialDate          *time.Time `json:"trial_date"`
	DeliveryDate       *time.Time `json:"delivery_date"`
	DeliveryDateManual bool       `json:"delivery_date_is_manual"`

	Status          string     `gorm:"not null;default:'draft';index" json:"status"`
	StatusChangedBy *uint      `json:"status_changed_by"`
	StatusChangedOn *time.Time `json:"status_changed_on"`

	CustomerApproved   bool       `json:"customer_approved"`
	CustomerApprovedOn *time.Time `json:"customer_approved_on"`

	// Materials gate: stock check must precede the admin approval, and both
	// must hold before cutting or sewing.
	StockChecked           bool       `json:"stock_checked"`
	StockCheckedByID       *uint      `json:"stock_checked_by_id"`
	StockCheckedOn         *time.Time `json:"stock_checked_on"`
	AdminMaterialsApproved bool       `json:"admin_materials_approved"`
	MaterialsApprovedByID  *uint      `json:"materials_approved_by_id"`
	MaterialsApprovedOn    *time.Time `json:"materials_approved_on"`

	MeasurementsLocked bool `json:"measurements_locked"`

	// QC checklist. All five must be true before QC approval.
	QCMeasurements bool       `json:"qc_measurements"`
	QCFabric       bool       `json:"qc_fabric"`
	QCStitching    bool       `json:"qc_stitching"`
	QCStyle        bool       `json:"qc_style"`
	QCFinishing    bool       `json:"qc_finishing"`
	QCComment      *string    `json:"qc_comment"`
	QCApproved     bool       `json:"qc_approved"`
	QCApprovedByID *uint      `json:"qc_approved_by_id"`
	QCApprovedOn   *time.Time `json:"qc_approved_on"`

	AccessoriesPushed bool `json:"accessories_pushed"`

	AdvancePayment float64 `json:"advance_payment"`

	SaleOrderID *uint      `gorm:"index" json:"sale_order_id"`
	SaleOrder   *SaleOrder `gorm:"foreignKey:SaleOrderID" json:"sale_order,omitempty"`

	AccessoryLines      []AccessoryLine      `gorm:"foreignKey:OrderID" json:"accessory_lines,omitempty"`
	ManufacturingOrders []ManufacturingOrder `gorm:"foreignKey:OrderID" json:"manufacturing_orders,omitempty"`
	Documents           []Document           `gorm:"foreignKey:OrderID" json:"documents,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the TailorOrder model
func (TailorOrder) TableName() string {
	return "tailor_orders"
}

// Origin is the string that links generated sale and manufacturing orders
// back to this order.
func (o *TailorOrder) Origin() string {
	return o.Reference
}

// InProduction reports whether the order is in a production stage.
func (o *TailorOrder) InProduction() bool {
	switch o.Status {
	case StatusCutting, StatusSewing, StatusQC:
		return true
	}
	return false
}

// MaterialsGateOpen reports whether both halves of the materials gate hold.
func (o *TailorOrder) MaterialsGateOpen() bool {
	return o.StockChecked && o.AdminMaterialsApproved
}

// QCChecklistComplete reports whether all five checklist items are true.
func (o *TailorOrder) QCChecklistComplete() bool {
	return o.QCMeasurements && o.QCFabric && o.QCStitching && o.QCStyle && o.QCFinishing
}

// StyleRule restricts a style field to a set of values for one template.
type StyleRule struct {
	Field   string
	Allowed []string
}

// styleRules lists the selectable values per garment template. An empty
// selection is always allowed.
var styleRules = map[string][]StyleRule{
	TemplateArabicKandura: {
		{Field: "front_design", Allowed: []string{"plain", "zipper", "hidden_buttons"}},
		{Field: "sleeve_style", Allowed: []string{"regular", "cuff"}},
		{Field: "collar_style", Allowed: []string{"round", "classic", "chinese"}},
		{Field: "cuff_style", Allowed: []string{"single", "double"}},
		{Field: "button_style", Allowed: []string{"standard", "fabric_covered"}},
		{Field: "stitching_style", Allowed: []string{"single", "double"}},
	},
	TemplateKuwaitiKandura: {
		{Field: "front_design", Allowed: []string{"plain", "visible_buttons"}},
		{Field: "sleeve_style", Allowed: []string{"regular", "wide"}},
		{Field: "collar_style", Allowed: []string{"classic", "shirt"}},
		{Field: "cuff_style", Allowed: []string{"single", "double", "french"}},
		{Field: "button_style", Allowed: []string{"standard", "pearl"}},
		{Field: "stitching_style", Allowed: []string{"single", "double"}},
	},
}

// ValidateStyles checks the order's style selections against its template.
// It returns the first offending field name, or "" if all selections are
// valid.
func (o *TailorOrder) ValidateStyles() string {
	rules, ok := styleRules[o.GarmentTemplate]
	if !ok {
		return "garment_template"
	}
	values := map[string]string{
		"front_design":    o.FrontDesign,
		"sleeve_style":    o.SleeveStyle,
		"collar_style":    o.CollarStyle,
		"cuff_style":      o.CuffStyle,
		"button_style":    o.ButtonStyle,
		"stitching_style": o.StitchingStyle,
	}
	for _, rule := range rules {
		value := values[rule.Field]
		if value == "" {
			continue
		}
		allowed := false
		for _, a := range rule.Allowed {
			if a == value {
				allowed = true
				break
			}
		}
		if !allowed {
			return rule.Field
		}
	}
	return ""
}
