package models

import (
	"time"

	"gorm.io/gorm"
)

// MeasurementSnapshot is an immutable copy of an order's measurements taken
// when the order is confirmed, one per sale order. The latest snapshot for a
// (customer, template) pair prefills new draft orders. Snapshots taken from
// the AI wizard carry provenance fields.
type MeasurementSnapshot struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	OrderID     uint        `gorm:"not null;index" json:"order_id"`
	Order       TailorOrder `gorm:"foreignKey:OrderID" json:"-"`
	SaleOrderID *uint       `gorm:"uniqueIndex" json:"sale_order_id"` // nil for AI wizard snapshots
	CustomerID  uint        `gorm:"not null;index" json:"customer_id"`
	Customer    User        `gorm:"foreignKey:CustomerID" json:"-"`

	GarmentTemplate string `gorm:"not null" json:"garment_template"`

	Length        float64 `json:"length"`
	ShoulderWidth float64 `json:"shoulder_width"`
	SleeveLength  float64 `json:"sleeve_length"`
	Chest         float64 `json:"chest"`
	Waist         float64 `json:"waist"`
	Hip           float64 `json:"hip"`
	Neck          float64 `json:"neck"`
	BottomWidth   float64 `json:"bottom_width"`

	AIMeasured   bool     `json:"ai_measured"`
	AIConfidence *float64 `json:"ai_confidence"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the MeasurementSnapshot model
func (MeasurementSnapshot) TableName() string {
	return "measurement_snapshots"
}
