package models

import (
	"time"

	"gorm.io/gorm"
)

// Manufacturing order states.
const (
	MOStateConfirmed = "confirmed"
	MOStateDone      = "done"
	MOStateCancel    = "cancel"
)

// ManufacturingOrder tracks the production of one tailor order. Its
// TailorStatus is kept in lockstep with the order's status by the sync
// service; the materials gate and QC approval are read from the order by
// reference, never copied.
type ManufacturingOrder struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Reference string      `gorm:"uniqueIndex;not null" json:"reference"` // MO-xxxxx
	OrderID   uint        `gorm:"not null;index" json:"order_id"`
	Order     TailorOrder `gorm:"foreignKey:OrderID" json:"-"`
	ProductID uint        `gorm:"not null;index" json:"product_id"`
	Product   Product     `gorm:"foreignKey:ProductID" json:"product"`

	Quantity     int    `gorm:"not null;default:1" json:"quantity"`
	Origin       string `gorm:"not null;index" json:"origin"` // tailor order reference
	State        string `gorm:"not null;default:'confirmed'" json:"state"`
	TailorStatus string `gorm:"not null;default:'confirmed'" json:"tailor_status"`

	DoneOn *time.Time `json:"done_on"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the ManufacturingOrder model
func (ManufacturingOrder) TableName() string {
	return "manufacturing_orders"
}
