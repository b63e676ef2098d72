package models

import (
	"time"

	"gorm.io/gorm"
)

// AccessoryLine is a child line of a tailor order: buttons, zippers, thread
// and similar extras. Lines are pushed once into the manufacturing order's
// material moves when the order is confirmed.
type AccessoryLine struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   uint        `gorm:"not null;index" json:"order_id"`
	Order     TailorOrder `gorm:"foreignKey:OrderID" json:"-"`
	ProductID uint        `gorm:"not null;index" json:"product_id"`
	Product   Product     `gorm:"foreignKey:ProductID" json:"product"`

	Quantity float64 `gorm:"not null;default:1" json:"quantity"`
	Type     string  `json:"type"` // button, zipper, thread, lining, other
	Color    *string `json:"color"`
	Size     *string `json:"size"`
	Notes    *string `json:"notes"`

	CustomerProvided bool `json:"customer_provided"`
	Required         bool `json:"required"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the AccessoryLine model
func (AccessoryLine) TableName() string {
	return "accessory_lines"
}
