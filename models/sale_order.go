package models

import (
	"time"

	"gorm.io/gorm"
)

// VATPercent is the value-added tax rate applied to sale orders.
const VATPercent = 5.0

// SaleOrder is the billing record generated when a tailor order is
// confirmed. Amounts are stored as numeric strings produced by decimal math
// in the services layer, never float arithmetic.
type SaleOrder struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Reference  string `gorm:"uniqueIndex;not null" json:"reference"` // SO-xxxxx
	CustomerID uint   `gorm:"not null;index" json:"customer_id"`
	Customer   User   `gorm:"foreignKey:CustomerID" json:"customer"`
	Origin     string `gorm:"not null;index" json:"origin"` // tailor order reference

	Lines []SaleOrderLine `gorm:"foreignKey:SaleOrderID" json:"lines,omitempty"`

	SubtotalAmount string `gorm:"not null;default:'0'" json:"subtotal_amount"`
	VATAmount      string `gorm:"not null;default:'0'" json:"vat_amount"`
	TotalAmount    string `gorm:"not null;default:'0'" json:"total_amount"`
	AdvancePayment string `gorm:"not null;default:'0'" json:"advance_payment"`
	BalanceAmount  string `gorm:"not null;default:'0'" json:"balance_amount"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the SaleOrder model
func (SaleOrder) TableName() string {
	return "sale_orders"
}

// SaleOrderLine is one billed line of a sale order.
type SaleOrderLine struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SaleOrderID uint      `gorm:"not null;index" json:"sale_order_id"`
	SaleOrder   SaleOrder `gorm:"foreignKey:SaleOrderID" json:"-"`
	ProductID   uint      `gorm:"not null;index" json:"product_id"`
	Product     Product   `gorm:"foreignKey:ProductID" json:"product"`

	Description string  `json:"description"`
	Quantity    float64 `gorm:"not null;default:1" json:"quantity"`
	UnitPrice   string  `gorm:"not null;default:'0'" json:"unit_price"`
	Amount      string  `gorm:"not null;default:'0'" json:"amount"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the SaleOrderLine model
func (SaleOrderLine) TableName() string {
	return "sale_order_lines"
}
