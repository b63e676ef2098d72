package models

import (
	"time"

	"gorm.io/gorm"
)

// Product types.
const (
	ProductTypeFabric    = "fabric"
	ProductTypeAccessory = "accessory"
	ProductTypeGarment   = "garment"
)

// Stock move states.
const (
	MoveStateDraft     = "draft"
	MoveStateConfirmed = "confirmed"
	MoveStateAssigned  = "assigned"
	MoveStateDone      = "done"
	MoveStateCancel    = "cancel"
)

// Product is anything held in stock: fabrics (tracked in meters),
// accessories and finished garments.
type Product struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Type      string         `gorm:"not null;default:'fabric'" json:"type"`
	UnitPrice string         `gorm:"not null;default:'0'" json:"unit_price"`
	UoM       string         `gorm:"not null;default:'m'" json:"uom"` // m, unit
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// StockLevel holds on-hand and reserved quantities for a product at one
// location. Available quantity is on-hand minus reserved.
type StockLevel struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	ProductID uint    `gorm:"not null;uniqueIndex:idx_stock_product_location" json:"product_id"`
	Product   Product `gorm:"foreignKey:ProductID" json:"product"`
	Location  string  `gorm:"not null;default:'main';uniqueIndex:idx_stock_product_location" json:"location"`

	OnHand   float64 `gorm:"not null;default:0" json:"on_hand"`
	Reserved float64 `gorm:"not null;default:0" json:"reserved"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the StockLevel model
func (StockLevel) TableName() string {
	return "stock_levels"
}

// Available returns the quantity free to promise at this location.
func (s *StockLevel) Available() float64 {
	return s.OnHand - s.Reserved
}

// StockMove is one quantity movement of a product. The idempotency key makes
// side-effect deductions exactly-once: re-running the producing operation
// finds the existing move by key instead of creating a second one.
type StockMove struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	ProductID uint    `gorm:"not null;index" json:"product_id"`
	Product   Product `gorm:"foreignKey:ProductID" json:"product"`
	OrderID   *uint   `gorm:"index" json:"order_id"`
	MOID      *uint   `gorm:"index" json:"mo_id"`

	Quantity       float64 `gorm:"not null" json:"quantity"`
	Location       string  `gorm:"not null;default:'main'" json:"location"`
	State          string  `gorm:"not null;default:'draft'" json:"state"`
	IdempotencyKey string  `gorm:"uniqueIndex;not null" json:"idempotency_key"`
	Reason         string  `json:"reason"`

	DoneOn *time.Time `json:"done_on"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the StockMove model
func (StockMove) TableName() string {
	return "stock_moves"
}
