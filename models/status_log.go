package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderStatusLog records one status transition on a tailor order, including
// admin overrides of the transition rules.
type OrderStatusLog struct {
	ID      uint        `gorm:"primaryKey" json:"id"`
	OrderID uint        `gorm:"not null;index" json:"order_id"`
	Order   TailorOrder `gorm:"foreignKey:OrderID" json:"-"`
	ActorID uint        `gorm:"not null;index" json:"actor_id"`
	Actor   User        `gorm:"foreignKey:ActorID" json:"actor"`

	FromStatus string  `gorm:"not null" json:"from_status"`
	ToStatus   string  `gorm:"not null" json:"to_status"`
	Override   bool    `json:"override"`
	Reason     *string `json:"reason"` // required when Override is set

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the OrderStatusLog model
func (OrderStatusLog) TableName() string {
	return "order_status_logs"
}
