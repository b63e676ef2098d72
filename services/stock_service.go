package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/atelier-labs/tailor-orders-api/models"
)

// AvailableQty returns the quantity of a product free to promise at a
// location. A product with no stock level record has zero availability.
func AvailableQty(db *gorm.DB, productID uint, location string) (float64, error) {
	var level models.StockLevel
	err := db.Where("product_id = ? AND location = ?", productID, location).First(&level).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return level.Available(), nil
}

// DeductStock creates and completes a stock move for the given quantity,
// keyed for exactly-once execution. If a move with the same idempotency key
// already exists the call is a no-op returning the existing move. The
// caller's transaction provides atomicity.
func DeductStock(db *gorm.DB, productID uint, qty float64, location, idempotencyKey, reason string, orderID, moID *uint) (*models.StockMove, error) {
	var existing models.StockMove
	err := db.Where("idempotency_key = ?", idempotencyKey).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var level models.StockLevel
	if err := db.Where("product_id = ? AND location = ?", productID, location).First(&level).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &RuleError{Code: CodeStockShortfall, Message: "No stock available at this location"}
		}
		return nil, err
	}
	// Physical feasibility only. The availability rule (on-hand minus
	// reserved) is checked by the confirm precondition before any
	// reservation for this order exists.
	if level.OnHand < qty {
		return nil, &RuleError{
			Code:    CodeStockShortfall,
			Message: fmt.Sprintf("Insufficient stock: need %.2f, only %.2f on hand", qty, level.OnHand),
		}
	}

	level.OnHand -= qty
	// A reservation held for this demand is consumed along with it;
	// fabric is deducted directly at confirmation and holds none.
	level.Reserved -= qty
	if level.Reserved < 0 {
		level.Reserved = 0
	}
	if err := db.Save(&level).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	move := models.StockMove{
		ProductID:      productID,
		OrderID:        orderID,
		MOID:           moID,
		Quantity:       qty,
		Location:       location,
		State:          models.MoveStateDone,
		IdempotencyKey: idempotencyKey,
		Reason:         reason,
		DoneOn:         &now,
	}
	if err := db.Create(&move).Error; err != nil {
		return nil, err
	}
	return &move, nil
}

// ReserveStock moves quantity from available to reserved without consuming
// it. Confirmation reserves each stocked accessory demand this way so the
// committed quantity stops counting as available.
func ReserveStock(db *gorm.DB, productID uint, qty float64, location string) error {
	var level models.StockLevel
	if err := db.Where("product_id = ? AND location = ?", productID, location).First(&level).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &RuleError{Code: CodeStockShortfall, Message: "No stock available at this location"}
		}
		return err
	}
	if level.Available() < qty {
		return &RuleError{
			Code:    CodeStockShortfall,
			Message: fmt.Sprintf("Insufficient stock: need %.2f, only %.2f available", qty, level.Available()),
		}
	}
	level.Reserved += qty
	return db.Save(&level).Error
}

// ReleaseReservation returns previously reserved quantity to availability.
// Reserved never drops below zero.
func ReleaseReservation(db *gorm.DB, productID uint, qty float64, location string) error {
	var level models.StockLevel
	err := db.Where("product_id = ? AND location = ?", productID, location).First(&level).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	level.Reserved -= qty
	if level.Reserved < 0 {
		level.Reserved = 0
	}
	return db.Save(&level).Error
}
