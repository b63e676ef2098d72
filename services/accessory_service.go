package services

import (
	"gorm.io/gorm"

	"github.com/atelier-labs/tailor-orders-api/models"
)

// AccessoryLineInput describes one accessory line to add to an order.
type AccessoryLineInput struct {
	ProductID        uint
	Quantity         float64
	Type             string
	Color            *string
	Size             *string
	Notes            *string
	CustomerProvided bool
	Required         bool
}

// AddAccessoryLine adds an accessory to a draft order. Lines cannot change
// once they have been pushed to the manufacturing order.
func (s *OrderService) AddAccessoryLine(actor models.Actor, orderID uint, input AccessoryLineInput) (*models.TailorOrder, error) {
	if !actor.HasAnyRole(models.RoleSales, models.RoleStock, models.RoleAdmin) {
		return nil, forbidden("Only staff can edit accessory lines")
	}
	if input.Quantity <= 0 {
		return nil, validation("Accessory quantity must be positive")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := loadOrderTx(tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.StatusDraft {
			return validation("Accessory lines can only be edited while the order is in draft")
		}

		var product models.Product
		if err := tx.First(&product, input.ProductID).Error; err != nil {
			return notFound("Accessory product not found")
		}

		line := models.AccessoryLine{
			OrderID:          order.ID,
			ProductID:        input.ProductID,
			Quantity:         input.Quantity,
			Type:             input.Type,
			Color:            input.Color,
			Size:             input.Size,
			Notes:            input.Notes,
			CustomerProvided: input.CustomerProvided,
			Required:         input.Required,
		}
		return tx.Create(&line).Error
	})
	if err != nil {
		return nil, err
	}
	return s.loadOrder(orderID)
}

// RemoveAccessoryLine deletes an accessory line from a draft order.
func (s *OrderService) RemoveAccessoryLine(actor models.Actor, orderID, lineID uint) (*models.TailorOrder, error) {
	if !actor.HasAnyRole(models.RoleSales, models.RoleStock, models.RoleAdmin) {
		return nil, forbidden("Only staff can edit accessory lines")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := loadOrderTx(tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.StatusDraft {
			return validation("Accessory lines can only be edited while the order is in draft")
		}

		result := tx.Where("id = ? AND order_id = ?", lineID, order.ID).Delete(&models.AccessoryLine{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return notFound("Accessory line not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.loadOrder(orderID)
}
