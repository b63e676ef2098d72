package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/atelier-labs/tailor-orders-api/models"
)

var vatRate = decimal.RequireFromString("0.05")

// generateSaleOrder creates the sale order for a confirmed tailor order if
// it does not exist yet, matched by origin so re-confirming never creates a
// second one.
func generateSaleOrder(tx *gorm.DB, order *models.TailorOrder) error {
	if order.SaleOrderID != nil {
		return nil
	}

	var existing models.SaleOrder
	err := tx.Where("origin = ?", order.Origin()).First(&existing).Error
	if err == nil {
		order.SaleOrderID = &existing.ID
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if order.GarmentProductID == nil {
		return validation("A garment product must be set before confirming")
	}
	var garment models.Product
	if err := tx.First(&garment, *order.GarmentProductID).Error; err != nil {
		return notFound("Garment product not found")
	}

	unitPrice, err := decimal.NewFromString(garment.UnitPrice)
	if err != nil {
		return validation(fmt.Sprintf("Garment product %s has an invalid unit price", garment.Name))
	}
	qty := decimal.NewFromInt(int64(order.Quantity))
	amount := unitPrice.Mul(qty)

	subtotal := amount
	vat := subtotal.Mul(vatRate)
	total := subtotal.Add(vat)
	advance := decimal.NewFromFloat(order.AdvancePayment)
	balance := total.Sub(advance)

	saleOrder := models.SaleOrder{
		Reference:      nextReference(tx, "SO", &models.SaleOrder{}),
		CustomerID:     order.CustomerID,
		Origin:         order.Origin(),
		SubtotalAmount: subtotal.StringFixed(2),
		VATAmount:      vat.StringFixed(2),
		TotalAmount:    total.StringFixed(2),
		AdvancePayment: advance.StringFixed(2),
		BalanceAmount:  balance.StringFixed(2),
	}
	if err := tx.Create(&saleOrder).Error; err != nil {
		return err
	}

	line := models.SaleOrderLine{
		SaleOrderID: saleOrder.ID,
		ProductID:   garment.ID,
		Description: fmt.Sprintf("%s (%s)", garment.Name, order.GarmentTemplate),
		Quantity:    float64(order.Quantity),
		UnitPrice:   unitPrice.StringFixed(2),
		Amount:      amount.StringFixed(2),
	}
	if err := tx.Create(&line).Error; err != nil {
		return err
	}

	order.SaleOrderID = &saleOrder.ID
	return nil
}

// generateManufacturingOrder creates the MO for a confirmed order if none
// exists for its origin.
func generateManufacturingOrder(tx *gorm.DB, order *models.TailorOrder) error {
	var existing models.ManufacturingOrder
	err := tx.Where("origin = ?", order.Origin()).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if order.GarmentProductID == nil {
		return validation("A garment product must be set before confirming")
	}

	mo := models.ManufacturingOrder{
		Reference:    nextReference(tx, "MO", &models.ManufacturingOrder{}),
		OrderID:      order.ID,
		ProductID:    *order.GarmentProductID,
		Quantity:     order.Quantity,
		Origin:       order.Origin(),
		State:        models.MOStateConfirmed,
		TailorStatus: models.StatusConfirmed,
	}
	return tx.Create(&mo).Error
}

// deductFabric consumes the order's fabric requirement from stock exactly
// once, keyed by the order reference.
func deductFabric(tx *gorm.DB, order *models.TailorOrder) error {
	if order.FabricDeducted {
		return nil
	}
	if order.FabricProductID == nil {
		return validation("A fabric must be selected before confirming")
	}

	key := fmt.Sprintf("fabric:%s", order.Reference)
	reason := fmt.Sprintf("Fabric for %s", order.Reference)
	if _, err := DeductStock(tx, *order.FabricProductID, order.FabricQty, StockLocation, key, reason, &order.ID, nil); err != nil {
		return err
	}

	if order.FabricUnitCost == 0 && order.FabricProduct != nil {
		if price, err := decimal.NewFromString(order.FabricProduct.UnitPrice); err == nil {
			order.FabricUnitCost, _ = price.Float64()
		}
	}
	order.FabricDeducted = true
	return nil
}

// saveMeasurementSnapshot records the order's measurements once per sale
// order.
func saveMeasurementSnapshot(tx *gorm.DB, order *models.TailorOrder) error {
	if order.SaleOrderID == nil {
		return nil
	}

	var count int64
	if err := tx.Model(&models.MeasurementSnapshot{}).Where("sale_order_id = ?", *order.SaleOrderID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	snapshot := models.MeasurementSnapshot{
		OrderID:         order.ID,
		SaleOrderID:     order.SaleOrderID,
		CustomerID:      order.CustomerID,
		GarmentTemplate: order.GarmentTemplate,
		Length:          order.Length,
		ShoulderWidth:   order.ShoulderWidth,
		SleeveLength:    order.SleeveLength,
		Chest:           order.Chest,
		Waist:           order.Waist,
		Hip:             order.Hip,
		Neck:            order.Neck,
		BottomWidth:     order.BottomWidth,
	}
	return tx.Create(&snapshot).Error
}

// pushAccessoryLines materializes the order's accessory lines as material
// moves on its manufacturing order, exactly once, reserving stock for each
// move so availability reflects confirmed demand. A line stock cannot cover
// stays an unreserved confirmed move. Customer-provided accessories are not
// drawn from stock.
func pushAccessoryLines(tx *gorm.DB, order *models.TailorOrder) error {
	if order.AccessoriesPushed || len(order.AccessoryLines) == 0 {
		return nil
	}

	var mo models.ManufacturingOrder
	if err := tx.Where("origin = ?", order.Origin()).First(&mo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return validation("No manufacturing order to push accessories to")
		}
		return err
	}

	for _, line := range order.AccessoryLines {
		if line.CustomerProvided {
			continue
		}
		key := fmt.Sprintf("acc:%s:%d", order.Reference, line.ID)
		var existing models.StockMove
		err := tx.Where("idempotency_key = ?", key).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		move := models.StockMove{
			ProductID:      line.ProductID,
			OrderID:        &order.ID,
			MOID:           &mo.ID,
			Quantity:       line.Quantity,
			Location:       StockLocation,
			State:          models.MoveStateConfirmed,
			IdempotencyKey: key,
			Reason:         fmt.Sprintf("Accessory for %s", order.Reference),
		}
		if err := ReserveStock(tx, line.ProductID, line.Quantity, StockLocation); err != nil {
			var ruleErr *RuleError
			if !errors.As(err, &ruleErr) || ruleErr.Code != CodeStockShortfall {
				return err
			}
			// Short on this accessory: the move stays confirmed and the
			// shortage surfaces when production consumes it.
		} else {
			move.State = models.MoveStateAssigned
		}
		if err := tx.Create(&move).Error; err != nil {
			return err
		}
	}

	order.AccessoriesPushed = true
	return nil
}
