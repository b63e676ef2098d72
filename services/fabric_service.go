package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/atelier-labs/tailor-orders-api/models"
)

// Fabric estimation constants. Measurements at or above the threshold are
// assumed to be centimeters and divided by 100.
var (
	cmThreshold      = decimal.NewFromInt(20)
	sleeveFactor     = decimal.RequireFromString("0.6")
	chestFactor      = decimal.RequireFromString("0.2")
	bottomFactor     = decimal.RequireFromString("0.2")
	baseAllowance    = decimal.RequireFromString("0.3")
	roundingStep     = decimal.RequireFromString("0.25")
	minimumFabricQty = decimal.RequireFromString("0.25")
)

var templateMultipliers = map[string]decimal.Decimal{
	models.TemplateArabicKandura:  decimal.RequireFromString("1.05"),
	models.TemplateKuwaitiKandura: decimal.RequireFromString("1.10"),
}

// toMeters normalizes one measurement value. Values of 20 and above are
// centimeters, smaller values are already meters.
func toMeters(value float64) decimal.Decimal {
	d := decimal.NewFromFloat(value)
	if d.GreaterThanOrEqual(cmThreshold) {
		return d.Div(decimal.NewFromInt(100))
	}
	return d
}

// roundUpToStep rounds qty up to the next multiple of the rounding step.
func roundUpToStep(qty decimal.Decimal) decimal.Decimal {
	steps := qty.Div(roundingStep).Ceil()
	return steps.Mul(roundingStep)
}

// EstimateFabricQty computes the fabric requirement in meters for an order:
// per-piece meters from length, sleeve length, chest and bottom width, a
// per-template multiplier, times quantity, rounded up to the 0.25 m step
// with a 0.25 m floor.
func EstimateFabricQty(order *models.TailorOrder) (float64, error) {
	mult, ok := templateMultipliers[order.GarmentTemplate]
	if !ok {
		return 0, validation(fmt.Sprintf("Unknown garment template %q", order.GarmentTemplate))
	}
	if order.Quantity <= 0 {
		return 0, validation("Quantity must be positive")
	}

	perPiece := toMeters(order.Length).
		Add(toMeters(order.SleeveLength).Mul(sleeveFactor)).
		Add(toMeters(order.Chest).Mul(chestFactor)).
		Add(toMeters(order.BottomWidth).Mul(bottomFactor)).
		Add(baseAllowance).
		Mul(mult)

	total := perPiece.Mul(decimal.NewFromInt(int64(order.Quantity)))
	total = roundUpToStep(total)
	if total.LessThan(minimumFabricQty) {
		total = minimumFabricQty
	}

	qty, _ := total.Float64()
	return qty, nil
}

// RecomputeFabricQty refreshes order.FabricQty from the measurements unless
// the manual flag is set. It mutates the order in memory only.
func RecomputeFabricQty(order *models.TailorOrder) error {
	if order.FabricQtyManual {
		return nil
	}
	qty, err := EstimateFabricQty(order)
	if err != nil {
		return err
	}
	order.FabricQty = qty
	return nil
}

// SetManualFabricQty sets a manual fabric quantity on a draft order. Only
// stock and admin roles may override the estimate, and only before the order
// is confirmed.
func SetManualFabricQty(actor models.Actor, order *models.TailorOrder, qty float64) error {
	if !actor.HasAnyRole(models.RoleStock, models.RoleAdmin) {
		return forbidden("Only stock managers or admins can override the fabric quantity")
	}
	if order.Status != models.StatusDraft {
		return &RuleError{Code: CodeValidation, Message: "Fabric quantity can only be overridden while the order is in draft"}
	}
	if qty <= 0 {
		return validation("Fabric quantity must be positive")
	}
	order.FabricQty = qty
	order.FabricQtyManual = true
	return nil
}

// ResetFabricQtyToAuto clears the manual flag and recomputes the estimate.
// Same role and stage rules as the manual override.
func ResetFabricQtyToAuto(actor models.Actor, order *models.TailorOrder) error {
	if !actor.HasAnyRole(models.RoleStock, models.RoleAdmin) {
		return forbidden("Only stock managers or admins can reset the fabric quantity")
	}
	if order.Status != models.StatusDraft {
		return &RuleError{Code: CodeValidation, Message: "Fabric quantity can only be reset while the order is in draft"}
	}
	order.FabricQtyManual = false
	return RecomputeFabricQty(order)
}
