package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/atelier-labs/tailor-orders-api/models"
)

// syncMOStatus keeps every manufacturing order of a tailor order in
// lockstep with the order's status. The push is one-directional here; the
// MO-side actions drive the order through the same transition checks, which
// then land back in this function as a no-op.
func syncMOStatus(tx *gorm.DB, order *models.TailorOrder) error {
	updates := map[string]interface{}{"tailor_status": order.Status}
	if order.Status == models.StatusCancel {
		updates["state"] = models.MOStateCancel
	}
	return tx.Model(&models.ManufacturingOrder{}).
		Where("order_id = ?", order.ID).
		Updates(updates).Error
}

// cancelManufacturingOrders cancels all MOs of an order along with their
// pending material moves, returning reserved quantities to availability.
func cancelManufacturingOrders(tx *gorm.DB, order *models.TailorOrder) error {
	if err := cancelMaterialMoves(tx, order.ID); err != nil {
		return err
	}
	return tx.Model(&models.ManufacturingOrder{}).
		Where("order_id = ? AND state <> ?", order.ID, models.MOStateDone).
		Updates(map[string]interface{}{
			"state":         models.MOStateCancel,
			"tailor_status": models.StatusCancel,
		}).Error
}

// cancelMaterialMoves voids the order's not-yet-consumed material moves.
// Only assigned moves hold a reservation to release.
func cancelMaterialMoves(tx *gorm.DB, orderID uint) error {
	var moves []models.StockMove
	err := tx.Where("order_id = ? AND state IN ?", orderID,
		[]string{models.MoveStateConfirmed, models.MoveStateAssigned}).Find(&moves).Error
	if err != nil {
		return err
	}

	for i := range moves {
		move := &moves[i]
		if move.State == models.MoveStateAssigned {
			if err := ReleaseReservation(tx, move.ProductID, move.Quantity, move.Location); err != nil {
				return err
			}
		}
		move.State = models.MoveStateCancel
		if err := tx.Save(move).Error; err != nil {
			return err
		}
	}
	return nil
}

// moStageTargets maps an MO production stage action to the order status it
// drives.
var moStageTargets = map[string]string{
	"cutting": models.StatusCutting,
	"sewing":  models.StatusSewing,
	"qc":      models.StatusQC,
}

// SyncService drives order status changes from the manufacturing side. All
// stage actions route through the order state machine, so the materials
// gate, edge roles and QC rules hold no matter which side initiates.
type SyncService struct {
	db     *gorm.DB
	orders *OrderService
}

// NewSyncService builds a sync service sharing the order service's rules.
func NewSyncService(db *gorm.DB, notifier Notifier) *SyncService {
	return &SyncService{db: db, orders: NewOrderService(db, notifier)}
}

// GetMO loads one manufacturing order.
func (s *SyncService) GetMO(moID uint) (*models.ManufacturingOrder, error) {
	var mo models.ManufacturingOrder
	err := s.db.Preload("Product").First(&mo, moID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Manufacturing order not found")
	}
	if err != nil {
		return nil, err
	}
	return &mo, nil
}

// ListMOs returns manufacturing orders, newest first.
func (s *SyncService) ListMOs() ([]models.ManufacturingOrder, error) {
	var mos []models.ManufacturingOrder
	if err := s.db.Preload("Product").Order("id desc").Find(&mos).Error; err != nil {
		return nil, err
	}
	return mos, nil
}

// SetStage moves a manufacturing order to a production stage (cutting,
// sewing or qc) by driving its tailor order through the matching
// transition. Already-synchronized stages are a no-op.
func (s *SyncService) SetStage(actor models.Actor, moID uint, stage string) (*models.ManufacturingOrder, error) {
	target, ok := moStageTargets[stage]
	if !ok {
		return nil, validation(fmt.Sprintf("Unknown production stage %q", stage))
	}

	mo, err := s.GetMO(moID)
	if err != nil {
		return nil, err
	}
	if mo.State != models.MOStateConfirmed {
		return nil, validation(fmt.Sprintf("Manufacturing order is %s, production stages need a confirmed one", mo.State))
	}

	order, err := s.orders.GetOrder(mo.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == target && mo.TailorStatus == target {
		return mo, nil
	}

	if _, err := s.orders.ChangeStatus(actor, mo.OrderID, target, false, ""); err != nil {
		return nil, err
	}
	return s.GetMO(moID)
}

// MarkDone completes a manufacturing order. It is gated on the tailor
// order's QC approval; on success the raw-material moves are consumed and
// ready_delivery is pushed to the order.
func (s *SyncService) MarkDone(actor models.Actor, moID uint) (*models.ManufacturingOrder, error) {
	if !actor.HasAnyRole(models.RoleTailor, models.RoleQC) {
		return nil, forbidden("Only tailors or QC can complete a manufacturing order")
	}

	mo, err := s.GetMO(moID)
	if err != nil {
		return nil, err
	}
	if mo.State == models.MOStateDone {
		return mo, nil
	}
	if mo.State != models.MOStateConfirmed {
		return nil, validation(fmt.Sprintf("Cannot complete a %s manufacturing order", mo.State))
	}

	order, err := s.orders.GetOrder(mo.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.QCApproved {
		return nil, &RuleError{Code: CodeNotApproved, Message: "QC approval is required before completing production"}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := consumeMaterialMoves(tx, mo.ID); err != nil {
			return err
		}
		now := time.Now()
		return tx.Model(&models.ManufacturingOrder{}).
			Where("id = ?", mo.ID).
			Updates(map[string]interface{}{"state": models.MOStateDone, "done_on": now}).Error
	})
	if err != nil {
		return nil, err
	}

	// Push ready_delivery to the order side. The order may already be
	// there when delivery readiness was recorded first.
	if order.Status == models.StatusQC {
		if _, err := s.orders.ChangeStatus(actor, order.ID, models.StatusReadyDelivery, false, ""); err != nil {
			return nil, err
		}
	}

	s.orders.notifier.Publish(Event{
		Type:       EventMODone,
		OrderID:    order.ID,
		Reference:  mo.Reference,
		ActorID:    actor.UserID,
		OccurredAt: time.Now(),
	})
	return s.GetMO(moID)
}

// consumeMaterialMoves completes the pending material moves of an MO and
// draws their quantities from stock.
func consumeMaterialMoves(tx *gorm.DB, moID uint) error {
	var moves []models.StockMove
	if err := tx.Where("mo_id = ? AND state <> ?", moID, models.MoveStateDone).Find(&moves).Error; err != nil {
		return err
	}

	now := time.Now()
	for i := range moves {
		move := &moves[i]

		var level models.StockLevel
		err := tx.Where("product_id = ? AND location = ?", move.ProductID, move.Location).First(&level).Error
		if err == nil {
			level.OnHand -= move.Quantity
			// An assigned move consumes the reservation it placed at
			// confirmation; an unreserved confirmed move draws straight
			// from on-hand.
			if move.State == models.MoveStateAssigned {
				level.Reserved -= move.Quantity
				if level.Reserved < 0 {
					level.Reserved = 0
				}
			}
			if err := tx.Save(&level).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		move.State = models.MoveStateDone
		move.DoneOn = &now
		if err := tx.Save(move).Error; err != nil {
			return err
		}
	}
	return nil
}
