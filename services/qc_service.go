package services

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/atelier-labs/tailor-orders-api/config"
	"github.com/atelier-labs/tailor-orders-api/models"
)

// QCChecklistInput carries edits to the five checklist items. Nil fields
// are left untouched.
type QCChecklistInput struct {
	Measurements *bool
	Fabric       *bool
	Stitching    *bool
	Style        *bool
	Finishing    *bool
	Comment      *string
}

// UpdateQCChecklist edits the checklist. QC and admin roles only, and only
// while the order sits in qc.
func (s *OrderService) UpdateQCChecklist(actor models.Actor, orderID uint, input QCChecklistInput) (*models.TailorOrder, error) {
	if !actor.HasAnyRole(models.RoleQC, models.RoleAdmin) {
		return nil, forbidden("Only QC or admins can edit the QC checklist")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := loadOrderTx(tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.StatusQC {
			return validation("The QC checklist can only be edited while the order is in qc")
		}

		if input.Measurements != nil {
			order.QCMeasurements = *input.Measurements
		}
		if input.Fabric != nil {
			order.QCFabric = *input.Fabric
		}
		if input.Stitching != nil {
			order.QCStitching = *input.Stitching
		}
		if input.Style != nil {
			order.QCStyle = *input.Style
		}
		if input.Finishing != nil {
			order.QCFinishing = *input.Finishing
		}
		if input.Comment != nil {
			order.QCComment = input.Comment
		}
		return tx.Save(order).Error
	})
	if err != nil {
		return nil, err
	}
	return s.loadOrder(orderID)
}

// ApproveQC grants QC approval: status must be qc, all five checklist items
// true, role QC or admin. Production gets notified for the final handoff.
func (s *OrderService) ApproveQC(actor models.Actor, orderID uint) (*models.TailorOrder, error) {
	if !actor.HasAnyRole(models.RoleQC, models.RoleAdmin) {
		return nil, forbidden("Only QC or admins can approve QC")
	}

	var events []Event
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := loadOrderTx(tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.StatusQC {
			return validation("QC can only be approved while the order is in qc")
		}
		if !order.QCChecklistComplete() {
			return &RuleError{Code: CodeQCIncomplete, Message: "All five QC checklist items must pass before approval"}
		}
		if order.QCApproved {
			return nil
		}

		now := time.Now()
		order.QCApproved = true
		order.QCApprovedByID = &actor.UserID
		order.QCApprovedOn = &now
		if err := tx.Save(order).Error; err != nil {
			return err
		}

		events = append(events, newEvent(EventQCApproved, order, actor, order.Status, order.Status, false, ""))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(events...)
	if len(events) > 0 {
		config.Logger().Info("qc approved", zap.Uint("order_id", orderID), zap.Uint("actor_id", actor.UserID))
	}
	return s.loadOrder(orderID)
}
