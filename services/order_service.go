package services

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/atelier-labs/tailor-orders-api/config"
	"github.com/atelier-labs/tailor-orders-api/models"
)

// DefaultLeadDays is the order lead time used to default the delivery date.
const DefaultLeadDays = 14

// StockLocation is the single stock location orders draw from.
const StockLocation = "main"

// OrderService owns the order lifecycle: creation, guarded writes, the
// status state machine and its side effects. Every public method is one
// transaction; events are published only after the transaction commits.
type OrderService struct {
	db       *gorm.DB
	notifier Notifier
}

// NewOrderService builds an order service on the given database handle.
func NewOrderService(db *gorm.DB, notifier Notifier) *OrderService {
	if notifier == nil {
		notifier = GetNotifier()
	}
	return &OrderService{db: db, notifier: notifier}
}

// transitionRoles lists the roles allowed to take each edge of the status
// table. Cancel edges are absent: cancelling is admin-only regardless of the
// current status.
var transitionRoles = map[string][]string{
	models.StatusDraft + ">" + models.StatusConfirmed:          {models.RoleStock, models.RoleAdmin},
	models.StatusConfirmed + ">" + models.StatusCutting:        {models.RoleTailor},
	models.StatusCutting + ">" + models.StatusSewing:           {models.RoleTailor},
	models.StatusSewing + ">" + models.StatusQC:                {models.RoleTailor, models.RoleQC},
	models.StatusQC + ">" + models.StatusReadyDelivery:         {models.RoleTailor, models.RoleQC},
	models.StatusQC + ">" + models.StatusSewing:                {models.RoleTailor, models.RoleQC},
	models.StatusReadyDelivery + ">" + models.StatusDelivered:  {models.RoleSales, models.RoleAdmin},
}

// qcResetStatuses are the regression targets that clear QC approval.
var qcResetStatuses = map[string]bool{
	models.StatusDraft:   true,
	models.StatusCutting: true,
	models.StatusSewing:  true,
	models.StatusCancel:  true,
}

// CreateOrderInput carries the fields a new draft order is built from.
type CreateOrderInput struct {
	CustomerID       uint
	GarmentTemplate  string
	GarmentProductID *uint
	Quantity         int

	Length        float64
	ShoulderWidth float64
	SleeveLength  float64
	Chest         float64
	Waist         float64
	Hip           float64
	Neck          float64
	BottomWidth   float64

	FrontDesign      string
	SleeveStyle      string
	CollarStyle      string
	CuffStyle        string
	ButtonStyle      string
	StitchingStyle   string
	PocketChest      bool
	PocketSideLeft   bool
	PocketSideRight  bool
	PocketInnerLeft  bool
	PocketInnerRight bool

	FabricProductID *uint
	AdvancePayment  float64

	BookingDate  *time.Time
	TrialDate    *time.Time
	DeliveryDate *time.Time
}

// CreateOrder creates a draft order for a customer. Sales and admin roles
// only. The fabric estimate is computed, the delivery date defaulted from
// the lead time and the required document set seeded, all in one
// transaction.
func (s *OrderService) CreateOrder(actor models.Actor, input CreateOrderInput) (*models.TailorOrder, error) {
	if !actor.HasAnyRole(models.RoleSales, models.RoleAdmin) {
		return nil, forbidden("Only sales or admins can create orders")
	}
	if input.Quantity <= 0 {
		return nil, validation("Quantity must be positive")
	}

	var customer models.User
	if err := s.db.First(&customer, input.CustomerID).Error; err != nil {
		return nil, notFound("Customer not found")
	}
	if customer.Role != models.RoleCustomer {
		return nil, validation("Orders can only be placed for customer accounts")
	}

	now := time.Now()
	order := models.TailorOrder{
		CustomerID:       input.CustomerID,
		SalesID:          &actor.UserID,
		GarmentTemplate:  input.GarmentTemplate,
		GarmentProductID: input.GarmentProductID,
		Quantity:         input.Quantity,
		Length:           input.Length,
		ShoulderWidth:    input.ShoulderWidth,
		SleeveLength:     input.SleeveLength,
		Chest:            input.Chest,
		Waist:            input.Waist,
		Hip:              input.Hip,
		Neck:             input.Neck,
		BottomWidth:      input.BottomWidth,
		FrontDesign:      input.FrontDesign,
		SleeveStyle:      input.SleeveStyle,
		CollarStyle:      input.CollarStyle,
		CuffStyle:        input.CuffStyle,
		ButtonStyle:      input.ButtonStyle,
		StitchingStyle:   input.StitchingStyle,
		PocketChest:      input.PocketChest,
		PocketSideLeft:   input.PocketSideLeft,
		PocketSideRight:  input.PocketSideRight,
		PocketInnerLeft:  input.PocketInnerLeft,
		PocketInnerRight: input.PocketInnerRight,
		FabricProductID:  input.FabricProductID,
		AdvancePayment:   input.AdvancePayment,
		OrderDate:        now,
		BookingDate:      input.BookingDate,
		TrialDate:        input.TrialDate,
		Status:           models.StatusDraft,
	}

	if field := order.ValidateStyles(); field != "" {
		return nil, validation(fmt.Sprintf("Invalid %s selection for template %s", field, order.GarmentTemplate))
	}
	if err := RecomputeFabricQty(&order); err != nil {
		return nil, err
	}

	if input.DeliveryDate != nil {
		order.DeliveryDate = input.DeliveryDate
		order.DeliveryDateManual = true
	} else {
		due := now.AddDate(0, 0, DefaultLeadDays)
		order.DeliveryDate = &due
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		order.Reference = nextReference(tx, "TO", &models.TailorOrder{})
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		return ensureRequiredDocuments(tx, &order)
	})
	if err != nil {
		return nil, err
	}

	config.Logger().Info("order created",
		zap.String("reference", order.Reference),
		zap.Uint("customer_id", order.CustomerID),
		zap.Uint("actor_id", actor.UserID))
	return s.loadOrder(order.ID)
}

// UpdateOrderInput carries partial updates to a draft order. Nil fields are
// left untouched.
type UpdateOrderInput struct {
	GarmentTemplate  *string
	GarmentProductID *uint
	Quantity         *int

	Length        *float64
	ShoulderWidth *float64
	SleeveLength  *float64
	Chest         *float64
	Waist         *float64
	Hip           *float64
	Neck          *float64
	BottomWidth   *float64

	FrontDesign    *string
	SleeveStyle    *string
	CollarStyle    *string
	CuffStyle      *string
	ButtonStyle    *string
	StitchingStyle *string

	FabricProductID *uint
	AdvancePayment  *float64

	BookingDate  *time.Time
	TrialDate    *time.Time
	DeliveryDate *time.Time
}

// UpdateOrder applies partial edits to an order. Measurements, template and
// styles are only editable in draft and never once measurements are locked;
// sales can edit only their orders' commercial fields after draft. The
// fabric estimate is recomputed when its inputs change.
func (s *OrderService) UpdateOrder(actor models.Actor, orderID uint, input UpdateOrderInput) (*models.TailorOrder, error) {
	if !actor.HasAnyRole(models.RoleSales, models.RoleStock, models.RoleAdmin) {
		return nil, forbidden("Only staff can edit orders")
	}

	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}

	touchesMeasurements := input.Length != nil || input.ShoulderWidth != nil ||
		input.SleeveLength != nil || input.Chest != nil || input.Waist != nil ||
		input.Hip != nil || input.Neck != nil || input.BottomWidth != nil ||
		input.GarmentTemplate != nil || input.Quantity != nil
	touchesStyles := input.FrontDesign != nil || input.SleeveStyle != nil ||
		input.CollarStyle != nil || input.CuffStyle != nil ||
		input.ButtonStyle != nil || input.StitchingStyle != nil

	if touchesMeasurements && order.MeasurementsLocked {
		return nil, &RuleError{Code: CodeMeasurementsLocked, Message: "Measurements are locked once the order is confirmed"}
	}
	if (touchesMeasurements || touchesStyles) && order.Status != models.StatusDraft && !actor.IsAdmin() {
		return nil, validation("Measurements and styles can only be edited while the order is in draft")
	}

	applyString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	applyFloat := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}

	applyString(&order.GarmentTemplate, input.GarmentTemplate)
	if input.GarmentProductID != nil {
		order.GarmentProductID = input.GarmentProductID
	}
	if input.Quantity != nil {
		if *input.Quantity <= 0 {
			return nil, validation("Quantity must be positive")
		}
		order.Quantity = *input.Quantity
	}
	applyFloat(&order.Length, input.Length)
	applyFloat(&order.ShoulderWidth, input.ShoulderWidth)
	applyFloat(&order.SleeveLength, input.SleeveLength)
	applyFloat(&order.Chest, input.Chest)
	applyFloat(&order.Waist, input.Waist)
	applyFloat(&order.Hip, input.Hip)
	applyFloat(&order.Neck, input.Neck)
	applyFloat(&order.BottomWidth, input.BottomWidth)
	applyString(&order.FrontDesign, input.FrontDesign)
	applyString(&order.SleeveStyle, input.SleeveStyle)
	applyString(&order.CollarStyle, input.CollarStyle)
	applyString(&order.CuffStyle, input.CuffStyle)
	applyString(&order.ButtonStyle, input.ButtonStyle)
	applyString(&order.StitchingStyle, input.StitchingStyle)
	if input.FabricProductID != nil {
		order.FabricProductID = input.FabricProductID
	}
	if input.AdvancePayment != nil {
		order.AdvancePayment = *input.AdvancePayment
	}
	if input.BookingDate != nil {
		order.BookingDate = input.BookingDate
	}
	if input.TrialDate != nil {
		order.TrialDate = input.TrialDate
	}
	if input.DeliveryDate != nil {
		order.DeliveryDate = input.DeliveryDate
		order.DeliveryDateManual = true
	}

	if field := order.ValidateStyles(); field != "" {
		return nil, validation(fmt.Sprintf("Invalid %s selection for template %s", field, order.GarmentTemplate))
	}
	if touchesMeasurements {
		if err := RecomputeFabricQty(order); err != nil {
			return nil, err
		}
	}

	if err := s.db.Save(order).Error; err != nil {
		return nil, err
	}
	return s.loadOrder(order.ID)
}

// ChangeStatus moves an order along the transition table. An admin may set
// override with a reason to bypass the table, the edge roles and the
// preconditions; the override is recorded in the status log and announced
// as its own event. Overridden or not, QC approval is cleared on regress
// and confirm side effects stay idempotent.
func (s *OrderService) ChangeStatus(actor models.Actor, orderID uint, target string, override bool, reason string) (*models.TailorOrder, error) {
	if !models.IsValidStatus(target) {
		return nil, validation(fmt.Sprintf("Unknown status %q", target))
	}
	if override {
		if !actor.IsAdmin() {
			return nil, forbidden("Only admins can override transition rules")
		}
		if reason == "" {
			return nil, validation("An override requires a reason")
		}
	}

	var events []Event
	var order *models.TailorOrder

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = loadOrderTx(tx, orderID)
		if err != nil {
			return err
		}

		if !override {
			if err := s.authorizeTransition(actor, order, target); err != nil {
				return err
			}
			if err := s.checkPreconditions(tx, order, target); err != nil {
				return err
			}
		}

		return s.applyTransition(tx, actor, order, target, override, reason, &events)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(events...)
	return s.loadOrder(order.ID)
}

// authorizeTransition checks the edge exists and the actor's role may take
// it.
func (s *OrderService) authorizeTransition(actor models.Actor, order *models.TailorOrder, target string) error {
	if !models.CanTransition(order.Status, target) {
		return &RuleError{
			Code:    CodeInvalidTransition,
			Message: fmt.Sprintf("Cannot move order from %s to %s", order.Status, target),
		}
	}

	if target == models.StatusCancel {
		if !actor.IsAdmin() {
			return forbidden("Only admins can cancel orders")
		}
		return nil
	}

	allowed := transitionRoles[order.Status+">"+target]
	if !actor.HasAnyRole(allowed...) {
		return forbidden(fmt.Sprintf("Role %s cannot move an order from %s to %s", actor.Role, order.Status, target))
	}
	return nil
}

// checkPreconditions enforces the stage gates: customer approval and fabric
// availability before confirm, the materials gate before cutting and
// sewing, QC approval before ready_delivery.
func (s *OrderService) checkPreconditions(tx *gorm.DB, order *models.TailorOrder, target string) error {
	switch target {
	case models.StatusConfirmed:
		if !order.CustomerApproved {
			return &RuleError{Code: CodeNotApproved, Message: "Customer approval is required before confirming"}
		}
		if order.FabricProductID == nil {
			return validation("A fabric must be selected before confirming")
		}
		available, err := AvailableQty(tx, *order.FabricProductID, StockLocation)
		if err != nil {
			return err
		}
		if available < order.FabricQty {
			return &RuleError{
				Code:    CodeStockShortfall,
				Message: fmt.Sprintf("Insufficient fabric stock: need %.2f m, only %.2f m available", order.FabricQty, available),
			}
		}
	case models.StatusCutting, models.StatusSewing:
		if !order.MaterialsGateOpen() {
			return &RuleError{
				Code:    CodeGateClosed,
				Message: "Stock check and admin materials approval are both required before production",
			}
		}
	case models.StatusReadyDelivery:
		if !order.QCApproved {
			return &RuleError{Code: CodeNotApproved, Message: "QC approval is required before ready for delivery"}
		}
	}
	return nil
}

// applyTransition mutates the order, runs the stage side effects, writes
// the status log row and collects the events to publish after commit. The
// caller's transaction provides all-or-nothing semantics.
func (s *OrderService) applyTransition(tx *gorm.DB, actor models.Actor, order *models.TailorOrder, target string, override bool, reason string, events *[]Event) error {
	from := order.Status
	now := time.Now()

	order.Status = target
	order.StatusChangedBy = &actor.UserID
	order.StatusChangedOn = &now

	if qcResetStatuses[target] {
		clearQCApproval(order)
	}

	switch target {
	case models.StatusConfirmed:
		if err := s.runConfirmSideEffects(tx, actor, order, from, events); err != nil {
			return err
		}
	case models.StatusCancel:
		if err := cancelManufacturingOrders(tx, order); err != nil {
			return err
		}
		*events = append(*events, newEvent(EventOrderCancelled, order, actor, from, target, override, reason))
	case models.StatusDelivered:
		*events = append(*events, newEvent(EventOrderDelivered, order, actor, from, target, override, reason))
	}

	if err := tx.Save(order).Error; err != nil {
		return err
	}
	if err := syncMOStatus(tx, order); err != nil {
		return err
	}

	logRow := models.OrderStatusLog{
		OrderID:    order.ID,
		ActorID:    actor.UserID,
		FromStatus: from,
		ToStatus:   target,
		Override:   override,
	}
	if reason != "" {
		logRow.Reason = &reason
	}
	if err := tx.Create(&logRow).Error; err != nil {
		return err
	}

	*events = append(*events, newEvent(EventOrderStatusChanged, order, actor, from, target, override, reason))
	if override {
		*events = append(*events, newEvent(EventStatusOverridden, order, actor, from, target, true, reason))
		config.Logger().Warn("order transition overridden",
			zap.String("reference", order.Reference),
			zap.String("from", from),
			zap.String("to", target),
			zap.Uint("actor_id", actor.UserID),
			zap.String("reason", reason))
	}
	return nil
}

// runConfirmSideEffects performs the confirm stage's side effects, each one
// idempotent: lock measurements, generate the sale and manufacturing
// orders, deduct fabric, snapshot measurements and push accessory lines.
func (s *OrderService) runConfirmSideEffects(tx *gorm.DB, actor models.Actor, order *models.TailorOrder, from string, events *[]Event) error {
	order.MeasurementsLocked = true

	if err := generateSaleOrder(tx, order); err != nil {
		return err
	}
	if err := generateManufacturingOrder(tx, order); err != nil {
		return err
	}
	if err := deductFabric(tx, order); err != nil {
		return err
	}
	if err := saveMeasurementSnapshot(tx, order); err != nil {
		return err
	}
	if err := pushAccessoryLines(tx, order); err != nil {
		return err
	}

	*events = append(*events, newEvent(EventOrderConfirmed, order, actor, from, models.StatusConfirmed, false, ""))
	return nil
}

// CheckAndConfirm is the stock manager's single action on a draft order:
// verify customer approval and fabric availability, record the stock check
// and confirm the order.
func (s *OrderService) CheckAndConfirm(actor models.Actor, orderID uint) (*models.TailorOrder, error) {
	if !actor.HasAnyRole(models.RoleStock, models.RoleAdmin) {
		return nil, forbidden("Only stock managers or admins can check and confirm orders")
	}

	var events []Event
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := loadOrderTx(tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.StatusDraft {
			return &RuleError{
				Code:    CodeInvalidTransition,
				Message: fmt.Sprintf("Only draft orders can be confirmed, this one is %s", order.Status),
			}
		}
		if err := s.checkPreconditions(tx, order, models.StatusConfirmed); err != nil {
			return err
		}

		now := time.Now()
		order.StockChecked = true
		order.StockCheckedByID = &actor.UserID
		order.StockCheckedOn = &now

		return s.applyTransition(tx, actor, order, models.StatusConfirmed, false, "", &events)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(events...)
	return s.loadOrder(orderID)
}

// ApproveMaterials is the admin half of the materials gate. The stock check
// must have happened first and the order must be confirmed.
func (s *OrderService) ApproveMaterials(actor models.Actor, orderID uint) (*models.TailorOrder, error) {
	if !actor.IsAdmin() {
		return nil, forbidden("Only admins can approve materials")
	}

	var events []Event
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := loadOrderTx(tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.StatusConfirmed {
			return validation("Materials can only be approved on a confirmed order")
		}
		if !order.StockChecked {
			return &RuleError{Code: CodeGateClosed, Message: "The stock check must happen before materials approval"}
		}
		if order.AdminMaterialsApproved {
			return nil
		}

		now := time.Now()
		order.AdminMaterialsApproved = true
		order.MaterialsApprovedByID = &actor.UserID
		order.MaterialsApprovedOn = &now
		if err := tx.Save(order).Error; err != nil {
			return err
		}

		events = append(events, newEvent(EventMaterialsApproved, order, actor, order.Status, order.Status, false, ""))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(events...)
	return s.loadOrder(orderID)
}

// ApproveByCustomer records the customer's approval of a draft order. It
// never changes the status; confirmation stays with the stock manager.
func (s *OrderService) ApproveByCustomer(customer *models.User, orderID uint) (*models.TailorOrder, error) {
	var events []Event
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := loadOrderTx(tx, orderID)
		if err != nil {
			return err
		}
		if order.CustomerID != customer.ID {
			return notFound("Order not found")
		}
		if order.Status != models.StatusDraft {
			return validation("Only draft orders can be approved")
		}
		if order.CustomerApproved {
			return nil
		}

		now := time.Now()
		order.CustomerApproved = true
		order.CustomerApprovedOn = &now
		if err := tx.Save(order).Error; err != nil {
			return err
		}

		actor := models.ActorFor(customer)
		events = append(events, newEvent(EventCustomerApproved, order, actor, order.Status, order.Status, false, ""))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(events...)
	return s.loadOrder(orderID)
}

// GetOrder loads one order with its relations.
func (s *OrderService) GetOrder(orderID uint) (*models.TailorOrder, error) {
	return s.loadOrder(orderID)
}

// ListOrders returns orders, optionally filtered by status and customer.
func (s *OrderService) ListOrders(status string, customerID uint) ([]models.TailorOrder, error) {
	query := s.db.Preload("Customer").Preload("FabricProduct").Order("id desc")
	if status != "" {
		if !models.IsValidStatus(status) {
			return nil, validation(fmt.Sprintf("Unknown status %q", status))
		}
		query = query.Where("status = ?", status)
	}
	if customerID != 0 {
		query = query.Where("customer_id = ?", customerID)
	}

	var orders []models.TailorOrder
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// StatusLog returns the transition history of an order, newest first.
func (s *OrderService) StatusLog(orderID uint) ([]models.OrderStatusLog, error) {
	var logs []models.OrderStatusLog
	err := s.db.Preload("Actor").Where("order_id = ?", orderID).Order("id desc").Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *OrderService) loadOrder(orderID uint) (*models.TailorOrder, error) {
	var order models.TailorOrder
	err := s.db.
		Preload("Customer").
		Preload("FabricProduct").
		Preload("GarmentProduct").
		Preload("AccessoryLines").
		Preload("AccessoryLines.Product").
		Preload("ManufacturingOrders").
		Preload("SaleOrder").
		Preload("SaleOrder.Lines").
		First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Order not found")
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// loadOrderTx loads an order with the relations the transition guards read,
// inside the caller's transaction. Guards evaluate against this snapshot;
// side effects stay consistent through their idempotency keys rather than
// row locking.
func loadOrderTx(tx *gorm.DB, orderID uint) (*models.TailorOrder, error) {
	var order models.TailorOrder
	err := tx.Preload("AccessoryLines").Preload("FabricProduct").Preload("GarmentProduct").First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Order not found")
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func clearQCApproval(order *models.TailorOrder) {
	order.QCApproved = false
	order.QCApprovedByID = nil
	order.QCApprovedOn = nil
}

func newEvent(eventType string, order *models.TailorOrder, actor models.Actor, from, to string, override bool, reason string) Event {
	return Event{
		Type:       eventType,
		OrderID:    order.ID,
		Reference:  order.Reference,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actor.UserID,
		Override:   override,
		Reason:     reason,
		OccurredAt: time.Now(),
	}
}

// nextReference builds the next sequential reference for a model, e.g.
// TO-00042. Soft-deleted rows still consume their number.
func nextReference(tx *gorm.DB, prefix string, model interface{}) string {
	var maxID *uint
	tx.Unscoped().Model(model).Select("MAX(id)").Scan(&maxID)
	next := uint(1)
	if maxID != nil {
		next = *maxID + 1
	}
	return fmt.Sprintf("%s-%05d", prefix, next)
}
