package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atelier-labs/tailor-orders-api/config"
	"github.com/atelier-labs/tailor-orders-api/models"
	"github.com/atelier-labs/tailor-orders-api/services"
)

func orderService() *services.OrderService {
	return services.NewOrderService(config.GetDB(), services.GetNotifier())
}

// CreateOrderRequest represents the request body for creating an order
type CreateOrderRequest struct {
	CustomerID       uint    `json:"customer_id" binding:"required"`
	GarmentTemplate  string  `json:"garment_template" binding:"required"`
	GarmentProductID *uint   `json:"garment_product_id"`
	Quantity         int     `json:"quantity" binding:"required,gt=0"`
	Length           float64 `json:"length"`
	ShoulderWidth    float64 `json:"shoulder_width"`
	SleeveLength     float64 `json:"sleeve_length"`
	Chest            float64 `json:"chest"`
	Waist            float64 `json:"waist"`
	Hip              float64 `json:"hip"`
	Neck             float64 `json:"neck"`
	BottomWidth      float64 `json:"bottom_width"`
	FrontDesign      string  `json:"front_design"`
	SleeveStyle      string  `json:"sleeve_style"`
	CollarStyle      string  `json:"collar_style"`
	CuffStyle        string  `json:"cuff_style"`
	ButtonStyle      string  `json:"button_style"`
	StitchingStyle   string  `json:"stitching_style"`
	PocketChest      bool    `json:"pocket_chest"`
	PocketSideLeft   bool    `json:"pocket_side_left"`
	PocketSideRight  bool    `json:"pocket_side_right"`
	PocketInnerLeft  bool    `json:"pocket_inner_left"`
	PocketInnerRight bool    `json:"pocket_inner_right"`
	FabricProductID  *uint   `json:"fabric_product_id"`
	AdvancePayment   float64 `json:"advance_payment"`

	BookingDate  *time.Time `json:"booking_date"`
	TrialDate    *time.Time `json:"trial_date"`
	DeliveryDate *time.Time `json:"delivery_date"`
}

// CreateOrder handles POST /api/v1/orders - creates a draft order (sales/admin)
func CreateOrder(c *gin.Context) {
	user, ok := requireStaff(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	order, err := orderService().CreateOrder(models.ActorFor(user), services.CreateOrderInput{
		CustomerID:       req.CustomerID,
		GarmentTemplate:  req.GarmentTemplate,
		GarmentProductID: req.GarmentProductID,
		Quantity:         req.Quantity,
		Length:           req.Length,
		ShoulderWidth:    req.ShoulderWidth,
		SleeveLength:     req.SleeveLength,
		Chest:            req.Chest,
		Waist:            req.Waist,
		Hip:              req.Hip,
		Neck:             req.Neck,
		BottomWidth:      req.BottomWidth,
		FrontDesign:      req.FrontDesign,
		SleeveStyle:      req.SleeveStyle,
		CollarStyle:      req.CollarStyle,
		CuffStyle:        req.CuffStyle,
		ButtonStyle:      req.ButtonStyle,
		StitchingStyle:   req.StitchingStyle,
		PocketChest:      req.PocketChest,
		PocketSideLeft:   req.PocketSideLeft,
		PocketSideRight:  req.PocketSideRight,
		PocketInnerLeft:  req.PocketInnerLeft,
		PocketInnerRight: req.PocketInnerRight,
		FabricProductID:  req.FabricProductID,
		AdvancePayment:   req.AdvancePayment,
		BookingDate:      req.BookingDate,
		TrialDate:        req.TrialDate,
		DeliveryDate:     req.DeliveryDate,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// ListOrders handles GET /api/v1/orders - lists orders (staff)
func ListOrders(c *gin.Context) {
	if _, ok := requireStaff(c); !ok {
		return
	}

	var customerID uint
	if raw := c.Query("customer_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "customer_id must be a number")
			return
		}
		customerID = uint(parsed)
	}

	orders, err := orderService().ListOrders(c.Query("status"), customerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// GetOrder handles GET /api/v1/orders/:id - order detail (staff)
func GetOrder(c *gin.Context) {
	if _, ok := requireStaff(c); !ok {
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := orderService().GetOrder(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// UpdateOrderRequest represents partial edits to an order
type UpdateOrderRequest struct {
	GarmentTemplate  *string  `json:"garment_template"`
	GarmentProductID *uint    `json:"garment_product_id"`
	Quantity         *int     `json:"quantity"`
	Length           *float64 `json:"length"`
	ShoulderWidth    *float64 `json:"shoulder_width"`
	SleeveLength     *float64 `json:"sleeve_length"`
	Chest            *float64 `json:"chest"`
	Waist            *float64 `json:"waist"`
	Hip              *float64 `json:"hip"`
	Neck             *float64 `json:"neck"`
	BottomWidth      *float64 `json:"bottom_width"`
	FrontDesign      *string  `json:"front_design"`
	SleeveStyle      *string  `json:"sleeve_style"`
	CollarStyle      *string  `json:"collar_style"`
	CuffStyle        *string  `json:"cuff_style"`
	ButtonStyle      *string  `json:"button_style"`
	StitchingStyle   *string  `json:"stitching_style"`
	FabricProductID  *uint    `json:"fabric_product_id"`
	AdvancePayment   *float64 `json:"advance_payment"`

	BookingDate  *time.Time `json:"booking_date"`
	TrialDate    *time.Time `json:"trial_date"`
	DeliveryDate *time.Time `json:"delivery_date"`
}

// UpdateOrder handles PUT /api/v1/orders/:id - edits an order (staff)
func UpdateOrder(c *gin.Context) {
	user, ok := requireStaff(c)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	order, err := orderService().UpdateOrder(models.ActorFor(user), orderID, services.UpdateOrderInput{
		GarmentTemplate:  req.GarmentTemplate,
		GarmentProductID: req.GarmentProductID,
		Quantity:         req.Quantity,
		Length:           req.Length,
		ShoulderWidth:    req.ShoulderWidth,
		SleeveLength:     req.SleeveLength,
		Chest:            req.Chest,
		Waist:            req.Waist,
		Hip:              req.Hip,
		Neck:             req.Neck,
		BottomWidth:      req.BottomWidth,
		FrontDesign:      req.FrontDesign,
		SleeveStyle:      req.SleeveStyle,
		CollarStyle:      req.CollarStyle,
		CuffStyle:        req.CuffStyle,
		ButtonStyle:      req.ButtonStyle,
		StitchingStyle:   req.StitchingStyle,
		FabricProductID:  req.FabricProductID,
		AdvancePayment:   req.AdvancePayment,
		BookingDate:      req.BookingDate,
		TrialDate:        req.TrialDate,
		DeliveryDate:     req.DeliveryDate,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// ChangeStatusRequest names the target status; admins may set override with
// a reason to bypass the transition rules.
type ChangeStatusRequest struct {
	Status   string `json:"status" binding:"required"`
	Override bool   `json:"override"`
	Reason   string `json:"reason"`
}

// ChangeOrderStatus handles POST /api/v1/orders/:id/status
func ChangeOrderStatus(c *gin.Context) {
	user, ok := requireStaff(c)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	order, err := orderService().ChangeStatus(models.ActorFor(user), orderID, req.Status, req.Override, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// CheckAndConfirmOrder handles POST /api/v1/orders/:id/check-and-confirm -
// the stock manager's combined stock check + confirmation
func CheckAndConfirmOrder(c *gin.Context) {
	user, ok := requireStaff(c)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := orderService().CheckAndConfirm(models.ActorFor(user), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// ApproveMaterials handles POST /api/v1/orders/:id/approve-materials (admin)
func ApproveMaterials(c *gin.Context) {
	user, ok := requireStaff(c)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := orderService().ApproveMaterials(models.ActorFor(user), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// QCChecklistRequest carries edits to the five QC checklist items.
type QCChecklistRequest struct {
	Measurements *bool   `json:"measurements"`
	Fabric       *bool   `json:"fabric"`
	Stitching    *bool   `json:"stitching"`
	Style        *bool   `json:"style"`
	Finishing    *bool   `json:"finishing"`
	Comment      *string `json:"comment"`
}

// UpdateQCChecklist handles PUT /api/v1/orders/:id/qc-checklist (qc/admin)
func UpdateQCChecklist(c *gin.Context) {
	user, ok := requireStaff(c)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req QCChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	order, err := orderService().UpdateQCChecklist(models.ActorFor(user), orderID, services.QCChecklistInput{
		Measurements: req.Measurements,
		Fabric:       req.Fabric,
		Stitching:    req.Stitching,
		Style:        req.Style,
		Finishing:    req.Finishing,
		Comment:      req.Comment,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// ApproveQC handles POST /api/v1/orders/:id/qc-approve (qc/admin)
func ApproveQC(c *gin.Context) {
	user, ok := requireStaff(c)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := orderService().ApproveQC(models.ActorFor(user), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// FabricQtyRequest sets a manual fabric quantity.
type FabricQtyRequest struct {
	Quantity float64 `json:"quantity" binding:"required,gt=0"`
}

// SetManualFabricQty handles PUT /api/v1/orders/:id/fabric-qty (stock/admin)
func SetManualFabricQty(c *gin.Context) {
	user, ok := requireStaff(c)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req FabricQtyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	db := config.GetDB()
	var order models.TailorOrder
	if err := db.First(&order, orderID).Error; err != nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Order not found")
		return
	}

	if err := services.SetManualFabricQty(models.ActorFor(user), &order, req.Quantity); err != nil {
		respondServiceError(c, err)
		return
	}
	if err := db.Save(&order).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// ResetFabricQty handles POST /api/v1/orders/:id/fabric-qty/reset (stock/admin)
func ResetFabricQty(c *gin.Context) {
	user, ok := requireStaff(c)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var order models.TailorOrder
	if err := db.First(&order, orderID).Error; err != nil {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Order not found")
		return
	}

	if err := services.ResetFabricQtyToAuto(models.ActorFor(user), &order); err != nil {
		respondServiceError(c, err)
		return
	}
	if err := db.Save(&order).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// AccessoryLineRequest adds one accessory line.
type AccessoryLineRequest struct {
	ProductID        uint    `json:"product_id" binding:"required"`
	Quantity         float64 `json:"quantity" binding:"required,gt=0"`
	Type             string  `json:"type"`
	Color            *string `json:"color"`
	Size             *string `json:"size"`
	Notes            *string `json:"notes"`
	CustomerProvided bool    `json:"customer_provided"`
	Required         bool    `json:"required"`
}

// AddAccessoryLine handles POST /api/v1/orders/:id/accessories (staff)
func AddAccessoryLine(c *gin.Context) {
	user, ok := requireStaff(c)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req AccessoryLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	order, err := orderService().AddAccessoryLine(models.ActorFor(user), orderID, services.AccessoryLineInput{
		ProductID:        req.ProductID,
		Quantity:         req.Quantity,
		Type:             req.Type,
		Color:            req.Color,
		Size:             req.Size,
		Notes:            req.Notes,
		CustomerProvided: req.CustomerProvided,
		Required:         req.Required,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// RemoveAccessoryLine handles DELETE /api/v1/orders/:id/accessories/:lineId (staff)
func RemoveAccessoryLine(c *gin.Context) {
	user, ok := requireStaff(c)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}
	lineID, err := strconv.ParseUint(c.Param("lineId"), 10, 32)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid accessory line ID")
		return
	}

	order, svcErr := orderService().RemoveAccessoryLine(models.ActorFor(user), orderID, uint(lineID))
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// GetOrderStatusLog handles GET /api/v1/orders/:id/status-log (staff)
func GetOrderStatusLog(c *gin.Context) {
	if _, ok := requireStaff(c); !ok {
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	logs, err := orderService().StatusLog(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    logs,
	})
}

func orderIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order ID")
		return 0, false
	}
	return uint(id), true
}
