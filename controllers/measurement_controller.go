package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atelier-labs/tailor-orders-api/config"
	"github.com/atelier-labs/tailor-orders-api/models"
	"github.com/atelier-labs/tailor-orders-api/services"
)

func aiMeasureService() *services.AIMeasureService {
	return services.NewAIMeasureService(config.GetConfig(), config.GetDB())
}

// AIMeasureComputeRequest carries the two photos for the measurement
// service.
type AIMeasureComputeRequest struct {
	FrontImageB64 string   `json:"front_image_b64" binding:"required"`
	SideImageB64  string   `json:"side_image_b64" binding:"required"`
	ReferenceType string   `json:"reference_type" binding:"required"`
	HeightCM      *float64 `json:"height_cm"`
}

// ComputeAIMeasurements handles POST /api/v1/measurements/compute - calls
// the external measurement service. Advisory only, nothing is stored.
func ComputeAIMeasurements(c *gin.Context) {
	if _, ok := requireStaff(c); !ok {
		return
	}

	var req AIMeasureComputeRequest
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

	result, err := aiMeasureService().Compute(services.AIMeasureRequest{
		FrontImageB64: req.FrontImageB64,
		SideImageB64:  req.SideImageB64,
		ReferenceType: req.ReferenceType,
		HeightCM:      req.HeightCM,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// AIMeasureApplyRequest writes a computed measurement set into a draft
// order.
type AIMeasureApplyRequest struct {
	Measurements services.AIMeasurements `json:"measurements" binding:"required"`
	Confidence   float64                 `json:"confidence"`
}

// ApplyAIMeasurements handles POST /api/v1/orders/:id/measurements/apply -
// the explicit confirmation step after compute
func ApplyAIMeasurements(c *gin.Context) {
	user, ok := requireStaff(c)
	if !ok {
		return
	}

	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req AIMeasureApplyRequest
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

	order, err := aiMeasureService().Apply(models.ActorFor(user), orderID, &services.AIMeasureResult{
		Measurements: req.Measurements,
		Confidence:   req.Confidence,
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

// GetMeasurementPrefill handles GET /api/v1/measurements/prefill - the
// latest snapshot for a customer and template, for drafting a new order
func GetMeasurementPrefill(c *gin.Context) {
	if _, ok := requireStaff(c); !ok {
		return
	}

	customerID := uintQuery(c, "customer_id")
	template := c.Query("garment_template")
	if customerID == 0 || template == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "customer_id and garment_template are required")
		return
	}

	snapshot, err := aiMeasureService().LatestSnapshot(customerID, template)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    snapshot,
	})
}
