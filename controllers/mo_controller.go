package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/atelier-labs/tailor-orders-api/config"
	"github.com/atelier-labs/tailor-orders-api/models"
	"github.com/atelier-labs/tailor-orders-api/services"
)

func syncService() *services.SyncService {
	return services.NewSyncService(config.GetDB(), services.GetNotifier())
}

// ListManufacturingOrders handles GET /api/v1/manufacturing-orders (staff)
func ListManufacturingOrders(c *gin.Context) {
	if _, ok := requireStaff(c); !ok {
		return
	}

	mos, err := syncService().ListMOs()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    mos,
	})
}

// GetManufacturingOrder handles GET /api/v1/manufacturing-orders/:id (staff)
func GetManufacturingOrder(c *gin.Context) {
	if _, ok := requireStaff(c); !ok {
		return
	}

	moID, ok := moIDParam(c)
	if !ok {
		return
	}

	mo, err := syncService().GetMO(moID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    mo,
	})
}

// MOStageRequest names the production stage to move to.
type MOStageRequest struct {
	Stage string `json:"stage" binding:"required"`
}

// SetMOStage handles POST /api/v1/manufacturing-orders/:id/stage - drives
// the tailor order through the matching transition, so all gates apply
func SetMOStage(c *gin.Context) {
	user, ok := requireStaff(c)
	if !ok {
		return
	}

	moID, ok := moIDParam(c)
	if !ok {
		return
	}

	var req MOStageRequest
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

	mo, err := syncService().SetStage(models.ActorFor(user), moID, req.Stage)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    mo,
	})
}

// MarkMODone handles POST /api/v1/manufacturing-orders/:id/done - gated on
// the order's QC approval
func MarkMODone(c *gin.Context) {
	user, ok := requireStaff(c)
	if !ok {
		return
	}

	moID, ok := moIDParam(c)
	if !ok {
		return
	}

	mo, err := syncService().MarkDone(models.ActorFor(user), moID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    mo,
	})
}

func moIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid manufacturing order ID")
		return 0, false
	}
	return uint(id), true
}
