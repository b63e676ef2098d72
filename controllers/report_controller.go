package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atelier-labs/tailor-orders-api/config"
	"github.com/atelier-labs/tailor-orders-api/services"
)

// GetOrderKPIs handles GET /api/v1/reports/kpis - dashboard numbers
// (staff). Filters: customer_id, from, to (RFC 3339 dates).
func GetOrderKPIs(c *gin.Context) {
	if _, ok := requireStaff(c); !ok {
		return
	}

	filter := services.KPIFilter{CustomerID: uintQuery(c, "customer_id")}
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "from must be an RFC 3339 timestamp")
			return
		}
		filter.From = &parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "to must be an RFC 3339 timestamp")
			return
		}
		filter.To = &parsed
	}

	reports := services.NewReportService(config.GetDB(), services.GetRedisCache())
	kpis, err := reports.OrderKPIs(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    kpis,
	})
}
