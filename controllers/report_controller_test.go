package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-labs/tailor-orders-api/models"
)

func (env *orderTestEnv) reportRoutes(user *models.User) *gin.Engine {
	router := setupTestRouter()
	group := router.Group("/api/v1")
	group.Use(mockAuthMiddleware(user.Auth0ID, user.Role, "token-"+user.Auth0ID))
	group.GET("/reports/kpis", GetOrderKPIs)
	return router
}

func TestGetOrderKPIsEndpoint(t *testing.T) {
	env := setupOrderTestDB(t)
	env.confirmedOrderWithMO(t)

	w := moRequest(t, env.reportRoutes(env.admin), http.MethodGet, "/api/v1/reports/kpis", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := orderData(t, w)
	assert.Equal(t, 1.0, data["total_orders"])
	assert.Equal(t, 1.0, data["active_orders"])
	assert.Equal(t, 0.0, data["delivered_orders"])
	assert.Equal(t, "0.00", data["revenue"], "nothing delivered yet")
	assert.Equal(t, 5.0, data["documents_missing"])
	byStatus := data["by_status"].(map[string]interface{})
	assert.Equal(t, 1.0, byStatus["confirmed"])

	w = moRequest(t, env.reportRoutes(env.sales), http.MethodGet,
		fmt.Sprintf("/api/v1/reports/kpis?customer_id=%d", env.customer.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, orderData(t, w)["total_orders"])

	w = moRequest(t, env.reportRoutes(env.sales), http.MethodGet, "/api/v1/reports/kpis?customer_id=999", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, orderData(t, w)["total_orders"])
}

func TestGetOrderKPIsEndpoint_Errors(t *testing.T) {
	env := setupOrderTestDB(t)

	tests := []struct {
		name           string
		user           *models.User
		path           string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "customers cannot read reports",
			user:           env.customer,
			path:           "/api/v1/reports/kpis",
			expectedStatus: http.StatusForbidden,
			expectedCode:   "FORBIDDEN",
		},
		{
			name:           "from must be RFC 3339",
			user:           env.admin,
			path:           "/api/v1/reports/kpis?from=yesterday",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "to must be RFC 3339",
			user:           env.admin,
			path:           "/api/v1/reports/kpis?to=2026-13-40",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := moRequest(t, env.reportRoutes(tt.user), http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedCode, errorCode(t, w))
		})
	}
}

func TestGetOrderKPIsEndpoint_DateWindow(t *testing.T) {
	env := setupOrderTestDB(t)
	env.createOrderVia(t)

	w := moRequest(t, env.reportRoutes(env.admin), http.MethodGet,
		"/api/v1/reports/kpis?from=2020-01-01T00:00:00Z&to=2020-12-31T00:00:00Z", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, orderData(t, w)["total_orders"], "window predates the order")
}
