package acceptance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/atelier-labs/tailor-orders-api/config"
	"github.com/atelier-labs/tailor-orders-api/controllers"
	"github.com/atelier-labs/tailor-orders-api/models"
	"github.com/atelier-labs/tailor-orders-api/services"
	"github.com/atelier-labs/tailor-orders-api/tests/testutil"
)

// OrderAcceptanceTestSuite runs complete business scenarios against a live
// test server: a walk-in customer order from measurement to delivery, a
// rush order pushed through by the owner, and a fabric shortage.
type OrderAcceptanceTestSuite struct {
	suite.Suite
	server *httptest.Server
	db     *gorm.DB

	customer *models.User
	sales    *models.User
	stock    *models.User
	tailor   *models.User
	qc       *models.User
	admin    *models.User

	fabric  *models.Product
	garment *models.Product
}

// SetupSuite runs once before all tests
func (suite *OrderAcceptanceTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	testutil.ForceTestEnvironment(suite.T())
	suite.server = httptest.NewServer(suite.createRouter())
}

// TearDownSuite runs once after all tests
func (suite *OrderAcceptanceTestSuite) TearDownSuite() {
	suite.server.Close()
}

// SetupTest rebuilds database state before each test
func (suite *OrderAcceptanceTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.NoError(err)
	suite.db = db

	err = db.AutoMigrate(
		&models.User{},
		&models.TailorOrder{},
		&models.AccessoryLine{},
		&models.OrderStatusLog{},
		&models.ManufacturingOrder{},
		&models.SaleOrder{},
		&models.SaleOrderLine{},
		&models.Product{},
		&models.StockLevel{},
		&models.StockMove{},
		&models.Document{},
		&models.DocumentAttachment{},
		&models.MeasurementSnapshot{},
	)
	suite.NoError(err)
	config.SetDB(db)
	services.SetNotifier(&services.MemoryNotifier{})

	suite.customer = suite.createUser("auth0|customer", models.RoleCustomer, "Khalid Hassan")
	suite.sales = suite.createUser("auth0|sales", models.RoleSales, "Noora Ali")
	suite.stock = suite.createUser("auth0|stock", models.RoleStock, "Saeed Rahman")
	suite.tailor = suite.createUser("auth0|tailor", models.RoleTailor, "Rashid Karim")
	suite.qc = suite.createUser("auth0|qc", models.RoleQC, "Mariam Yusuf")
	suite.admin = suite.createUser("auth0|admin", models.RoleAdmin, "Omar Farouk")

	suite.fabric = &models.Product{Name: "White cotton", Type: models.ProductTypeFabric, UnitPrice: "18.50", UoM: "m"}
	suite.NoError(db.Create(suite.fabric).Error)
	suite.garment = &models.Product{Name: "Arabic kandura", Type: models.ProductTypeGarment, UnitPrice: "350.00", UoM: "unit"}
	suite.NoError(db.Create(suite.garment).Error)
	suite.NoError(db.Create(&models.StockLevel{ProductID: suite.fabric.ID, Location: services.StockLocation, OnHand: 100}).Error)
}

// TearDownTest runs after each test
func (suite *OrderAcceptanceTestSuite) TearDownTest() {
	services.SetNotifier(nil)
}

func (suite *OrderAcceptanceTestSuite) createUser(auth0ID, role, name string) *models.User {
	user := models.User{Auth0ID: auth0ID, Name: name, Email: role + "@example.com", Role: role}
	suite.NoError(suite.db.Create(&user).Error)
	return &user
}

// createRouter mounts the order routes once per role. The role prefix
// selects whose token the mocked middleware presents.
func (suite *OrderAcceptanceTestSuite) createRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")

	roles := map[string]string{
		"customer": "auth0|customer",
		"sales":    "auth0|sales",
		"stock":    "auth0|stock",
		"tailor":   "auth0|tailor",
		"qc":       "auth0|qc",
		"admin":    "auth0|admin",
	}
	for role, auth0ID := range roles {
		group := v1.Group("/as-"+role, testutil.MockAuthMiddleware(auth0ID, role))
		group.POST("/orders", controllers.CreateOrder)
		group.GET("/orders", controllers.ListOrders)
		group.GET("/orders/:id", controllers.GetOrder)
		group.POST("/orders/:id/status", controllers.ChangeOrderStatus)
		group.POST("/orders/:id/check-and-confirm", controllers.CheckAndConfirmOrder)
		group.POST("/orders/:id/approve-materials", controllers.ApproveMaterials)
		group.PUT("/orders/:id/qc-checklist", controllers.UpdateQCChecklist)
		group.POST("/orders/:id/qc-approve", controllers.ApproveQC)
		group.GET("/orders/:id/status-log", controllers.GetOrderStatusLog)
		group.PUT("/stock-levels", controllers.SetStockLevel)
		group.GET("/reports/kpis", controllers.GetOrderKPIs)
		group.POST("/portal/orders/:id/approve", controllers.PortalApproveOrder)
		group.GET("/portal/orders/:id", controllers.PortalGetOrder)
	}
	return router
}

// request performs one JSON request against the live server.
func (suite *OrderAcceptanceTestSuite) request(rolePrefix, method, path string, body interface{}) *http.Response {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		suite.NoError(err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, suite.server.URL+"/api/v1/as-"+rolePrefix+path, reader)
	suite.NoError(err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := suite.server.Client().Do(req)
	suite.NoError(err)
	return resp
}

func (suite *OrderAcceptanceTestSuite) decode(resp *http.Response) map[string]interface{} {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	suite.NoError(err)
	var response map[string]interface{}
	suite.NoError(json.Unmarshal(body, &response))
	return response
}

func (suite *OrderAcceptanceTestSuite) data(resp *http.Response) map[string]interface{} {
	response := suite.decode(resp)
	suite.Require().Equal(true, response["success"])
	return response["data"].(map[string]interface{})
}

func (suite *OrderAcceptanceTestSuite) errorCode(resp *http.Response) string {
	response := suite.decode(resp)
	suite.Require().Equal(false, response["success"])
	code, _ := response["error"].(map[string]interface{})["code"].(string)
	return code
}

func (suite *OrderAcceptanceTestSuite) sampleOrderBody() map[string]interface{} {
	return map[string]interface{}{
		"customer_id":        suite.customer.ID,
		"garment_template":   models.TemplateArabicKandura,
		"garment_product_id": suite.garment.ID,
		"quantity":           1,
		"length":             100,
		"shoulder_width":     45,
		"sleeve_length":      60,
		"chest":              50,
		"waist":              48,
		"hip":                52,
		"neck":               38,
		"bottom_width":       40,
		"fabric_product_id":  suite.fabric.ID,
		"advance_payment":    100,
	}
}

func (suite *OrderAcceptanceTestSuite) createOrder() uint {
	resp := suite.request("sales", http.MethodPost, "/orders", suite.sampleOrderBody())
	suite.Require().Equal(http.StatusCreated, resp.StatusCode)
	return uint(suite.data(resp)["id"].(float64))
}

// TestWalkInCustomerScenario is the core acceptance flow: a walk-in customer
// is measured, approves the quote from the portal, and picks up the finished
// kandura two weeks later.
func (suite *OrderAcceptanceTestSuite) TestWalkInCustomerScenario() {
	// Sales takes measurements and drafts the order.
	orderID := suite.createOrder()
	base := fmt.Sprintf("/orders/%d", orderID)

	// The customer checks the draft from the portal and approves it.
	resp := suite.request("customer", http.MethodGet, fmt.Sprintf("/portal/orders/%d", orderID), nil)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)
	data := suite.data(resp)
	assert.Equal(suite.T(), "TO-00001", data["reference"])
	assert.Equal(suite.T(), 2.0, data["fabric_qty"])

	resp = suite.request("customer", http.MethodPost, fmt.Sprintf("/portal/orders/%d/approve", orderID), nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Stock verifies fabric availability and confirms the order.
	resp = suite.request("stock", http.MethodPost, base+"/check-and-confirm", nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	data = suite.data(resp)
	assert.Equal(suite.T(), "confirmed", data["status"])
	saleOrder := data["sale_order"].(map[string]interface{})
	assert.Equal(suite.T(), "367.50", saleOrder["total_amount"])
	assert.Equal(suite.T(), "100.00", saleOrder["advance_payment"])
	assert.Equal(suite.T(), "267.50", saleOrder["balance_amount"])

	// The owner signs off on materials, the workshop takes over.
	resp = suite.request("admin", http.MethodPost, base+"/approve-materials", nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	for _, status := range []string{"cutting", "sewing", "qc"} {
		resp = suite.request("tailor", http.MethodPost, base+"/status", map[string]interface{}{"status": status})
		suite.Require().Equal(http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	// QC inspects and approves.
	resp = suite.request("qc", http.MethodPut, base+"/qc-checklist", map[string]interface{}{
		"measurements": true, "fabric": true, "stitching": true, "style": true, "finishing": true,
	})
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = suite.request("qc", http.MethodPost, base+"/qc-approve", nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = suite.request("qc", http.MethodPost, base+"/status", map[string]interface{}{"status": "ready_delivery"})
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Sales hands the garment over.
	resp = suite.request("sales", http.MethodPost, base+"/status", map[string]interface{}{"status": "delivered"})
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	assert.Equal(suite.T(), "delivered", suite.data(resp)["status"])

	// The dashboard reflects the finished order.
	resp = suite.request("admin", http.MethodGet, "/reports/kpis", nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	kpis := suite.data(resp)
	assert.Equal(suite.T(), 1.0, kpis["delivered_orders"])
	assert.Equal(suite.T(), "367.50", kpis["revenue"])
	assert.Equal(suite.T(), 100.0, kpis["on_time_rate"])
}

// TestRushOrderScenario: the owner pushes a rush order into production with
// an explicit override instead of waiting for the usual approvals.
func (suite *OrderAcceptanceTestSuite) TestRushOrderScenario() {
	orderID := suite.createOrder()
	base := fmt.Sprintf("/orders/%d", orderID)

	// Straight to confirmed, bypassing the customer approval.
	resp := suite.request("admin", http.MethodPost, base+"/status", map[string]interface{}{
		"status":   "confirmed",
		"override": true,
		"reason":   "wedding on Friday, customer approved by phone",
	})
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	assert.Equal(suite.T(), "confirmed", suite.data(resp)["status"])

	// And into cutting, ahead of the materials review.
	resp = suite.request("admin", http.MethodPost, base+"/status", map[string]interface{}{
		"status":   "cutting",
		"override": true,
		"reason":   "wedding on Friday",
	})
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	assert.Equal(suite.T(), "cutting", suite.data(resp)["status"])

	// Both overrides are on the record.
	resp = suite.request("admin", http.MethodGet, base+"/status-log", nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	log := suite.decode(resp)["data"].([]interface{})
	suite.Require().Len(log, 2)
	for _, raw := range log {
		entry := raw.(map[string]interface{})
		assert.Equal(suite.T(), true, entry["override"])
		assert.NotEmpty(suite.T(), entry["reason"])
	}
}

// TestFabricShortageScenario: confirmation fails while the shelf is short
// and succeeds after a restock.
func (suite *OrderAcceptanceTestSuite) TestFabricShortageScenario() {
	resp := suite.request("stock", http.MethodPut, "/stock-levels", map[string]interface{}{
		"product_id": suite.fabric.ID,
		"on_hand":    0.5,
	})
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	orderID := suite.createOrder()
	base := fmt.Sprintf("/orders/%d", orderID)

	resp = suite.request("customer", http.MethodPost, fmt.Sprintf("/portal/orders/%d/approve", orderID), nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = suite.request("stock", http.MethodPost, base+"/check-and-confirm", nil)
	assert.Equal(suite.T(), http.StatusConflict, resp.StatusCode)
	assert.Equal(suite.T(), "STOCK_SHORTFALL", suite.errorCode(resp))

	// A delivery arrives, stock updates the shelf and retries.
	resp = suite.request("stock", http.MethodPut, "/stock-levels", map[string]interface{}{
		"product_id": suite.fabric.ID,
		"on_hand":    25,
	})
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = suite.request("stock", http.MethodPost, base+"/check-and-confirm", nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	assert.Equal(suite.T(), "confirmed", suite.data(resp)["status"])

	var level models.StockLevel
	suite.NoError(suite.db.Where("product_id = ?", suite.fabric.ID).First(&level).Error)
	assert.Equal(suite.T(), 23.0, level.OnHand)
}

// TestRoleBoundariesScenario spot-checks that each role stays in its lane
// over the live server.
func (suite *OrderAcceptanceTestSuite) TestRoleBoundariesScenario() {
	orderID := suite.createOrder()
	base := fmt.Sprintf("/orders/%d", orderID)

	// Tailors do not draft orders.
	resp := suite.request("tailor", http.MethodPost, "/orders", suite.sampleOrderBody())
	assert.Equal(suite.T(), http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Customers do not see the staff order list.
	resp = suite.request("customer", http.MethodGet, "/orders", nil)
	assert.Equal(suite.T(), http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Sales does not confirm stock.
	resp = suite.request("customer", http.MethodPost, fmt.Sprintf("/portal/orders/%d/approve", orderID), nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = suite.request("sales", http.MethodPost, base+"/check-and-confirm", nil)
	assert.Equal(suite.T(), http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Only admins approve materials.
	resp = suite.request("stock", http.MethodPost, base+"/check-and-confirm", nil)
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = suite.request("stock", http.MethodPost, base+"/approve-materials", nil)
	assert.Equal(suite.T(), http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Only admins cancel.
	resp = suite.request("qc", http.MethodPost, base+"/status", map[string]interface{}{"status": "cancel"})
	assert.Equal(suite.T(), http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

// TestOrderAcceptanceTestSuite runs the acceptance test suite
func TestOrderAcceptanceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderAcceptanceTestSuite))
}
