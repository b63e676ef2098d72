package services

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/atelier-labs/tailor-orders-api/models"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

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
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, role, name string) *models.User {
	t.Helper()

	user := models.User{
		Auth0ID: "auth0|" + role + "-" + name,
		Name:    name,
		Email:   name + "@example.com",
		Role:    role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return &user
}

func createTestProduct(t *testing.T, db *gorm.DB, name, productType, unitPrice string) *models.Product {
	t.Helper()

	product := models.Product{Name: name, Type: productType, UnitPrice: unitPrice, UoM: "m"}
	if productType != models.ProductTypeFabric {
		product.UoM = "unit"
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("Failed to create test product: %v", err)
	}
	return &product
}

func setTestStock(t *testing.T, db *gorm.DB, productID uint, onHand float64) {
	t.Helper()

	level := models.StockLevel{ProductID: productID, Location: StockLocation, OnHand: onHand}
	if err := db.Create(&level).Error; err != nil {
		t.Fatalf("Failed to create stock level: %v", err)
	}
}

// testOrderFixture bundles the rows most order lifecycle tests need.
type testOrderFixture struct {
	db       *gorm.DB
	notifier *MemoryNotifier
	orders   *OrderService

	customer *models.User
	sales    *models.User
	stock    *models.User
	tailor   *models.User
	qc       *models.User
	admin    *models.User

	fabric  *models.Product
	garment *models.Product
}

func newOrderFixture(t *testing.T) *testOrderFixture {
	t.Helper()

	db := setupServiceTestDB(t)
	notifier := &MemoryNotifier{}
	f := &testOrderFixture{
		db:       db,
		notifier: notifier,
		orders:   NewOrderService(db, notifier),
		customer: createTestUser(t, db, models.RoleCustomer, "khalid"),
		sales:    createTestUser(t, db, models.RoleSales, "noora"),
		stock:    createTestUser(t, db, models.RoleStock, "saeed"),
		tailor:   createTestUser(t, db, models.RoleTailor, "rashid"),
		qc:       createTestUser(t, db, models.RoleQC, "mariam"),
		admin:    createTestUser(t, db, models.RoleAdmin, "omar"),
	}
	f.fabric = createTestProduct(t, db, "White cotton", models.ProductTypeFabric, "18.50")
	f.garment = createTestProduct(t, db, "Arabic kandura", models.ProductTypeGarment, "350.00")
	setTestStock(t, db, f.fabric.ID, 100)
	return f
}

func (f *testOrderFixture) actor(u *models.User) models.Actor {
	return models.ActorFor(u)
}

// createDraftOrder makes a draft order with the standard worked-example
// measurements: one arabic kandura needing 2.0 m of fabric.
func (f *testOrderFixture) createDraftOrder(t *testing.T) *models.TailorOrder {
	t.Helper()

	order, err := f.orders.CreateOrder(f.actor(f.sales), CreateOrderInput{
		CustomerID:       f.customer.ID,
		GarmentTemplate:  models.TemplateArabicKandura,
		GarmentProductID: &f.garment.ID,
		Quantity:         1,
		Length:           100,
		SleeveLength:     60,
		Chest:            50,
		BottomWidth:      40,
		ShoulderWidth:    45,
		Waist:            48,
		Hip:              52,
		Neck:             38,
		FabricProductID:  &f.fabric.ID,
		AdvancePayment:   100,
	})
	if err != nil {
		t.Fatalf("Failed to create draft order: %v", err)
	}
	return order
}

// confirmOrder walks a draft through customer approval and the stock
// manager's check-and-confirm.
func (f *testOrderFixture) confirmOrder(t *testing.T, orderID uint) *models.TailorOrder {
	t.Helper()

	if _, err := f.orders.ApproveByCustomer(f.customer, orderID); err != nil {
		t.Fatalf("Failed to record customer approval: %v", err)
	}
	order, err := f.orders.CheckAndConfirm(f.actor(f.stock), orderID)
	if err != nil {
		t.Fatalf("Failed to confirm order: %v", err)
	}
	return order
}

// moveToQC pushes a confirmed order through the production stages into qc.
func (f *testOrderFixture) moveToQC(t *testing.T, orderID uint) *models.TailorOrder {
	t.Helper()

	if _, err := f.orders.ApproveMaterials(f.actor(f.admin), orderID); err != nil {
		t.Fatalf("Failed to approve materials: %v", err)
	}
	for _, target := range []string{models.StatusCutting, models.StatusSewing, models.StatusQC} {
		if _, err := f.orders.ChangeStatus(f.actor(f.tailor), orderID, target, false, ""); err != nil {
			t.Fatalf("Failed to move order to %s: %v", target, err)
		}
	}
	order, err := f.orders.GetOrder(orderID)
	if err != nil {
		t.Fatalf("Failed to reload order: %v", err)
	}
	return order
}

// passQC completes the checklist and approves QC.
func (f *testOrderFixture) passQC(t *testing.T, orderID uint) *models.TailorOrder {
	t.Helper()

	yes := true
	_, err := f.orders.UpdateQCChecklist(f.actor(f.qc), orderID, QCChecklistInput{
		Measurements: &yes,
		Fabric:       &yes,
		Stitching:    &yes,
		Style:        &yes,
		Finishing:    &yes,
	})
	if err != nil {
		t.Fatalf("Failed to update QC checklist: %v", err)
	}
	order, err := f.orders.ApproveQC(f.actor(f.qc), orderID)
	if err != nil {
		t.Fatalf("Failed to approve QC: %v", err)
	}
	return order
}

func (f *testOrderFixture) eventTypes() []string {
	types := make([]string, 0, len(f.notifier.Events))
	for _, e := range f.notifier.Events {
		types = append(types, e.Type)
	}
	return types
}

func timePtr(t time.Time) *time.Time {
	return &t
}
