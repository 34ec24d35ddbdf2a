package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/avelkov/craftstock-backend/internal/consumption"
	"github.com/avelkov/craftstock-backend/internal/recipes"
	"github.com/avelkov/craftstock-backend/internal/sales"
	"github.com/avelkov/craftstock-backend/internal/stock"
	"github.com/avelkov/craftstock-backend/pkg/db/models"
	"github.com/avelkov/craftstock-backend/pkg/enums"
	pkgerrors "github.com/avelkov/craftstock-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type ordersFixture struct {
	conn *gorm.DB
	svc  Service
}

func newOrdersFixture(t *testing.T) *ordersFixture {
	t.Helper()

	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Unit{},
		&models.StockCategory{},
		&models.StockItem{},
		&models.Product{},
		&models.RecipeEntry{},
		&models.Sale{},
		&models.Order{},
		&models.OrderItem{},
	))

	runner := gormTxRunner{db: conn}
	coord, err := consumption.NewCoordinator(
		stock.NewRepository(conn),
		recipes.NewRepository(conn),
		runner,
		nil,
		nil,
	)
	require.NoError(t, err)

	svc, err := NewService(
		NewRepository(conn),
		recipes.NewRepository(conn),
		sales.NewRepository(conn),
		coord,
		runner,
		nil,
	)
	require.NoError(t, err)
	return &ordersFixture{conn: conn, svc: svc}
}

// mustBread sets up Flour plus a Bread product using 0.5 per unit.
func (f *ordersFixture) mustBread(t *testing.T, flourQty float64) (*models.Product, *models.StockItem) {
	t.Helper()

	unit := &models.Unit{ID: uuid.New(), Name: "kg"}
	require.NoError(t, f.conn.Create(unit).Error)
	category := &models.StockCategory{ID: uuid.New(), Name: "Materials"}
	require.NoError(t, f.conn.Create(category).Error)

	flour := &models.StockItem{
		ID:         uuid.New(),
		Name:       "Flour",
		CategoryID: category.ID,
		Quantity:   flourQty,
		UnitID:     unit.ID,
	}
	require.NoError(t, f.conn.Create(flour).Error)

	bread := &models.Product{ID: uuid.New(), Name: "Bread", Price: decimal.NewFromFloat(2.50)}
	require.NoError(t, f.conn.Create(bread).Error)
	require.NoError(t, f.conn.Create(&models.RecipeEntry{
		ID:               uuid.New(),
		ProductID:        bread.ID,
		StockItemID:      flour.ID,
		QuantityPerUnit:  0.5,
		ConversionFactor: 1,
	}).Error)
	return bread, flour
}

func (f *ordersFixture) flourQuantity(t *testing.T) float64 {
	t.Helper()
	var item models.StockItem
	require.NoError(t, f.conn.First(&item, "name = ?", "Flour").Error)
	return item.Quantity
}

func TestCreateOrderStartsPending(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()

	bread, _ := f.mustBread(t, 10)
	result, err := f.svc.Create(ctx, CreateInput{
		Items: []ItemInput{{ProductID: bread.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, result.Order.Status)
	assert.Nil(t, result.Order.CompletionDate)
	require.Len(t, result.Order.Items, 1)
	assert.Equal(t, "Bread", result.Order.Items[0].ProductName)

	// creating pending consumes nothing
	assert.InDelta(t, 10.0, f.flourQuantity(t), 1e-9)
}

func TestCompleteConsumesAndWritesSales(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()

	bread, _ := f.mustBread(t, 10)
	result, err := f.svc.Create(ctx, CreateInput{
		Items: []ItemInput{{ProductID: bread.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	completed, err := f.svc.Complete(ctx, result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletionDate)

	assert.InDelta(t, 9.0, f.flourQuantity(t), 1e-9)

	var saleRows []models.Sale
	require.NoError(t, f.conn.Find(&saleRows).Error)
	require.Len(t, saleRows, 1)
	assert.Equal(t, "Bread", saleRows[0].ProductName)
	assert.Equal(t, 2.0, saleRows[0].Quantity)
	assert.Equal(t, 0.0, saleRows[0].DiscountPercent)
}

func TestCompleteTwiceFails(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()

	bread, _ := f.mustBread(t, 10)
	result, err := f.svc.Create(ctx, CreateInput{
		Items: []ItemInput{{ProductID: bread.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, result.Order.ID)
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, result.Order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	// no double deduction, no extra journal row
	assert.InDelta(t, 9.5, f.flourQuantity(t), 1e-9)
	var count int64
	require.NoError(t, f.conn.Model(&models.Sale{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCompleteInsufficientStockAbortsEntirely(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()

	bread, _ := f.mustBread(t, 1)
	result, err := f.svc.Create(ctx, CreateInput{
		Items: []ItemInput{{ProductID: bread.ID, Quantity: 4}},
	})
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, result.Order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, pkgerrors.As(err).Code())

	reloaded, err := f.svc.Get(ctx, result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, reloaded.Status)
	assert.InDelta(t, 1.0, f.flourQuantity(t), 1e-9)

	var count int64
	require.NoError(t, f.conn.Model(&models.Sale{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCompleteNowIsTwoPhase(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()

	bread, _ := f.mustBread(t, 10)

	// enough stock: created and completed in one call
	result, err := f.svc.Create(ctx, CreateInput{
		Items:       []ItemInput{{ProductID: bread.ID, Quantity: 2}},
		CompleteNow: true,
	})
	require.NoError(t, err)
	assert.Nil(t, result.CompletionError)
	assert.Equal(t, enums.OrderStatusCompleted, result.Order.Status)

	// insufficient stock: creation still succeeds, order stays pending
	result, err = f.svc.Create(ctx, CreateInput{
		Items:       []ItemInput{{ProductID: bread.ID, Quantity: 100}},
		CompleteNow: true,
	})
	require.NoError(t, err)
	require.NotNil(t, result.CompletionError)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, result.CompletionError.Code())

	reloaded, err := f.svc.Get(ctx, result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, reloaded.Status)
}

func TestDeletePendingOrder(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()

	bread, _ := f.mustBread(t, 10)
	result, err := f.svc.Create(ctx, CreateInput{
		Items: []ItemInput{{ProductID: bread.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, result.Order.ID))

	_, err = f.svc.Get(ctx, result.Order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	var count int64
	require.NoError(t, f.conn.Model(&models.OrderItem{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteCompletedOrderRefused(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()

	bread, _ := f.mustBread(t, 10)
	result, err := f.svc.Create(ctx, CreateInput{
		Items:       []ItemInput{{ProductID: bread.ID, Quantity: 1}},
		CompleteNow: true,
	})
	require.NoError(t, err)

	err = f.svc.Delete(ctx, result.Order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	// deleting a completed order never restores stock either way
	assert.InDelta(t, 9.5, f.flourQuantity(t), 1e-9)
}

func TestOrderSnapshotSurvivesProductEdits(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()

	bread, _ := f.mustBread(t, 10)
	result, err := f.svc.Create(ctx, CreateInput{
		Items: []ItemInput{{ProductID: bread.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, f.conn.Model(&models.Product{}).
		Where("id = ?", bread.ID).
		Updates(map[string]any{"name": "Sourdough", "price": decimal.NewFromInt(4)}).Error)

	reloaded, err := f.svc.Get(ctx, result.Order.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, "Bread", reloaded.Items[0].ProductName)
	assert.True(t, reloaded.Items[0].ProductPrice.Equal(decimal.NewFromFloat(2.50)))
}

func TestListFiltersByStatus(t *testing.T) {
	f := newOrdersFixture(t)
	ctx := context.Background()

	bread, _ := f.mustBread(t, 10)
	for i := 0; i < 2; i++ {
		_, err := f.svc.Create(ctx, CreateInput{
			Items: []ItemInput{{ProductID: bread.ID, Quantity: 1}},
		})
		require.NoError(t, err)
	}
	completedResult, err := f.svc.Create(ctx, CreateInput{
		Items:       []ItemInput{{ProductID: bread.ID, Quantity: 1}},
		CompleteNow: true,
	})
	require.NoError(t, err)
	require.Nil(t, completedResult.CompletionError)

	pending := enums.OrderStatusPending
	list, err := f.svc.List(ctx, ListQuery{Status: &pending})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	completedStatus := enums.OrderStatusCompleted
	list, err = f.svc.List(ctx, ListQuery{Status: &completedStatus})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
