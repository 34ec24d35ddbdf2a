package stock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/avelkov/craftstock-backend/internal/catalog"
	"github.com/avelkov/craftstock-backend/pkg/db/models"
	pkgerrors "github.com/avelkov/craftstock-backend/pkg/errors"
)

func setupStockTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:stock_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&models.Unit{},
		&models.StockCategory{},
		&models.StockItem{},
		&models.Product{},
		&models.RecipeEntry{},
	))
	return conn
}

type stockFixture struct {
	conn     *gorm.DB
	svc      Service
	category *models.StockCategory
	unit     *models.Unit
}

func newStockFixture(t *testing.T) *stockFixture {
	t.Helper()

	conn := setupStockTestDB(t)
	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn))
	require.NoError(t, err)

	ctx := context.Background()
	category, err := catalogSvc.CreateStockCategory(ctx, catalog.DefaultStockCategoryName)
	require.NoError(t, err)
	unit, err := catalogSvc.CreateUnit(ctx, "kg")
	require.NoError(t, err)

	svc, err := NewService(NewRepository(conn), catalogSvc)
	require.NoError(t, err)

	return &stockFixture{conn: conn, svc: svc, category: category, unit: unit}
}

func (f *stockFixture) mustAdd(t *testing.T, name string, qty float64) *models.StockItem {
	t.Helper()
	item, err := f.svc.Add(context.Background(), AddInput{
		Name:     name,
		Category: f.category.Name,
		Quantity: qty,
		Unit:     "kg",
	})
	require.NoError(t, err)
	return item
}

func TestAddAndGet(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	created := f.mustAdd(t, "Flour", 10)
	assert.Equal(t, f.category.ID, created.CategoryID)
	assert.Equal(t, f.unit.ID, created.UnitID)

	loaded, err := f.svc.Get(ctx, "Flour")
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)
	assert.Equal(t, 10.0, loaded.Quantity)
}

func TestAddRejectsDuplicateName(t *testing.T) {
	f := newStockFixture(t)

	f.mustAdd(t, "Sugar", 5)
	_, err := f.svc.Add(context.Background(), AddInput{
		Name: "Sugar", Category: f.category.Name, Quantity: 1, Unit: "kg",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDuplicate, pkgerrors.As(err).Code())
}

func TestAddRejectsUnknownCategory(t *testing.T) {
	f := newStockFixture(t)

	_, err := f.svc.Add(context.Background(), AddInput{
		Name: "Salt", Category: "Spices", Quantity: 1, Unit: "kg",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestDeltaIncrementsAndDecrements(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	f.mustAdd(t, "Flour", 10)

	item, err := f.svc.Delta(ctx, "Flour", 5)
	require.NoError(t, err)
	assert.Equal(t, 15.0, item.Quantity)

	item, err = f.svc.Delta(ctx, "Flour", -15)
	require.NoError(t, err)
	assert.Equal(t, 0.0, item.Quantity)
}

func TestDeltaRejectsOverdraw(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	f.mustAdd(t, "Flour", 3)

	_, err := f.svc.Delta(ctx, "Flour", -4)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())

	details, ok := typed.Details().(pkgerrors.InsufficientStockDetails)
	require.True(t, ok)
	assert.Equal(t, "Flour", details.Item)
	assert.Equal(t, 4.0, details.Required)
	assert.Equal(t, 3.0, details.Available)

	// the failed deduction must not have written anything
	loaded, err := f.svc.Get(ctx, "Flour")
	require.NoError(t, err)
	assert.Equal(t, 3.0, loaded.Quantity)
}

func TestDeltaUnknownItem(t *testing.T) {
	f := newStockFixture(t)

	_, err := f.svc.Delta(context.Background(), "Ghost", -1)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestSetBypassesNonNegativityGuard(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	f.mustAdd(t, "Flour", 10)

	item, err := f.svc.Set(ctx, "Flour", 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, item.Quantity)

	_, err = f.svc.Set(ctx, "Ghost", 5)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestDeleteBlockedByRecipeReference(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	item := f.mustAdd(t, "Flour", 10)

	product := &models.Product{ID: uuid.New(), Name: "Bread"}
	require.NoError(t, f.conn.Create(product).Error)
	entry := &models.RecipeEntry{
		ID:               uuid.New(),
		ProductID:        product.ID,
		StockItemID:      item.ID,
		QuantityPerUnit:  0.5,
		ConversionFactor: 1,
	}
	require.NoError(t, f.conn.Create(entry).Error)

	err := f.svc.Delete(ctx, "Flour")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeReferenced, pkgerrors.As(err).Code())

	// removing the recipe entry unblocks deletion
	require.NoError(t, f.conn.Delete(entry).Error)
	require.NoError(t, f.svc.Delete(ctx, "Flour"))

	_, err = f.svc.Get(ctx, "Flour")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestListResolvesCategoryAndUnitNames(t *testing.T) {
	f := newStockFixture(t)

	f.mustAdd(t, "Flour", 10)
	f.mustAdd(t, "Butter", 2)

	rows, err := f.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Butter", rows[0].Name)
	assert.Equal(t, "Flour", rows[1].Name)
	assert.Equal(t, catalog.DefaultStockCategoryName, rows[0].Category)
	assert.Equal(t, "kg", rows[0].Unit)
}
