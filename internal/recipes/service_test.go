package recipes

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/avelkov/craftstock-backend/pkg/db/models"
	pkgerrors "github.com/avelkov/craftstock-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupRecipesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:recipes_" + uuid.NewString() + "?mode=memory&cache=shared"
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

func newRecipesService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), gormTxRunner{db: conn})
	require.NoError(t, err)
	return svc
}

func mustCreateStockItem(t *testing.T, conn *gorm.DB, name string, qty float64) *models.StockItem {
	t.Helper()

	unit := &models.Unit{ID: uuid.New(), Name: "unit_" + uuid.NewString()}
	require.NoError(t, conn.Create(unit).Error)
	category := &models.StockCategory{ID: uuid.New(), Name: "cat_" + uuid.NewString()}
	require.NoError(t, conn.Create(category).Error)

	item := &models.StockItem{
		ID:         uuid.New(),
		Name:       name,
		CategoryID: category.ID,
		Quantity:   qty,
		UnitID:     unit.ID,
	}
	require.NoError(t, conn.Create(item).Error)
	return item
}

func TestCreateProduct(t *testing.T) {
	conn := setupRecipesTestDB(t)
	svc := newRecipesService(t, conn)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, ProductInput{
		Name:  "Croissant",
		Price: decimal.NewFromFloat(3.50),
	})
	require.NoError(t, err)
	assert.True(t, product.Price.Equal(decimal.NewFromFloat(3.50)))

	_, err = svc.CreateProduct(ctx, ProductInput{Name: "Croissant", Price: decimal.NewFromInt(1)})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDuplicate, pkgerrors.As(err).Code())

	_, err = svc.CreateProduct(ctx, ProductInput{Name: " ", Price: decimal.NewFromInt(1)})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateProduct(t *testing.T) {
	conn := setupRecipesTestDB(t)
	svc := newRecipesService(t, conn)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, ProductInput{Name: "Bun", Price: decimal.NewFromInt(2)})
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(ctx, product.ID, ProductInput{
		Name:  "Sweet Bun",
		Price: decimal.NewFromFloat(2.25),
	})
	require.NoError(t, err)
	assert.Equal(t, "Sweet Bun", updated.Name)

	_, err = svc.UpdateProduct(ctx, uuid.New(), ProductInput{Name: "Ghost", Price: decimal.NewFromInt(1)})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestSetRecipeReplacesAtomically(t *testing.T) {
	conn := setupRecipesTestDB(t)
	svc := newRecipesService(t, conn)
	ctx := context.Background()

	flour := mustCreateStockItem(t, conn, "Flour", 10)
	butter := mustCreateStockItem(t, conn, "Butter", 5)

	product, err := svc.CreateProduct(ctx, ProductInput{Name: "Croissant", Price: decimal.NewFromInt(3)})
	require.NoError(t, err)

	require.NoError(t, svc.SetRecipe(ctx, product.ID, []RecipeEntryInput{
		{StockItemID: flour.ID, QuantityPerUnit: 0.1},
		{StockItemID: butter.ID, QuantityPerUnit: 0.05},
	}))

	recipe, err := svc.GetRecipe(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, recipe, 2)
	assert.Equal(t, "Flour", recipe[0].StockItem)
	assert.Equal(t, "Butter", recipe[1].StockItem)
	assert.Equal(t, 1.0, recipe[0].ConversionFactor)

	// replacement drops entries that are no longer listed
	require.NoError(t, svc.SetRecipe(ctx, product.ID, []RecipeEntryInput{
		{StockItemID: flour.ID, QuantityPerUnit: 0.2},
	}))
	recipe, err = svc.GetRecipe(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, recipe, 1)
	assert.Equal(t, 0.2, recipe[0].QuantityPerUnit)
}

func TestSetRecipeUnknownIngredientAbortsAll(t *testing.T) {
	conn := setupRecipesTestDB(t)
	svc := newRecipesService(t, conn)
	ctx := context.Background()

	flour := mustCreateStockItem(t, conn, "Flour", 10)
	product, err := svc.CreateProduct(ctx, ProductInput{Name: "Bread", Price: decimal.NewFromInt(2)})
	require.NoError(t, err)

	require.NoError(t, svc.SetRecipe(ctx, product.ID, []RecipeEntryInput{
		{StockItemID: flour.ID, QuantityPerUnit: 0.5},
	}))

	err = svc.SetRecipe(ctx, product.ID, []RecipeEntryInput{
		{StockItemID: flour.ID, QuantityPerUnit: 0.6},
		{StockItemID: uuid.New(), QuantityPerUnit: 0.1},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	// the previous recipe must be untouched
	recipe, err := svc.GetRecipe(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, recipe, 1)
	assert.Equal(t, 0.5, recipe[0].QuantityPerUnit)
}

func TestSetRecipeValidatesQuantities(t *testing.T) {
	conn := setupRecipesTestDB(t)
	svc := newRecipesService(t, conn)
	ctx := context.Background()

	flour := mustCreateStockItem(t, conn, "Flour", 10)
	product, err := svc.CreateProduct(ctx, ProductInput{Name: "Bread", Price: decimal.NewFromInt(2)})
	require.NoError(t, err)

	err = svc.SetRecipe(ctx, product.ID, []RecipeEntryInput{
		{StockItemID: flour.ID, QuantityPerUnit: 0},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestDeleteProductCascadesRecipe(t *testing.T) {
	conn := setupRecipesTestDB(t)
	svc := newRecipesService(t, conn)
	ctx := context.Background()

	flour := mustCreateStockItem(t, conn, "Flour", 10)
	product, err := svc.CreateProduct(ctx, ProductInput{Name: "Bread", Price: decimal.NewFromInt(2)})
	require.NoError(t, err)
	require.NoError(t, svc.SetRecipe(ctx, product.ID, []RecipeEntryInput{
		{StockItemID: flour.ID, QuantityPerUnit: 0.5},
	}))

	require.NoError(t, svc.DeleteProduct(ctx, product.ID))

	var count int64
	require.NoError(t, conn.Model(&models.RecipeEntry{}).Where("product_id = ?", product.ID).Count(&count).Error)
	assert.Zero(t, count)

	_, err = svc.GetProduct(ctx, product.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestRecipeDisplayUnitOverride(t *testing.T) {
	conn := setupRecipesTestDB(t)
	svc := newRecipesService(t, conn)
	ctx := context.Background()

	flour := mustCreateStockItem(t, conn, "Flour", 10)
	grams := &models.Unit{ID: uuid.New(), Name: "g"}
	require.NoError(t, conn.Create(grams).Error)

	product, err := svc.CreateProduct(ctx, ProductInput{Name: "Bread", Price: decimal.NewFromInt(2)})
	require.NoError(t, err)

	// 500 g per loaf, stored in kg
	require.NoError(t, svc.SetRecipe(ctx, product.ID, []RecipeEntryInput{
		{StockItemID: flour.ID, QuantityPerUnit: 500, ConversionFactor: 0.001, DisplayUnitID: &grams.ID},
	}))

	recipe, err := svc.GetRecipe(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, recipe, 1)
	assert.Equal(t, "g", recipe[0].Unit)

	entries, err := NewRepository(conn).ListRecipeEntries(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.InDelta(t, 1.0, entries[0].EffectiveQuantity(2), 1e-9)
}
