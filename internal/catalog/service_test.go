package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/avelkov/craftstock-backend/pkg/db/models"
	pkgerrors "github.com/avelkov/craftstock-backend/pkg/errors"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&models.Unit{},
		&models.StockCategory{},
		&models.ExpenseCategory{},
	))
	return conn
}

func newCatalogService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc
}

func TestCreateUnitRejectsBlankName(t *testing.T) {
	svc := newCatalogService(t, setupCatalogTestDB(t))

	_, err := svc.CreateUnit(context.Background(), "   ")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCreateUnitRejectsDuplicates(t *testing.T) {
	svc := newCatalogService(t, setupCatalogTestDB(t))
	ctx := context.Background()

	_, err := svc.CreateUnit(ctx, "kg")
	require.NoError(t, err)

	_, err = svc.CreateUnit(ctx, "kg")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDuplicate, typed.Code())
}

func TestResolveUnit(t *testing.T) {
	svc := newCatalogService(t, setupCatalogTestDB(t))
	ctx := context.Background()

	created, err := svc.CreateUnit(ctx, "pcs")
	require.NoError(t, err)

	resolved, err := svc.ResolveUnit(ctx, "pcs")
	require.NoError(t, err)
	assert.Equal(t, created.ID, resolved.ID)

	_, err = svc.ResolveUnit(ctx, "barrels")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestListUnitsSortedByName(t *testing.T) {
	svc := newCatalogService(t, setupCatalogTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"ml", "g", "kg"} {
		_, err := svc.CreateUnit(ctx, name)
		require.NoError(t, err)
	}

	units, err := svc.ListUnits(ctx)
	require.NoError(t, err)
	require.Len(t, units, 3)
	assert.Equal(t, "g", units[0].Name)
	assert.Equal(t, "kg", units[1].Name)
	assert.Equal(t, "ml", units[2].Name)
}

func TestStockCategoryLifecycle(t *testing.T) {
	svc := newCatalogService(t, setupCatalogTestDB(t))
	ctx := context.Background()

	created, err := svc.CreateStockCategory(ctx, DefaultStockCategoryName)
	require.NoError(t, err)

	_, err = svc.CreateStockCategory(ctx, DefaultStockCategoryName)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDuplicate, pkgerrors.As(err).Code())

	resolved, err := svc.ResolveStockCategory(ctx, DefaultStockCategoryName)
	require.NoError(t, err)
	assert.Equal(t, created.ID, resolved.ID)

	listed, err := svc.ListStockCategories(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestExpenseCategoryLifecycle(t *testing.T) {
	svc := newCatalogService(t, setupCatalogTestDB(t))
	ctx := context.Background()

	created, err := svc.CreateExpenseCategory(ctx, "Ingredients")
	require.NoError(t, err)

	resolved, err := svc.ResolveExpenseCategory(ctx, "Ingredients")
	require.NoError(t, err)
	assert.Equal(t, created.ID, resolved.ID)

	_, err = svc.ResolveExpenseCategory(ctx, "Rent")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
