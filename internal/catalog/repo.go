package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelkov/craftstock-backend/pkg/db/models"
)

// DefaultStockCategoryName is the fallback category assigned to stock items
// created implicitly during replenishment.
const DefaultStockCategoryName = "Materials"

// Repository manages the reference catalogs: units, stock categories and
// expense categories.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) CreateUnit(ctx context.Context, unit *models.Unit) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

func (r *Repository) FindUnitByID(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	var unit models.Unit
	if err := r.db.WithContext(ctx).First(&unit, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *Repository) FindUnitByName(ctx context.Context, name string) (*models.Unit, error) {
	var unit models.Unit
	if err := r.db.WithContext(ctx).First(&unit, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *Repository) ListUnits(ctx context.Context) ([]models.Unit, error) {
	var units []models.Unit
	err := r.db.WithContext(ctx).Order("name ASC").Find(&units).Error
	return units, err
}

func (r *Repository) CreateStockCategory(ctx context.Context, category *models.StockCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *Repository) FindStockCategoryByID(ctx context.Context, id uuid.UUID) (*models.StockCategory, error) {
	var category models.StockCategory
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repository) FindStockCategoryByName(ctx context.Context, name string) (*models.StockCategory, error) {
	var category models.StockCategory
	if err := r.db.WithContext(ctx).First(&category, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repository) ListStockCategories(ctx context.Context) ([]models.StockCategory, error) {
	var categories []models.StockCategory
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *Repository) CreateExpenseCategory(ctx context.Context, category *models.ExpenseCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *Repository) FindExpenseCategoryByID(ctx context.Context, id uuid.UUID) (*models.ExpenseCategory, error) {
	var category models.ExpenseCategory
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repository) FindExpenseCategoryByName(ctx context.Context, name string) (*models.ExpenseCategory, error) {
	var category models.ExpenseCategory
	if err := r.db.WithContext(ctx).First(&category, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repository) ListExpenseCategories(ctx context.Context) ([]models.ExpenseCategory, error) {
	var categories []models.ExpenseCategory
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}
