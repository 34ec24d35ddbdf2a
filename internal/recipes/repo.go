package recipes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelkov/craftstock-backend/pkg/db/models"
)

// Repository persists products and their recipe entries.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a recipes repository bound to the provided DB.
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

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *Repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) FindProductByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).Order("name ASC").Find(&products).Error
	return products, err
}

func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":  product.Name,
			"price": product.Price,
		}).Error
}

func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}

func (r *Repository) DeleteRecipeEntries(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.RecipeEntry{}).Error
}

func (r *Repository) CreateRecipeEntries(ctx context.Context, entries []models.RecipeEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

// EntryRow is a recipe entry with the stock item and display unit resolved.
type EntryRow struct {
	StockItemID      uuid.UUID `json:"stockItemId"`
	StockItem        string    `json:"stockItem"`
	QuantityPerUnit  float64   `json:"quantityPerUnit"`
	ConversionFactor float64   `json:"conversionFactor"`
	Unit             string    `json:"unit"`
	Position         int       `json:"position"`
}

// ListRecipeResolved returns the product's recipe in insertion order with
// stock item names and display units attached. The display unit falls back to
// the stock item's own unit when the entry does not override it.
func (r *Repository) ListRecipeResolved(ctx context.Context, productID uuid.UUID) ([]EntryRow, error) {
	var rows []EntryRow
	err := r.db.WithContext(ctx).
		Table("product_recipe").
		Select(`product_recipe.stock_item_id,
			stock.name AS stock_item,
			product_recipe.quantity_per_unit,
			product_recipe.conversion_factor,
			COALESCE(display_units.name, stock_units.name) AS unit,
			product_recipe.position`).
		Joins("JOIN stock ON stock.id = product_recipe.stock_item_id").
		Joins("JOIN units stock_units ON stock_units.id = stock.unit_id").
		Joins("LEFT JOIN units display_units ON display_units.id = product_recipe.display_unit_id").
		Where("product_recipe.product_id = ?", productID).
		Order("product_recipe.position ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListRecipeEntries returns the raw recipe rows ordered by position.
func (r *Repository) ListRecipeEntries(ctx context.Context, productID uuid.UUID) ([]models.RecipeEntry, error) {
	var entries []models.RecipeEntry
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("position ASC").
		Find(&entries).Error
	return entries, err
}
