package stock

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelkov/craftstock-backend/pkg/db/models"
)

// Repository persists stock items and applies quantity mutations.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a stock repository bound to the provided DB.
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

func (r *Repository) Create(ctx context.Context, item *models.StockItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.StockItem, error) {
	var item models.StockItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) FindByName(ctx context.Context, name string) (*models.StockItem, error) {
	var item models.StockItem
	if err := r.db.WithContext(ctx).First(&item, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ItemRow is a stock item with its category and unit names resolved for display.
type ItemRow struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
	Quantity float64   `json:"quantity"`
	Unit     string    `json:"unit"`
}

// ListResolved returns every stock item joined against its category and unit,
// ordered by item name.
func (r *Repository) ListResolved(ctx context.Context) ([]ItemRow, error) {
	var rows []ItemRow
	err := r.db.WithContext(ctx).
		Table("stock").
		Select("stock.id, stock.name, stock_categories.name AS category, stock.quantity, units.name AS unit").
		Joins("JOIN stock_categories ON stock_categories.id = stock.category_id").
		Joins("JOIN units ON units.id = stock.unit_id").
		Order("stock.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ApplyDelta adds amount to the named item's quantity, but only when the
// result stays non-negative. The guard and the write happen in one statement
// so concurrent deductions cannot slip past the check. Returns the number of
// rows updated: zero means either a missing item or an insufficient balance.
func (r *Repository) ApplyDelta(ctx context.Context, name string, amount float64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.StockItem{}).
		Where("name = ? AND quantity + ? >= 0", name, amount).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", amount))
	return result.RowsAffected, result.Error
}

// SetQuantity overwrites the named item's quantity without the non-negativity
// guard. Callers own the decision to bypass it.
func (r *Repository) SetQuantity(ctx context.Context, name string, quantity float64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.StockItem{}).
		Where("name = ?", name).
		UpdateColumn("quantity", quantity)
	return result.RowsAffected, result.Error
}

// CountRecipeRefs reports how many recipe entries reference the stock item.
func (r *Repository) CountRecipeRefs(ctx context.Context, stockItemID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RecipeEntry{}).
		Where("stock_item_id = ?", stockItemID).
		Count(&count).Error
	return count, err
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.StockItem{}, "id = ?", id).Error
}
