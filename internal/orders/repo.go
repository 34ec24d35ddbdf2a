package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelkov/craftstock-backend/pkg/db/models"
	"github.com/avelkov/craftstock-backend/pkg/enums"
)

// Repository persists orders and their item snapshots.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
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

func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *Repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListQuery narrows the order listing.
type ListQuery struct {
	Status *enums.OrderStatus
}

func (r *Repository) List(ctx context.Context, query ListQuery) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Preload("Items")
	if query.Status != nil {
		q = q.Where("status = ?", *query.Status)
	}
	var orders []models.Order
	err := q.Order("created_date DESC, created_at DESC").Find(&orders).Error
	return orders, err
}

// MarkCompleted flips a pending order to completed, stamping the completion
// date. The status guard in the WHERE clause means only one concurrent caller
// sees a row update.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID, completedAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, enums.OrderStatusPending).
		Updates(map[string]any{
			"status":          enums.OrderStatusCompleted,
			"completion_date": completedAt,
		})
	return result.RowsAffected, result.Error
}

func (r *Repository) DeleteItems(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.OrderItem{}).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id).Error
}
