package sales

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/avelkov/craftstock-backend/pkg/db/models"
	"github.com/avelkov/craftstock-backend/pkg/pagination"
)

// Repository persists sale journal rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a sales repository bound to the provided DB.
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

func (r *Repository) Create(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

// ListQuery narrows and pages the sales journal.
type ListQuery struct {
	From       *time.Time
	To         *time.Time
	Pagination pagination.Params
}

// List returns sales newest first using keyset pagination. One extra row is
// fetched to detect whether a next page exists.
func (r *Repository) List(ctx context.Context, query ListQuery) ([]models.Sale, error) {
	q := r.db.WithContext(ctx).Model(&models.Sale{})

	if query.From != nil {
		q = q.Where("created_at >= ?", *query.From)
	}
	if query.To != nil {
		q = q.Where("created_at < ?", *query.To)
	}

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Sale
	err = q.Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(query.Pagination.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
