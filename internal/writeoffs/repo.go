package writeoffs

import (
	"context"

	"gorm.io/gorm"

	"github.com/avelkov/craftstock-backend/pkg/db/models"
)

// Repository persists write-off journal rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a write-offs repository bound to the provided DB.
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

func (r *Repository) Create(ctx context.Context, writeOff *models.WriteOff) error {
	return r.db.WithContext(ctx).Create(writeOff).Error
}

func (r *Repository) List(ctx context.Context) ([]models.WriteOff, error) {
	var rows []models.WriteOff
	err := r.db.WithContext(ctx).
		Order("wo_date DESC, created_at DESC").
		Find(&rows).Error
	return rows, err
}
