package expenses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelkov/craftstock-backend/pkg/db/models"
)

// Repository persists expense types, documents and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an expenses repository bound to the provided DB.
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

func (r *Repository) CreateType(ctx context.Context, expenseType *models.ExpenseType) error {
	return r.db.WithContext(ctx).Create(expenseType).Error
}

func (r *Repository) FindTypeByID(ctx context.Context, id uuid.UUID) (*models.ExpenseType, error) {
	var expenseType models.ExpenseType
	if err := r.db.WithContext(ctx).First(&expenseType, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &expenseType, nil
}

func (r *Repository) FindTypeByName(ctx context.Context, name string) (*models.ExpenseType, error) {
	var expenseType models.ExpenseType
	if err := r.db.WithContext(ctx).First(&expenseType, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &expenseType, nil
}

func (r *Repository) ListTypes(ctx context.Context) ([]models.ExpenseType, error) {
	var rows []models.ExpenseType
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (r *Repository) CountItemsByType(ctx context.Context, expenseTypeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ExpenseItem{}).
		Where("expense_type_id = ?", expenseTypeID).
		Count(&count).Error
	return count, err
}

func (r *Repository) DeleteType(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ExpenseType{}, "id = ?", id).Error
}

func (r *Repository) CreateDocument(ctx context.Context, doc *models.ExpenseDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *Repository) CreateItems(ctx context.Context, items []models.ExpenseItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *Repository) FindDocumentByID(ctx context.Context, id uuid.UUID) (*models.ExpenseDocument, error) {
	var doc models.ExpenseDocument
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *Repository) ListDocuments(ctx context.Context) ([]models.ExpenseDocument, error) {
	var docs []models.ExpenseDocument
	err := r.db.WithContext(ctx).
		Preload("Items").
		Order("doc_date DESC, created_at DESC").
		Find(&docs).Error
	return docs, err
}

func (r *Repository) DeleteDocumentItems(ctx context.Context, documentID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Delete(&models.ExpenseItem{}).Error
}

func (r *Repository) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ExpenseDocument{}, "id = ?", id).Error
}
