package sales

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelkov/craftstock-backend/internal/consumption"
	"github.com/avelkov/craftstock-backend/internal/recipes"
	"github.com/avelkov/craftstock-backend/pkg/db/models"
	pkgerrors "github.com/avelkov/craftstock-backend/pkg/errors"
	"github.com/avelkov/craftstock-backend/pkg/pagination"
)

const consumeOrigin = "sale"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateInput carries the fields required to record a sale.
type CreateInput struct {
	ProductID       uuid.UUID `json:"productId" validate:"required"`
	Quantity        float64   `json:"quantity" validate:"gt=0"`
	DiscountPercent float64   `json:"discountPercent" validate:"gte=0,lte=100"`
}

// Page is one page of the sales journal.
type Page struct {
	Items      []models.Sale `json:"items"`
	NextCursor *string       `json:"nextCursor,omitempty"`
}

// Service records sales and exposes the journal.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Sale, error)
	List(ctx context.Context, query ListQuery) (*Page, error)
}

type service struct {
	repo        *Repository
	recipesRepo *recipes.Repository
	coordinator consumption.Coordinator
	tx          txRunner
}

// NewService wires the sales service.
func NewService(repo *Repository, recipesRepo *recipes.Repository, coordinator consumption.Coordinator, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if recipesRepo == nil {
		return nil, fmt.Errorf("recipes repository required")
	}
	if coordinator == nil {
		return nil, fmt.Errorf("consumption coordinator required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, recipesRepo: recipesRepo, coordinator: coordinator, tx: tx}, nil
}

// Create deducts the product's recipe and appends the journal row in one
// transaction. The row snapshots the product name and price as they are now,
// so later edits or product deletion never rewrite history.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Sale, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.DiscountPercent < 0 || input.DiscountPercent > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
	}

	var sale *models.Sale
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := s.recipesRepo.WithTx(tx).FindProductByID(ctx, input.ProductID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", input.ProductID))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		if err := s.coordinator.ConsumeInTx(ctx, tx, product.ID, input.Quantity, consumeOrigin); err != nil {
			return err
		}

		productID := product.ID
		sale = &models.Sale{
			ID:              uuid.New(),
			ProductID:       &productID,
			ProductName:     product.Name,
			ProductPrice:    product.Price,
			Quantity:        input.Quantity,
			DiscountPercent: input.DiscountPercent,
		}
		if err := s.repo.WithTx(tx).Create(ctx, sale); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert sale")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *service) List(ctx context.Context, query ListQuery) (*Page, error) {
	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}

	limit := pagination.NormalizeLimit(query.Pagination.Limit)
	page := &Page{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		last := page.Items[len(page.Items)-1]
		cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		page.NextCursor = &cursor
	}
	return page, nil
}
