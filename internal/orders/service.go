package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelkov/craftstock-backend/internal/consumption"
	"github.com/avelkov/craftstock-backend/internal/recipes"
	"github.com/avelkov/craftstock-backend/internal/sales"
	"github.com/avelkov/craftstock-backend/pkg/db/models"
	"github.com/avelkov/craftstock-backend/pkg/enums"
	pkgerrors "github.com/avelkov/craftstock-backend/pkg/errors"
	"github.com/avelkov/craftstock-backend/pkg/logger"
)

const consumeOrigin = "order"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ItemInput is one ordered position.
type ItemInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  float64   `json:"quantity" validate:"gt=0"`
}

// CreateInput carries the fields required to open an order.
type CreateInput struct {
	Items       []ItemInput `json:"items" validate:"required,min=1,dive"`
	CreatedDate *time.Time  `json:"createdDate,omitempty"`
	Note        *string     `json:"note,omitempty"`
	CompleteNow bool        `json:"completeNow"`
}

// CreateResult is the outcome of Create. When CompleteNow was requested and
// completion failed, Order is the surviving pending order and CompletionError
// carries the reason.
type CreateResult struct {
	Order           *models.Order
	CompletionError *pkgerrors.Error
}

// Service drives the order state machine: pending orders hold snapshots only,
// completion consumes stock and writes the sale journal.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*CreateResult, error)
	Complete(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, query ListQuery) ([]models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo        *Repository
	recipesRepo *recipes.Repository
	salesRepo   *sales.Repository
	coordinator consumption.Coordinator
	tx          txRunner
	log         *logger.Logger
}

// NewService wires the order lifecycle service. Logger is optional.
func NewService(repo *Repository, recipesRepo *recipes.Repository, salesRepo *sales.Repository, coordinator consumption.Coordinator, tx txRunner, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if recipesRepo == nil {
		return nil, fmt.Errorf("recipes repository required")
	}
	if salesRepo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if coordinator == nil {
		return nil, fmt.Errorf("consumption coordinator required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:        repo,
		recipesRepo: recipesRepo,
		salesRepo:   salesRepo,
		coordinator: coordinator,
		tx:          tx,
		log:         log,
	}, nil
}

// Create opens the order in pending state with product name and price
// snapshots. When CompleteNow is set, completion runs as a second independent
// step: a completion failure leaves the created pending order in place rather
// than failing the whole call.
func (s *service) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for i, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("order item %d: quantity must be positive", i))
		}
	}

	createdDate := time.Now()
	if input.CreatedDate != nil {
		createdDate = *input.CreatedDate
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		recipesRepo := s.recipesRepo.WithTx(tx)
		repo := s.repo.WithTx(tx)

		order = &models.Order{
			ID:          uuid.New(),
			Status:      enums.OrderStatusPending,
			CreatedDate: createdDate,
			Note:        input.Note,
		}

		rows := make([]models.OrderItem, 0, len(input.Items))
		for _, item := range input.Items {
			product, err := recipesRepo.FindProductByID(ctx, item.ProductID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound,
						fmt.Sprintf("product %s not found", item.ProductID))
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			productID := product.ID
			rows = append(rows, models.OrderItem{
				ID:           uuid.New(),
				OrderID:      order.ID,
				ProductID:    &productID,
				ProductName:  product.Name,
				ProductPrice: product.Price,
				Quantity:     item.Quantity,
			})
		}

		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order")
		}
		if err := repo.CreateItems(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert order items")
		}
		order.Items = rows
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &CreateResult{Order: order}
	if input.CompleteNow {
		completed, cerr := s.Complete(ctx, order.ID)
		if cerr != nil {
			result.CompletionError = pkgerrors.As(cerr)
			if result.CompletionError == nil {
				result.CompletionError = pkgerrors.Wrap(pkgerrors.CodeInternal, cerr, "complete order")
			}
			if s.log != nil {
				s.log.Warn(s.log.WithOrderID(ctx, order.ID.String()), "immediate completion failed, order stays pending")
			}
		} else {
			result.Order = completed
		}
	}
	return result, nil
}

// Complete transitions pending -> completed: every item's recipe is consumed
// and one sale journal row is appended per item, all in one transaction. A
// failed consumption aborts the whole transition.
func (s *service) Complete(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var completed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		salesRepo := s.salesRepo.WithTx(tx)

		order, err := repo.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", id))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status == enums.OrderStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order %s is already completed", id))
		}

		now := time.Now()
		for _, item := range order.Items {
			if item.ProductID == nil {
				return pkgerrors.New(pkgerrors.CodeNotFound,
					fmt.Sprintf("order item %q no longer resolves to a product", item.ProductName))
			}
			if err := s.coordinator.ConsumeInTx(ctx, tx, *item.ProductID, item.Quantity, consumeOrigin); err != nil {
				return err
			}
			sale := &models.Sale{
				ID:           uuid.New(),
				ProductID:    item.ProductID,
				ProductName:  item.ProductName,
				ProductPrice: item.ProductPrice,
				Quantity:     item.Quantity,
			}
			if err := salesRepo.Create(ctx, sale); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert sale")
			}
		}

		affected, err := repo.MarkCompleted(ctx, order.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order completed")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order %s is already completed", id))
		}

		order.Status = enums.OrderStatusCompleted
		order.CompletionDate = &now
		completed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, query ListQuery) ([]models.Order, error) {
	orders, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, nil
}

// Delete removes a pending order. Completed orders already consumed stock and
// wrote journal rows; removing one never restores stock, so it is refused.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	order, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if order.Status == enums.OrderStatusCompleted {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order %s is completed and cannot be deleted", id))
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteItems(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order items")
		}
		if err := repo.Delete(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		return nil
	})
}
