package consumption

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelkov/craftstock-backend/internal/recipes"
	"github.com/avelkov/craftstock-backend/internal/stock"
	"github.com/avelkov/craftstock-backend/pkg/db/models"
	pkgerrors "github.com/avelkov/craftstock-backend/pkg/errors"
	"github.com/avelkov/craftstock-backend/pkg/logger"
	"github.com/avelkov/craftstock-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Coordinator deducts every recipe ingredient of a product in one atomic
// operation. Either all deductions land or none do.
type Coordinator interface {
	Consume(ctx context.Context, productID uuid.UUID, units float64, origin string) error
	ConsumeInTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, units float64, origin string) error
}

type coordinator struct {
	stockRepo   *stock.Repository
	recipesRepo *recipes.Repository
	tx          txRunner
	metrics     *metrics.StockMetrics
	log         *logger.Logger
}

// NewCoordinator wires the consumption coordinator. Metrics and logger are
// optional.
func NewCoordinator(stockRepo *stock.Repository, recipesRepo *recipes.Repository, tx txRunner, m *metrics.StockMetrics, log *logger.Logger) (Coordinator, error) {
	if stockRepo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if recipesRepo == nil {
		return nil, fmt.Errorf("recipes repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &coordinator{
		stockRepo:   stockRepo,
		recipesRepo: recipesRepo,
		tx:          tx,
		metrics:     m,
		log:         log,
	}, nil
}

// Consume runs ConsumeInTx inside its own transaction.
func (c *coordinator) Consume(ctx context.Context, productID uuid.UUID, units float64, origin string) error {
	return c.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return c.ConsumeInTx(ctx, tx, productID, units, origin)
	})
}

// ConsumeInTx deducts all recipe ingredients for units of the product inside
// the caller's transaction. Every ingredient is checked before any row is
// written; the conditional update re-checks each deduction so a concurrent
// writer between validation and apply still cannot overdraw. The first
// ingredient that cannot cover its share is reported in recipe order. A
// product without a recipe consumes nothing and succeeds.
func (c *coordinator) ConsumeInTx(ctx context.Context, tx *gorm.DB, productID uuid.UUID, units float64, origin string) error {
	if units <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "units must be positive")
	}

	started := time.Now()
	recipesRepo := c.recipesRepo.WithTx(tx)
	stockRepo := c.stockRepo.WithTx(tx)

	if _, err := recipesRepo.FindProductByID(ctx, productID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", productID))
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	entries, err := recipesRepo.ListRecipeEntries(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recipe")
	}
	if len(entries) == 0 {
		return nil
	}

	type deduction struct {
		item     *models.StockItem
		required float64
	}
	deductions := make([]deduction, 0, len(entries))
	for _, entry := range entries {
		item, err := stockRepo.FindByID(ctx, entry.StockItemID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound,
					fmt.Sprintf("stock item %s not found", entry.StockItemID))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock item")
		}
		required := entry.EffectiveQuantity(units)
		if item.Quantity < required {
			c.reportInsufficient(ctx, origin, item.Name)
			return pkgerrors.InsufficientStock(item.Name, required, item.Quantity)
		}
		deductions = append(deductions, deduction{item: item, required: required})
	}

	for _, d := range deductions {
		affected, err := stockRepo.ApplyDelta(ctx, d.item.Name, -d.required)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply deduction")
		}
		if affected == 0 {
			// a concurrent writer drained the item between check and apply
			current, ferr := stockRepo.FindByName(ctx, d.item.Name)
			available := 0.0
			if ferr == nil {
				available = current.Quantity
			}
			c.reportInsufficient(ctx, origin, d.item.Name)
			return pkgerrors.InsufficientStock(d.item.Name, d.required, available)
		}
	}

	if c.metrics != nil {
		c.metrics.IncConsumed(origin)
		c.metrics.ObserveConsumeDuration(origin, time.Since(started))
	}
	return nil
}

func (c *coordinator) reportInsufficient(ctx context.Context, origin, itemName string) {
	if c.metrics != nil {
		c.metrics.IncInsufficient(origin)
	}
	if c.log != nil {
		c.log.Warn(c.log.WithStockItem(ctx, itemName), "consumption rejected for insufficient stock")
	}
}
