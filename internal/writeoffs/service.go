package writeoffs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelkov/craftstock-backend/internal/catalog"
	"github.com/avelkov/craftstock-backend/internal/consumption"
	"github.com/avelkov/craftstock-backend/internal/stock"
	"github.com/avelkov/craftstock-backend/pkg/db/models"
	pkgerrors "github.com/avelkov/craftstock-backend/pkg/errors"
)

const consumeOrigin = "writeoff"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateInput carries the fields required to record a write-off. Exactly one
// of ProductID or StockItemID must be set. Unit is optional for stock
// write-offs, where it defaults to the item's own unit.
type CreateInput struct {
	ProductID   *uuid.UUID `json:"productId,omitempty"`
	StockItemID *uuid.UUID `json:"stockItemId,omitempty"`
	Quantity    float64    `json:"quantity" validate:"gt=0"`
	Reason      string     `json:"reason" validate:"required"`
	Date        *time.Time `json:"date,omitempty"`
	Unit        string     `json:"unit,omitempty"`
}

// Service records write-offs: product write-offs consume the recipe, stock
// write-offs deduct the raw item directly. Both paths are invariant-checked.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.WriteOff, error)
	List(ctx context.Context) ([]models.WriteOff, error)
}

type service struct {
	repo        *Repository
	stockSvc    stock.Service
	stockRepo   *stock.Repository
	catalogRepo *catalog.Repository
	coordinator consumption.Coordinator
	tx          txRunner
}

// NewService wires the write-offs service.
func NewService(repo *Repository, stockSvc stock.Service, stockRepo *stock.Repository, catalogRepo *catalog.Repository, coordinator consumption.Coordinator, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("writeoffs repository required")
	}
	if stockSvc == nil {
		return nil, fmt.Errorf("stock service required")
	}
	if stockRepo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if coordinator == nil {
		return nil, fmt.Errorf("consumption coordinator required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:        repo,
		stockSvc:    stockSvc,
		stockRepo:   stockRepo,
		catalogRepo: catalogRepo,
		coordinator: coordinator,
		tx:          tx,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.WriteOff, error) {
	if (input.ProductID == nil) == (input.StockItemID == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			"exactly one of productId or stockItemId must be set")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	input.Reason = strings.TrimSpace(input.Reason)
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason required")
	}

	date := time.Now()
	if input.Date != nil {
		date = *input.Date
	}

	var writeOff *models.WriteOff
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var unitID uuid.UUID
		if input.StockItemID != nil {
			item, err := s.stockRepo.WithTx(tx).FindByID(ctx, *input.StockItemID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound,
						fmt.Sprintf("stock item %s not found", *input.StockItemID))
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock item")
			}
			if _, err := s.stockSvc.DeltaTx(ctx, tx, item.Name, -input.Quantity); err != nil {
				return err
			}
			unitID = item.UnitID
			if input.Unit != "" {
				resolved, err := s.resolveUnit(ctx, tx, input.Unit)
				if err != nil {
					return err
				}
				unitID = resolved
			}
		} else {
			if err := s.coordinator.ConsumeInTx(ctx, tx, *input.ProductID, input.Quantity, consumeOrigin); err != nil {
				return err
			}
			unitName := input.Unit
			if unitName == "" {
				unitName = "pcs"
			}
			resolved, err := s.resolveUnit(ctx, tx, unitName)
			if err != nil {
				return err
			}
			unitID = resolved
		}

		writeOff = &models.WriteOff{
			ID:          uuid.New(),
			ProductID:   input.ProductID,
			StockItemID: input.StockItemID,
			Quantity:    input.Quantity,
			Reason:      input.Reason,
			Date:        date,
			UnitID:      unitID,
		}
		if err := s.repo.WithTx(tx).Create(ctx, writeOff); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert write-off")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return writeOff, nil
}

// resolveUnit finds the named unit, creating it on first use so historical
// journals never block on missing reference data.
func (s *service) resolveUnit(ctx context.Context, tx *gorm.DB, name string) (uuid.UUID, error) {
	catalogRepo := s.catalogRepo.WithTx(tx)
	unit, err := catalogRepo.FindUnitByName(ctx, name)
	if err == nil {
		return unit.ID, nil
	}
	if err != gorm.ErrRecordNotFound {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unit")
	}
	unit = &models.Unit{ID: uuid.New(), Name: name}
	if err := catalogRepo.CreateUnit(ctx, unit); err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create unit")
	}
	return unit.ID, nil
}

func (s *service) List(ctx context.Context) ([]models.WriteOff, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list write-offs")
	}
	return rows, nil
}
