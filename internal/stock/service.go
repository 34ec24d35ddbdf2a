package stock

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelkov/craftstock-backend/pkg/db"
	"github.com/avelkov/craftstock-backend/pkg/db/models"
	pkgerrors "github.com/avelkov/craftstock-backend/pkg/errors"
)

type catalogResolver interface {
	ResolveStockCategory(ctx context.Context, name string) (*models.StockCategory, error)
	ResolveUnit(ctx context.Context, name string) (*models.Unit, error)
}

// AddInput carries the fields required to register a new stock item.
type AddInput struct {
	Name     string  `json:"name" validate:"required"`
	Category string  `json:"category" validate:"required"`
	Quantity float64 `json:"quantity" validate:"gte=0"`
	Unit     string  `json:"unit" validate:"required"`
}

// Service owns the stock ledger: every quantity change flows through here.
type Service interface {
	Get(ctx context.Context, name string) (*models.StockItem, error)
	List(ctx context.Context) ([]ItemRow, error)
	Add(ctx context.Context, input AddInput) (*models.StockItem, error)
	Delta(ctx context.Context, name string, amount float64) (*models.StockItem, error)
	DeltaTx(ctx context.Context, tx *gorm.DB, name string, amount float64) (*models.StockItem, error)
	Set(ctx context.Context, name string, quantity float64) (*models.StockItem, error)
	Delete(ctx context.Context, name string) error
}

type service struct {
	repo    *Repository
	catalog catalogResolver
}

// NewService wires the stock ledger service.
func NewService(repo *Repository, catalog catalogResolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog resolver required")
	}
	return &service{repo: repo, catalog: catalog}, nil
}

func (s *service) Get(ctx context.Context, name string) (*models.StockItem, error) {
	item, err := s.repo.FindByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("stock item %q not found", name))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock item")
	}
	return item, nil
}

func (s *service) List(ctx context.Context) ([]ItemRow, error) {
	rows, err := s.repo.ListResolved(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock")
	}
	return rows, nil
}

func (s *service) Add(ctx context.Context, input AddInput) (*models.StockItem, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock item name required")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial quantity must not be negative")
	}

	category, err := s.catalog.ResolveStockCategory(ctx, input.Category)
	if err != nil {
		return nil, err
	}
	unit, err := s.catalog.ResolveUnit(ctx, input.Unit)
	if err != nil {
		return nil, err
	}

	item := &models.StockItem{
		ID:         uuid.New(),
		Name:       input.Name,
		CategoryID: category.ID,
		Quantity:   input.Quantity,
		UnitID:     unit.ID,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicate, fmt.Sprintf("stock item %q already exists", input.Name))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert stock item")
	}
	return item, nil
}

// Delta applies a signed adjustment to the named item. Negative adjustments
// that would drive the quantity below zero are rejected without writing.
func (s *service) Delta(ctx context.Context, name string, amount float64) (*models.StockItem, error) {
	return s.DeltaTx(ctx, s.repo.db, name, amount)
}

// DeltaTx is Delta running against the caller's transaction, so composite
// operations (consumption, replenishment, write-offs) share one commit.
func (s *service) DeltaTx(ctx context.Context, tx *gorm.DB, name string, amount float64) (*models.StockItem, error) {
	name = strings.TrimSpace(name)
	repo := s.repo.WithTx(tx)

	affected, err := repo.ApplyDelta(ctx, name, amount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply stock delta")
	}
	if affected == 0 {
		item, ferr := repo.FindByName(ctx, name)
		if ferr != nil {
			if ferr == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("stock item %q not found", name))
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ferr, "load stock item")
		}
		return nil, pkgerrors.InsufficientStock(name, math.Abs(amount), item.Quantity)
	}
	item, err := repo.FindByName(ctx, name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload stock item")
	}
	return item, nil
}

// Set overwrites the quantity directly. No non-negativity check runs here:
// the operation exists for administrative corrections after physical counts.
func (s *service) Set(ctx context.Context, name string, quantity float64) (*models.StockItem, error) {
	name = strings.TrimSpace(name)
	affected, err := s.repo.SetQuantity(ctx, name, quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set stock quantity")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("stock item %q not found", name))
	}
	return s.Get(ctx, name)
}

func (s *service) Delete(ctx context.Context, name string) error {
	item, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	refs, err := s.repo.CountRecipeRefs(ctx, item.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count recipe references")
	}
	if refs > 0 {
		return pkgerrors.New(pkgerrors.CodeReferenced,
			fmt.Sprintf("stock item %q is referenced by %d recipe entries", name, refs))
	}
	if err := s.repo.Delete(ctx, item.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete stock item")
	}
	return nil
}
