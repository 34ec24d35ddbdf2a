package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelkov/craftstock-backend/pkg/db"
	"github.com/avelkov/craftstock-backend/pkg/db/models"
	pkgerrors "github.com/avelkov/craftstock-backend/pkg/errors"
)

// Service exposes name⇄id resolution over the reference catalogs.
type Service interface {
	CreateUnit(ctx context.Context, name string) (*models.Unit, error)
	ListUnits(ctx context.Context) ([]models.Unit, error)
	ResolveUnit(ctx context.Context, name string) (*models.Unit, error)

	CreateStockCategory(ctx context.Context, name string) (*models.StockCategory, error)
	ListStockCategories(ctx context.Context) ([]models.StockCategory, error)
	ResolveStockCategory(ctx context.Context, name string) (*models.StockCategory, error)
	EnsureDefaultStockCategory(ctx context.Context) (*models.StockCategory, error)

	CreateExpenseCategory(ctx context.Context, name string) (*models.ExpenseCategory, error)
	ListExpenseCategories(ctx context.Context) ([]models.ExpenseCategory, error)
	ResolveExpenseCategory(ctx context.Context, name string) (*models.ExpenseCategory, error)
}

type service struct {
	repo *Repository
}

// NewService wires a catalog service with the provided repository.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateUnit(ctx context.Context, name string) (*models.Unit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit name required")
	}
	unit := &models.Unit{ID: uuid.New(), Name: name}
	if err := s.repo.CreateUnit(ctx, unit); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicate, fmt.Sprintf("unit %q already exists", name))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert unit")
	}
	return unit, nil
}

func (s *service) ListUnits(ctx context.Context) ([]models.Unit, error) {
	return s.repo.ListUnits(ctx)
}

func (s *service) ResolveUnit(ctx context.Context, name string) (*models.Unit, error) {
	unit, err := s.repo.FindUnitByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unit %q not found", name))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unit")
	}
	return unit, nil
}

func (s *service) CreateStockCategory(ctx context.Context, name string) (*models.StockCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock category name required")
	}
	category := &models.StockCategory{ID: uuid.New(), Name: name}
	if err := s.repo.CreateStockCategory(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicate, fmt.Sprintf("stock category %q already exists", name))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert stock category")
	}
	return category, nil
}

func (s *service) ListStockCategories(ctx context.Context) ([]models.StockCategory, error) {
	return s.repo.ListStockCategories(ctx)
}

func (s *service) ResolveStockCategory(ctx context.Context, name string) (*models.StockCategory, error) {
	category, err := s.repo.FindStockCategoryByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("stock category %q not found", name))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock category")
	}
	return category, nil
}

// EnsureDefaultStockCategory returns the fallback category, creating it when
// a fresh database has not been seeded yet.
func (s *service) EnsureDefaultStockCategory(ctx context.Context) (*models.StockCategory, error) {
	category, err := s.repo.FindStockCategoryByName(ctx, DefaultStockCategoryName)
	if err == nil {
		return category, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load default stock category")
	}
	return s.CreateStockCategory(ctx, DefaultStockCategoryName)
}

func (s *service) CreateExpenseCategory(ctx context.Context, name string) (*models.ExpenseCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expense category name required")
	}
	category := &models.ExpenseCategory{ID: uuid.New(), Name: name}
	if err := s.repo.CreateExpenseCategory(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicate, fmt.Sprintf("expense category %q already exists", name))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert expense category")
	}
	return category, nil
}

func (s *service) ListExpenseCategories(ctx context.Context) ([]models.ExpenseCategory, error) {
	return s.repo.ListExpenseCategories(ctx)
}

func (s *service) ResolveExpenseCategory(ctx context.Context, name string) (*models.ExpenseCategory, error) {
	category, err := s.repo.FindExpenseCategoryByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("expense category %q not found", name))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load expense category")
	}
	return category, nil
}
