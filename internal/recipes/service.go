package recipes

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avelkov/craftstock-backend/pkg/db"
	"github.com/avelkov/craftstock-backend/pkg/db/models"
	pkgerrors "github.com/avelkov/craftstock-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ProductInput carries the fields required to create or update a product.
type ProductInput struct {
	Name  string          `json:"name" validate:"required"`
	Price decimal.Decimal `json:"price"`
}

// RecipeEntryInput is one ingredient line of a product recipe. A zero
// ConversionFactor is treated as 1 (quantity already in the stock unit).
type RecipeEntryInput struct {
	StockItemID      uuid.UUID  `json:"stockItemId" validate:"required"`
	QuantityPerUnit  float64    `json:"quantityPerUnit" validate:"gt=0"`
	ConversionFactor float64    `json:"conversionFactor" validate:"gte=0"`
	DisplayUnitID    *uuid.UUID `json:"displayUnitId,omitempty"`
}

// Service owns the product catalog and the recipes that drive consumption.
type Service interface {
	CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	SetRecipe(ctx context.Context, productID uuid.UUID, entries []RecipeEntryInput) error
	GetRecipe(ctx context.Context, productID uuid.UUID) ([]EntryRow, error)
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService wires the recipe catalog service.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("recipes repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price must not be negative")
	}

	product := &models.Product{
		ID:    uuid.New(),
		Name:  input.Name,
		Price: input.Price,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicate, fmt.Sprintf("product %q already exists", input.Name))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert product")
	}
	return product, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return products, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*models.Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price must not be negative")
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Name = input.Name
	product.Price = input.Price
	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicate, fmt.Sprintf("product %q already exists", input.Name))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return product, nil
}

// DeleteProduct removes the product and its recipe entries in one
// transaction. Historical journal rows keep their snapshots.
func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteRecipeEntries(ctx, id); err != nil {
			return err
		}
		return repo.DeleteProduct(ctx, id)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

// SetRecipe replaces the product's recipe wholesale. Every referenced stock
// item is resolved before anything is written; one unknown reference aborts
// the whole replacement.
func (s *service) SetRecipe(ctx context.Context, productID uuid.UUID, entries []RecipeEntryInput) error {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return err
	}

	rows := make([]models.RecipeEntry, 0, len(entries))
	for i, entry := range entries {
		if entry.QuantityPerUnit <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("recipe entry %d: quantity per unit must be positive", i))
		}
		factor := entry.ConversionFactor
		if factor == 0 {
			factor = 1
		}
		if factor < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("recipe entry %d: conversion factor must be positive", i))
		}
		var item models.StockItem
		if err := s.repo.db.WithContext(ctx).First(&item, "id = ?", entry.StockItemID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound,
					fmt.Sprintf("recipe entry %d: stock item %s not found", i, entry.StockItemID))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock item")
		}
		rows = append(rows, models.RecipeEntry{
			ID:               uuid.New(),
			ProductID:        productID,
			StockItemID:      entry.StockItemID,
			QuantityPerUnit:  entry.QuantityPerUnit,
			ConversionFactor: factor,
			DisplayUnitID:    entry.DisplayUnitID,
			Position:         i,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteRecipeEntries(ctx, productID); err != nil {
			return err
		}
		return repo.CreateRecipeEntries(ctx, rows)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace recipe")
	}
	return nil
}

func (s *service) GetRecipe(ctx context.Context, productID uuid.UUID) ([]EntryRow, error) {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListRecipeResolved(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recipe")
	}
	return rows, nil
}
