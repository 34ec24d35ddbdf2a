package expenses

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/avelkov/craftstock-backend/internal/catalog"
	"github.com/avelkov/craftstock-backend/internal/stock"
	"github.com/avelkov/craftstock-backend/pkg/db"
	"github.com/avelkov/craftstock-backend/pkg/db/models"
	pkgerrors "github.com/avelkov/craftstock-backend/pkg/errors"
	"github.com/avelkov/craftstock-backend/pkg/metrics"
)

const (
	replenishOrigin = "expense"

	// defaultUnitName is assigned to stock items that replenishment creates
	// implicitly, since expense items carry no unit of their own.
	defaultUnitName = "pcs"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// TypeInput carries the fields required to create an expense type.
type TypeInput struct {
	Name         string          `json:"name" validate:"required"`
	DefaultPrice decimal.Decimal `json:"defaultPrice"`
	Category     string          `json:"category" validate:"required"`
	StockFlag    bool            `json:"stockFlag"`
}

// DocumentItemInput is one position of a posted expense document.
type DocumentItemInput struct {
	ExpenseTypeID uuid.UUID       `json:"expenseTypeId" validate:"required"`
	Quantity      float64         `json:"quantity" validate:"gt=0"`
	PricePerUnit  decimal.Decimal `json:"pricePerUnit"`
}

// DocumentInput carries the fields required to post an expense document.
type DocumentInput struct {
	Date       time.Time           `json:"date" validate:"required"`
	SupplierID *uuid.UUID          `json:"supplierId,omitempty"`
	Comment    *string             `json:"comment,omitempty"`
	Items      []DocumentItemInput `json:"items" validate:"required,min=1,dive"`
}

// Service owns expense types and the replenishment flow: posting a document
// whose items are stock-affecting increments the ledger atomically with the
// document rows.
type Service interface {
	CreateType(ctx context.Context, input TypeInput) (*models.ExpenseType, error)
	ListTypes(ctx context.Context) ([]models.ExpenseType, error)
	DeleteType(ctx context.Context, id uuid.UUID) error

	PostDocument(ctx context.Context, input DocumentInput) (*models.ExpenseDocument, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*models.ExpenseDocument, error)
	ListDocuments(ctx context.Context) ([]models.ExpenseDocument, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo        *Repository
	stockRepo   *stock.Repository
	catalogRepo *catalog.Repository
	tx          txRunner
	metrics     *metrics.StockMetrics
}

// NewService wires the expenses service. Metrics are optional.
func NewService(repo *Repository, stockRepo *stock.Repository, catalogRepo *catalog.Repository, tx txRunner, m *metrics.StockMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("expenses repository required")
	}
	if stockRepo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, stockRepo: stockRepo, catalogRepo: catalogRepo, tx: tx, metrics: m}, nil
}

func (s *service) CreateType(ctx context.Context, input TypeInput) (*models.ExpenseType, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expense type name required")
	}
	if input.DefaultPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "default price must not be negative")
	}

	category, err := s.catalogRepo.FindExpenseCategoryByName(ctx, strings.TrimSpace(input.Category))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("expense category %q not found", input.Category))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load expense category")
	}

	expenseType := &models.ExpenseType{
		ID:           uuid.New(),
		Name:         input.Name,
		DefaultPrice: input.DefaultPrice,
		CategoryID:   category.ID,
		StockFlag:    input.StockFlag,
	}
	if err := s.repo.CreateType(ctx, expenseType); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicate,
				fmt.Sprintf("expense type %q already exists", input.Name))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert expense type")
	}
	return expenseType, nil
}

func (s *service) ListTypes(ctx context.Context) ([]models.ExpenseType, error) {
	rows, err := s.repo.ListTypes(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expense types")
	}
	return rows, nil
}

func (s *service) DeleteType(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindTypeByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("expense type %s not found", id))
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load expense type")
	}
	refs, err := s.repo.CountItemsByType(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count expense items")
	}
	if refs > 0 {
		return pkgerrors.New(pkgerrors.CodeReferenced,
			fmt.Sprintf("expense type %s is referenced by %d document items", id, refs))
	}
	if err := s.repo.DeleteType(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete expense type")
	}
	return nil
}

// PostDocument writes the document, its items and every stock increment in
// one transaction. Items whose expense type is stock-affecting replenish the
// stock item named after the type, creating it on first sight.
func (s *service) PostDocument(ctx context.Context, input DocumentInput) (*models.ExpenseDocument, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document must contain at least one item")
	}
	for i, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("document item %d: quantity must be positive", i))
		}
		if item.PricePerUnit.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("document item %d: price must not be negative", i))
		}
	}
	if input.Date.IsZero() {
		input.Date = time.Now()
	}

	var doc *models.ExpenseDocument
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		stockRepo := s.stockRepo.WithTx(tx)

		doc = &models.ExpenseDocument{
			ID:         uuid.New(),
			Date:       input.Date,
			SupplierID: input.SupplierID,
			Comment:    input.Comment,
		}

		total := decimal.Zero
		rows := make([]models.ExpenseItem, 0, len(input.Items))
		for _, item := range input.Items {
			expenseType, err := repo.FindTypeByID(ctx, item.ExpenseTypeID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound,
						fmt.Sprintf("expense type %s not found", item.ExpenseTypeID))
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load expense type")
			}

			price := item.PricePerUnit
			if price.IsZero() {
				price = expenseType.DefaultPrice
			}
			lineTotal := price.Mul(decimal.NewFromFloat(item.Quantity))
			total = total.Add(lineTotal)

			row := models.ExpenseItem{
				ID:            uuid.New(),
				DocumentID:    doc.ID,
				ExpenseTypeID: expenseType.ID,
				Quantity:      item.Quantity,
				PricePerUnit:  price,
				TotalPrice:    lineTotal,
			}

			if expenseType.StockFlag {
				stockItem, err := s.resolveOrCreateStockItem(ctx, tx, expenseType)
				if err != nil {
					return err
				}
				affected, err := stockRepo.ApplyDelta(ctx, stockItem.Name, item.Quantity)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply replenishment")
				}
				if affected == 0 {
					return pkgerrors.New(pkgerrors.CodeDependency,
						fmt.Sprintf("replenishment of %q did not apply", stockItem.Name))
				}
				row.StockItemID = &stockItem.ID
				if s.metrics != nil {
					s.metrics.IncReplenished(replenishOrigin)
				}
			}
			rows = append(rows, row)
		}

		doc.TotalAmount = total
		if err := repo.CreateDocument(ctx, doc); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert expense document")
		}
		if err := repo.CreateItems(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert expense items")
		}
		doc.Items = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// resolveOrCreateStockItem finds the stock item named after the expense type,
// creating it when absent. The new item's category is the stock category whose
// name matches the type's expense category, else the default one. The matching
// is a name heuristic carried over from the ledger's history; an explicit
// mapping table would be sturdier.
func (s *service) resolveOrCreateStockItem(ctx context.Context, tx *gorm.DB, expenseType *models.ExpenseType) (*models.StockItem, error) {
	stockRepo := s.stockRepo.WithTx(tx)
	catalogRepo := s.catalogRepo.WithTx(tx)

	item, err := stockRepo.FindByName(ctx, expenseType.Name)
	if err == nil {
		return item, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock item")
	}

	category, err := s.matchStockCategory(ctx, catalogRepo, expenseType.CategoryID)
	if err != nil {
		return nil, err
	}
	unit, err := s.resolveDefaultUnit(ctx, catalogRepo)
	if err != nil {
		return nil, err
	}

	item = &models.StockItem{
		ID:         uuid.New(),
		Name:       expenseType.Name,
		CategoryID: category.ID,
		Quantity:   0,
		UnitID:     unit.ID,
	}
	if err := stockRepo.Create(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stock item")
	}
	return item, nil
}

func (s *service) matchStockCategory(ctx context.Context, catalogRepo *catalog.Repository, expenseCategoryID uuid.UUID) (*models.StockCategory, error) {
	expenseCategory, err := catalogRepo.FindExpenseCategoryByID(ctx, expenseCategoryID)
	if err == nil {
		if match, merr := catalogRepo.FindStockCategoryByName(ctx, expenseCategory.Name); merr == nil {
			return match, nil
		} else if merr != gorm.ErrRecordNotFound {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, merr, "match stock category")
		}
	} else if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load expense category")
	}

	fallback, err := catalogRepo.FindStockCategoryByName(ctx, catalog.DefaultStockCategoryName)
	if err == nil {
		return fallback, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load default stock category")
	}
	fallback = &models.StockCategory{ID: uuid.New(), Name: catalog.DefaultStockCategoryName}
	if err := catalogRepo.CreateStockCategory(ctx, fallback); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create default stock category")
	}
	return fallback, nil
}

func (s *service) resolveDefaultUnit(ctx context.Context, catalogRepo *catalog.Repository) (*models.Unit, error) {
	unit, err := catalogRepo.FindUnitByName(ctx, defaultUnitName)
	if err == nil {
		return unit, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load default unit")
	}
	unit = &models.Unit{ID: uuid.New(), Name: defaultUnitName}
	if err := catalogRepo.CreateUnit(ctx, unit); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create default unit")
	}
	return unit, nil
}

func (s *service) GetDocument(ctx context.Context, id uuid.UUID) (*models.ExpenseDocument, error) {
	doc, err := s.repo.FindDocumentByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("expense document %s not found", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load expense document")
	}
	return doc, nil
}

func (s *service) ListDocuments(ctx context.Context) ([]models.ExpenseDocument, error) {
	docs, err := s.repo.ListDocuments(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expense documents")
	}
	return docs, nil
}

// DeleteDocument reverses every stock increment the document applied before
// removing its rows. If any reversal would drive an item negative the whole
// deletion fails and nothing changes.
func (s *service) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		stockRepo := s.stockRepo.WithTx(tx)

		for _, item := range doc.Items {
			if item.StockItemID == nil {
				continue
			}
			stockItem, err := stockRepo.FindByID(ctx, *item.StockItemID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					// the replenished item was deleted since; nothing to reverse
					continue
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock item")
			}
			affected, err := stockRepo.ApplyDelta(ctx, stockItem.Name, -item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reverse replenishment")
			}
			if affected == 0 {
				return pkgerrors.New(pkgerrors.CodeStockRollback,
					fmt.Sprintf("cannot reverse %v of %q: stock already consumed", item.Quantity, stockItem.Name)).
					WithDetails(pkgerrors.InsufficientStockDetails{
						Item:      stockItem.Name,
						Required:  item.Quantity,
						Available: stockItem.Quantity,
					})
			}
		}

		if err := repo.DeleteDocumentItems(ctx, doc.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete expense items")
		}
		if err := repo.DeleteDocument(ctx, doc.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete expense document")
		}
		return nil
	})
}
