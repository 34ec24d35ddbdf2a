package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseItem is one position of an expense document. StockItemID is set only
// when the item's expense type is stock-affecting.
type ExpenseItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	DocumentID    uuid.UUID       `gorm:"column:document_id;type:uuid;not null;index"`
	ExpenseTypeID uuid.UUID       `gorm:"column:expense_type_id;type:uuid;not null"`
	StockItemID   *uuid.UUID      `gorm:"column:stock_item_id;type:uuid"`
	Quantity      float64         `gorm:"column:quantity;not null"`
	PricePerUnit  decimal.Decimal `gorm:"column:price_per_unit;type:numeric(12,2);not null"`
	TotalPrice    decimal.Decimal `gorm:"column:total_price;type:numeric(14,2);not null"`
}

func (ExpenseItem) TableName() string { return "expense_items" }
