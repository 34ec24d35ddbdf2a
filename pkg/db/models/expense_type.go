package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseType classifies expense document items. When StockFlag is set,
// posting an item of this type replenishes the stock item of the same name.
type ExpenseType struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name         string          `gorm:"column:name;not null;uniqueIndex"`
	DefaultPrice decimal.Decimal `gorm:"column:default_price;type:numeric(12,2);not null;default:0"`
	CategoryID   uuid.UUID       `gorm:"column:category_id;type:uuid;not null"`
	StockFlag    bool            `gorm:"column:stock;not null;default:false"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (ExpenseType) TableName() string { return "expense_types" }
