package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is a journal row recording one sold position. ProductName and
// ProductPrice are snapshots captured at sale time and stay immune to later
// product edits.
type Sale struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID       *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	ProductName     string          `gorm:"column:product_name;not null"`
	ProductPrice    decimal.Decimal `gorm:"column:product_price;type:numeric(12,2);not null"`
	Quantity        float64         `gorm:"column:quantity;not null"`
	DiscountPercent float64         `gorm:"column:discount_percent;not null;default:0"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (Sale) TableName() string { return "sales" }
