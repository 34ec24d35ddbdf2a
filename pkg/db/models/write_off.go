package models

import (
	"time"

	"github.com/google/uuid"
)

// WriteOff records a manual removal of quantity not tied to a sale. Exactly
// one of ProductID or StockItemID is set: product write-offs consume the
// product's recipe, stock write-offs deduct the raw item directly.
type WriteOff struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ProductID   *uuid.UUID `gorm:"column:product_id;type:uuid"`
	StockItemID *uuid.UUID `gorm:"column:stock_item_id;type:uuid"`
	Quantity    float64    `gorm:"column:quantity;not null"`
	Reason      string     `gorm:"column:reason;not null"`
	Date        time.Time  `gorm:"column:wo_date;not null"`
	UnitID      uuid.UUID  `gorm:"column:unit_id;type:uuid;not null"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (WriteOff) TableName() string { return "writeoffs" }
