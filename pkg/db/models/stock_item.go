package models

import (
	"time"

	"github.com/google/uuid"
)

// StockItem is the authoritative quantity-on-hand for one named material.
// Quantity stays >= 0 through every invariant-checked mutation; the direct
// Set path bypasses the check and is reserved for administrative corrections.
type StockItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name       string    `gorm:"column:name;not null;uniqueIndex"`
	CategoryID uuid.UUID `gorm:"column:category_id;type:uuid;not null"`
	Quantity   float64   `gorm:"column:quantity;not null;default:0"`
	UnitID     uuid.UUID `gorm:"column:unit_id;type:uuid;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (StockItem) TableName() string { return "stock" }
