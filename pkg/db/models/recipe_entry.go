package models

import "github.com/google/uuid"

// RecipeEntry binds one stock ingredient to a product. QuantityPerUnit is
// declared in the entry's display unit; ConversionFactor converts it into the
// stock item's native unit.
type RecipeEntry struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ProductID        uuid.UUID  `gorm:"column:product_id;type:uuid;not null;index"`
	StockItemID      uuid.UUID  `gorm:"column:stock_item_id;type:uuid;not null"`
	QuantityPerUnit  float64    `gorm:"column:quantity_per_unit;not null"`
	ConversionFactor float64    `gorm:"column:conversion_factor;not null;default:1"`
	DisplayUnitID    *uuid.UUID `gorm:"column:display_unit_id;type:uuid"`
	Position         int        `gorm:"column:position;not null;default:0"`
}

func (RecipeEntry) TableName() string { return "product_recipe" }

// EffectiveQuantity is the deduction applied to the stock item for the given
// number of produced units, expressed in the stock item's own unit.
func (e RecipeEntry) EffectiveQuantity(units float64) float64 {
	return e.QuantityPerUnit * e.ConversionFactor * units
}
