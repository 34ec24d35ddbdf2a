package models

import "github.com/google/uuid"

// StockCategory groups stock items for display and replenishment matching.
type StockCategory struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name string    `gorm:"column:name;not null;uniqueIndex"`
}

func (StockCategory) TableName() string { return "stock_categories" }
