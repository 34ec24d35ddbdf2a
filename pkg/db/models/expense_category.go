package models

import "github.com/google/uuid"

// ExpenseCategory groups expense types (rent, materials, utilities).
type ExpenseCategory struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name string    `gorm:"column:name;not null;uniqueIndex"`
}

func (ExpenseCategory) TableName() string { return "expense_categories" }
