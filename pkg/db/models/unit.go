package models

import "github.com/google/uuid"

// Unit is a measurement unit stock quantities are expressed in (kg, pcs, l).
type Unit struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name string    `gorm:"column:name;not null;uniqueIndex"`
}

func (Unit) TableName() string { return "units" }
