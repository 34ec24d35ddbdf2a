package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/avelkov/craftstock-backend/pkg/enums"
)

// Order is a deferred sale. It is always created pending; completing it
// consumes stock and appends sale journal rows.
type Order struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Status         enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	CreatedDate    time.Time         `gorm:"column:created_date;not null"`
	CompletionDate *time.Time        `gorm:"column:completion_date"`
	Note           *string           `gorm:"column:note"`
	Items          []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }
