package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseDocument is a posted purchase document. The document row, its items
// and all stock increments commit as one transaction.
type ExpenseDocument struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Date        time.Time       `gorm:"column:doc_date;not null"`
	SupplierID  *uuid.UUID      `gorm:"column:supplier_id;type:uuid"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:numeric(14,2);not null"`
	Comment     *string         `gorm:"column:comment"`
	Items       []ExpenseItem   `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (ExpenseDocument) TableName() string { return "expense_documents" }
