package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer is a single movement of money within a budget.
type Transfer struct {
	Base
	BudgetID     string          `gorm:"type:uuid;not null;index" json:"budget_id"`
	TransferType TransferType    `gorm:"not null;index" json:"transfer_type"`
	Name         string          `gorm:"size:128;not null" json:"name"`
	Description  string          `gorm:"size:255" json:"description"`
	Value        decimal.Decimal `gorm:"type:numeric(10,2);not null;check:chk_transfer_value,value > 0" json:"value"`
	Date         time.Time       `gorm:"type:date;not null;index" json:"date"`
	PeriodID     string          `gorm:"type:uuid;not null;index" json:"period_id"`
	CategoryID   *string         `gorm:"type:uuid;index" json:"category_id"`
	EntityID     string          `gorm:"type:uuid;not null;index" json:"entity_id"`
	DepositID    *string         `gorm:"type:uuid;index" json:"deposit_id"`

	Period   *Period           `gorm:"foreignKey:PeriodID;constraint:OnDelete:CASCADE" json:"-"`
	Category *TransferCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"-"`
	Entity   *Entity           `gorm:"foreignKey:EntityID;constraint:OnDelete:RESTRICT" json:"-"`
	Deposit  *Entity           `gorm:"foreignKey:DepositID;constraint:OnDelete:RESTRICT" json:"-"`
}

// AcceptsCategory reports whether category may classify a transfer of type t.
func (t TransferType) AcceptsCategory(category *TransferCategory) bool {
	want, ok := t.CategoryType()
	if category == nil {
		return true
	}
	return ok && category.CategoryType == want
}
