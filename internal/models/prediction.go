package models

import "github.com/shopspring/decimal"

// ExpensePrediction is the planned spending of an expense category in a period.
type ExpensePrediction struct {
	Base
	PeriodID    string              `gorm:"type:uuid;not null;uniqueIndex:idx_prediction_period_category,priority:1" json:"period_id"`
	CategoryID  string              `gorm:"type:uuid;not null;uniqueIndex:idx_prediction_period_category,priority:2" json:"category_id"`
	InitialPlan decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"initial_plan"`
	CurrentPlan decimal.Decimal     `gorm:"type:numeric(10,2);not null;check:chk_prediction_current_plan,current_plan > 0" json:"current_plan"`
	Description string              `gorm:"size:255" json:"description"`

	Period   *Period           `gorm:"foreignKey:PeriodID;constraint:OnDelete:CASCADE" json:"-"`
	Category *TransferCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"-"`
}
