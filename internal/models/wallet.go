package models

// Wallet groups deposits of a budget.
type Wallet struct {
	Base
	BudgetID string `gorm:"type:uuid;not null;uniqueIndex:idx_wallet_budget_name,priority:1" json:"budget_id"`
	Name     string `gorm:"not null;uniqueIndex:idx_wallet_budget_name,priority:2" json:"name"`
	Currency string `gorm:"size:3;not null" json:"currency"`

	Budget *Budget `gorm:"foreignKey:BudgetID;constraint:OnDelete:CASCADE" json:"-"`
}
