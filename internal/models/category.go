package models

// TransferCategory classifies incomes or expenses of a budget. A category
// with an owner is personal, one without is common to all members.
type TransferCategory struct {
	Base
	BudgetID     string           `gorm:"type:uuid;not null;index;uniqueIndex:idx_category_personal_name,priority:1,where:owner_id IS NOT NULL;uniqueIndex:idx_category_common_name,priority:1,where:owner_id IS NULL" json:"budget_id"`
	CategoryType CategoryType     `gorm:"not null;uniqueIndex:idx_category_personal_name,priority:2;uniqueIndex:idx_category_common_name,priority:2" json:"category_type"`
	OwnerID      *string          `gorm:"type:uuid;uniqueIndex:idx_category_personal_name,priority:3" json:"owner_id"`
	Name         string           `gorm:"size:128;not null;uniqueIndex:idx_category_personal_name,priority:4;uniqueIndex:idx_category_common_name,priority:3" json:"name"`
	Description  string           `gorm:"size:255" json:"description"`
	Priority     CategoryPriority `gorm:"not null" json:"priority"`
	IsActive     bool             `gorm:"not null" json:"is_active"`

	Budget *Budget `gorm:"foreignKey:BudgetID;constraint:OnDelete:CASCADE" json:"-"`
	Owner  *User   `gorm:"foreignKey:OwnerID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName overrides the default table name.
func (TransferCategory) TableName() string { return "transfer_categories" }

// IsPersonal reports whether the category belongs to a single member.
func (c *TransferCategory) IsPersonal() bool { return c.OwnerID != nil }

// NewIncomeCategory returns an income category of the budget.
func NewIncomeCategory(budgetID, name string, priority CategoryPriority) *TransferCategory {
	return &TransferCategory{BudgetID: budgetID, CategoryType: CategoryTypeIncome, Name: name, Priority: priority, IsActive: true}
}

// NewExpenseCategory returns an expense category of the budget.
func NewExpenseCategory(budgetID, name string, priority CategoryPriority) *TransferCategory {
	return &TransferCategory{BudgetID: budgetID, CategoryType: CategoryTypeExpense, Name: name, Priority: priority, IsActive: true}
}
