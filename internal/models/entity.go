package models

// Entity is a counterparty of transfers. Deposits are entities flagged with
// IsDeposit that hold money (bank accounts, cash, savings).
type Entity struct {
	Base
	BudgetID    string       `gorm:"type:uuid;not null;uniqueIndex:idx_entity_budget_kind_name,priority:1" json:"budget_id"`
	IsDeposit   bool         `gorm:"not null;default:false;uniqueIndex:idx_entity_budget_kind_name,priority:2" json:"is_deposit"`
	Name        string       `gorm:"size:128;not null;uniqueIndex:idx_entity_budget_kind_name,priority:3" json:"name"`
	Description string       `gorm:"size:255" json:"description"`
	IsActive    bool         `gorm:"not null" json:"is_active"`
	DepositType *DepositType `json:"deposit_type,omitempty"`
	OwnerID     *string      `gorm:"type:uuid" json:"owner_id,omitempty"`

	Budget *Budget `gorm:"foreignKey:BudgetID;constraint:OnDelete:CASCADE" json:"-"`
	Owner  *User   `gorm:"foreignKey:OwnerID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName overrides the default table name.
func (Entity) TableName() string { return "entities" }

// Kind returns the display name of the entity's partition.
func (e *Entity) Kind() string {
	if e.IsDeposit {
		return "Deposit"
	}
	return "Entity"
}

// NewDeposit returns a deposit of the budget. It is the only way deposits are
// built, so IsDeposit is always set.
func NewDeposit(budgetID, name string, depositType DepositType, ownerID *string) *Entity {
	return &Entity{
		BudgetID:    budgetID,
		IsDeposit:   true,
		Name:        name,
		IsActive:    true,
		DepositType: &depositType,
		OwnerID:     ownerID,
	}
}
