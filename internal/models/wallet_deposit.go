package models

import "github.com/shopspring/decimal"

var (
	minPlannedWeight = decimal.Zero
	maxPlannedWeight = decimal.NewFromInt(100)
)

// WalletDeposit assigns a deposit to a wallet with the share of the wallet's
// funds it is planned to hold.
type WalletDeposit struct {
	Base
	WalletID      string          `gorm:"type:uuid;not null;index" json:"wallet_id"`
	DepositID     string          `gorm:"type:uuid;not null;uniqueIndex" json:"deposit_id"`
	PlannedWeight decimal.Decimal `gorm:"type:numeric(5,2);not null;check:chk_wallet_deposit_weight,planned_weight > 0 AND planned_weight < 100" json:"planned_weight"`

	Wallet  *Wallet `gorm:"foreignKey:WalletID;constraint:OnDelete:CASCADE" json:"-"`
	Deposit *Entity `gorm:"foreignKey:DepositID;constraint:OnDelete:CASCADE" json:"-"`
}

// ValidPlannedWeight reports whether w lies strictly between 0 and 100.
func ValidPlannedWeight(w decimal.Decimal) bool {
	return w.GreaterThan(minPlannedWeight) && w.LessThan(maxPlannedWeight)
}
