package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "budgetory/internal/errors"
	"budgetory/internal/models"
)

// walletDepositService assigns deposits to wallets.
type walletDepositService struct {
	db    *gorm.DB
	scope ScopeServicer
}

// NewWalletDepositService creates a new WalletDepositServicer.
func NewWalletDepositService(db *gorm.DB, scope ScopeServicer) WalletDepositServicer {
	return &walletDepositService{db: db, scope: scope}
}

// AllocateDeposit assigns a deposit of the budget to a wallet. The planned
// weight, rounded to two places, has to lie strictly between 0 and 100 and a
// deposit belongs to at most one wallet. Weights of one wallet are not required to sum to 100.
func (s *walletDepositService) AllocateDeposit(actor Actor, budgetID, walletID, depositID string, plannedWeight decimal.Decimal) (*models.WalletDeposit, error) {
	resolved, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID, WalletID: walletID, DepositID: depositID})
	if err != nil {
		return nil, err
	}
	plannedWeight = plannedWeight.Round(2)
	if !models.ValidPlannedWeight(plannedWeight) {
		return nil, apperrors.ErrInvalidPlannedWeight
	}

	allocation := &models.WalletDeposit{
		WalletID:      resolved.Wallet.ID,
		DepositID:     resolved.Deposit.ID,
		PlannedWeight: plannedWeight,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.WalletDeposit{}).Where("deposit_id = ?", depositID).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.ErrDepositAlreadyAssigned
		}
		if err := tx.Create(allocation).Error; err != nil {
			return dbError(err, apperrors.ErrDepositAlreadyAssigned)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return allocation, nil
}

// GetWalletDeposits lists the deposits assigned to a wallet.
func (s *walletDepositService) GetWalletDeposits(actor Actor, budgetID, walletID string) ([]models.WalletDeposit, error) {
	if _, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID, WalletID: walletID}); err != nil {
		return nil, err
	}

	var allocations []models.WalletDeposit
	if err := s.db.Where("wallet_id = ?", walletID).Order("created_at ASC").Find(&allocations).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if allocations == nil {
		allocations = []models.WalletDeposit{}
	}
	return allocations, nil
}

// UpdateAllocation changes the planned weight of an assignment.
func (s *walletDepositService) UpdateAllocation(actor Actor, budgetID, walletID, allocationID string, plannedWeight decimal.Decimal) (*models.WalletDeposit, error) {
	allocation, err := s.getAllocation(actor, budgetID, walletID, allocationID)
	if err != nil {
		return nil, err
	}
	plannedWeight = plannedWeight.Round(2)
	if !models.ValidPlannedWeight(plannedWeight) {
		return nil, apperrors.ErrInvalidPlannedWeight
	}

	allocation.PlannedWeight = plannedWeight
	if err := s.db.Model(allocation).Update("planned_weight", allocation.PlannedWeight).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return allocation, nil
}

// RemoveAllocation unassigns a deposit from a wallet.
func (s *walletDepositService) RemoveAllocation(actor Actor, budgetID, walletID, allocationID string) error {
	allocation, err := s.getAllocation(actor, budgetID, walletID, allocationID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(allocation).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *walletDepositService) getAllocation(actor Actor, budgetID, walletID, allocationID string) (*models.WalletDeposit, error) {
	if _, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID, WalletID: walletID}); err != nil {
		return nil, err
	}

	var allocation models.WalletDeposit
	if err := s.db.Where("id = ? AND wallet_id = ?", allocationID, walletID).First(&allocation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAllocationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &allocation, nil
}
