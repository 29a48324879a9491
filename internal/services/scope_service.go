package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "budgetory/internal/errors"
	"budgetory/internal/models"
)

// scopeService resolves the budget, wallet, period and deposit a request is
// nested under and checks that the caller may access the budget.
type scopeService struct {
	db *gorm.DB
}

// NewScopeService creates a new ScopeServicer.
func NewScopeService(db *gorm.DB) ScopeServicer {
	return &scopeService{db: db}
}

// Resolve loads every id named in scope. Unknown ids and ids belonging to
// another budget are reported as not found; a budget the actor is not a
// member of is reported as forbidden.
func (s *scopeService) Resolve(actor Actor, scope Scope) (*ResolvedScope, error) {
	var budget models.Budget
	if err := s.db.Where("id = ?", scope.BudgetID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	ok, err := s.Authorize(actor, &budget)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrForbidden
	}

	resolved := &ResolvedScope{Budget: &budget}

	if scope.WalletID != "" {
		var wallet models.Wallet
		if err := findInBudget(s.db, &wallet, budget.ID, scope.WalletID, apperrors.ErrWalletNotFound); err != nil {
			return nil, err
		}
		resolved.Wallet = &wallet
	}

	if scope.PeriodID != "" {
		var period models.Period
		if err := findInBudget(s.db, &period, budget.ID, scope.PeriodID, apperrors.ErrPeriodNotFound); err != nil {
			return nil, err
		}
		resolved.Period = &period
	}

	if scope.DepositID != "" {
		deposit, err := findDeposit(s.db, budget.ID, scope.DepositID)
		if err != nil {
			return nil, err
		}
		resolved.Deposit = deposit
	}

	return resolved, nil
}

// Authorize reports whether the actor owns the budget or is one of its members.
func (s *scopeService) Authorize(actor Actor, budget *models.Budget) (bool, error) {
	if actor.UserID == "" {
		return false, nil
	}
	if budget.OwnerID == actor.UserID {
		return true, nil
	}
	return isMember(s.db, budget.ID, actor.UserID)
}

func isMember(db *gorm.DB, budgetID, userID string) (bool, error) {
	var count int64
	if err := db.Table("budget_members").
		Where("budget_id = ? AND user_id = ?", budgetID, userID).
		Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// findInBudget loads the row with the given id into dest, requiring it to
// belong to the budget. A missing row yields notFound.
func findInBudget(db *gorm.DB, dest any, budgetID, id string, notFound *apperrors.AppError) error {
	if err := db.Where("id = ? AND budget_id = ?", id, budgetID).First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func findDeposit(db *gorm.DB, budgetID, depositID string) (*models.Entity, error) {
	var deposit models.Entity
	err := db.Where("id = ? AND budget_id = ? AND is_deposit = ?", depositID, budgetID, true).First(&deposit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDepositNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &deposit, nil
}

// canModifyPersonal reports whether the actor may change a resource with the
// given personal owner. Common resources are open to every budget member.
func canModifyPersonal(actor Actor, ownerID *string) bool {
	return ownerID == nil || actor.IsStaff || *ownerID == actor.UserID
}

// checkOwnerIsMember verifies that a personal owner has access to the budget.
func checkOwnerIsMember(db *gorm.DB, budget *models.Budget, ownerID *string) error {
	if ownerID == nil || *ownerID == budget.OwnerID {
		return nil
	}
	ok, err := isMember(db, budget.ID, *ownerID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrInvalidOwner
	}
	return nil
}

// dbError maps a datastore error to dup when it reports a unique constraint
// violation, and to an internal error otherwise.
func dbError(err error, dup error) error {
	if dup != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return dup
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
