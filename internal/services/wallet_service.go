package services

import (
	"strings"

	"gorm.io/gorm"

	apperrors "budgetory/internal/errors"
	"budgetory/internal/models"
	"budgetory/internal/pagination"
)

// walletService handles wallet-related business logic.
type walletService struct {
	db    *gorm.DB
	scope ScopeServicer
}

// NewWalletService creates a new WalletServicer.
func NewWalletService(db *gorm.DB, scope ScopeServicer) WalletServicer {
	return &walletService{db: db, scope: scope}
}

// CreateWallet creates a wallet in the budget. Wallet names are unique
// within a budget.
func (s *walletService) CreateWallet(actor Actor, budgetID, name, currency string) (*models.Wallet, error) {
	resolved, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID})
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}
	if currency == "" {
		currency = resolved.Budget.Currency
	}

	wallet := &models.Wallet{BudgetID: budgetID, Name: name, Currency: strings.ToUpper(currency)}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := checkWalletName(tx, budgetID, name, ""); err != nil {
			return err
		}
		if err := tx.Create(wallet).Error; err != nil {
			return dbError(err, apperrors.ErrDuplicateWallet)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// GetBudgetWallets returns a paginated list of the budget's wallets.
func (s *walletService) GetBudgetWallets(actor Actor, budgetID string, page pagination.PageRequest) (*pagination.PageResponse[models.Wallet], error) {
	if _, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID}); err != nil {
		return nil, err
	}
	page.Defaults()

	base := s.db.Model(&models.Wallet{}).Where("budget_id = ?", budgetID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var wallets []models.Wallet
	if err := base.Scopes(pagination.Order(page, map[string]string{"name": "name"}, "name ASC"), pagination.Paginate(page)).
		Find(&wallets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(wallets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetWalletByID returns a wallet of the budget.
func (s *walletService) GetWalletByID(actor Actor, budgetID, walletID string) (*models.Wallet, error) {
	resolved, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID, WalletID: walletID})
	if err != nil {
		return nil, err
	}
	return resolved.Wallet, nil
}

// UpdateWallet renames a wallet or changes its currency. Empty values are left unchanged.
func (s *walletService) UpdateWallet(actor Actor, budgetID, walletID, name, currency string) (*models.Wallet, error) {
	wallet, err := s.GetWalletByID(actor, budgetID, walletID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name = strings.TrimSpace(name); name != "" {
		updates["name"] = name
	}
	if currency != "" {
		updates["currency"] = strings.ToUpper(currency)
	}
	if len(updates) == 0 {
		return wallet, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if name != "" {
			if err := checkWalletName(tx, budgetID, name, wallet.ID); err != nil {
				return err
			}
		}
		if err := tx.Model(wallet).Updates(updates).Error; err != nil {
			return dbError(err, apperrors.ErrDuplicateWallet)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var updated models.Wallet
	if err := findInBudget(s.db, &updated, budgetID, wallet.ID, apperrors.ErrWalletNotFound); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteWallet deletes a wallet and its deposit assignments. The deposits
// themselves are kept.
func (s *walletService) DeleteWallet(actor Actor, budgetID, walletID string) error {
	wallet, err := s.GetWalletByID(actor, budgetID, walletID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("wallet_id = ?", wallet.ID).Delete(&models.WalletDeposit{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(wallet).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

func checkWalletName(tx *gorm.DB, budgetID, name, excludeID string) error {
	q := tx.Model(&models.Wallet{}).Where("budget_id = ? AND name = ?", budgetID, name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateWallet
	}
	return nil
}
