package services

import (
	"errors"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "budgetory/internal/errors"
	"budgetory/internal/models"
	"budgetory/internal/pagination"
)

var transferOrdering = map[string]string{
	"date":  "date",
	"value": "value",
	"name":  "name",
}

// transferService handles the transfer ledger.
type transferService struct {
	db    *gorm.DB
	scope ScopeServicer
}

// NewTransferService creates a new TransferServicer.
func NewTransferService(db *gorm.DB, scope ScopeServicer) TransferServicer {
	return &transferService{db: db, scope: scope}
}

// CreateTransfer records a transfer of the given type.
func (s *transferService) CreateTransfer(actor Actor, budgetID string, transferType models.TransferType, in TransferInput) (*models.Transfer, error) {
	if !transferType.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid transfer type")
	}
	if _, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID}); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}
	value := in.Value.Round(2)
	if !value.IsPositive() {
		return nil, apperrors.ErrNonPositiveValue
	}
	if in.Date.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}

	transfer := &models.Transfer{
		BudgetID:     budgetID,
		TransferType: transferType,
		Name:         name,
		Description:  in.Description,
		Value:        value,
		Date:         models.DateOnly(in.Date),
		CategoryID:   in.CategoryID,
		EntityID:     in.EntityID,
		DepositID:    in.DepositID,
	}
	if in.PeriodID != nil {
		transfer.PeriodID = *in.PeriodID
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := validateTransfer(tx, transfer); err != nil {
			return err
		}
		if err := tx.Create(transfer).Error; err != nil {
			return dbError(err, nil)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

// validateTransfer checks the references of a transfer against its budget
// and resolves its period from the date when none is set.
func validateTransfer(tx *gorm.DB, t *models.Transfer) error {
	period, err := transferPeriod(tx, t)
	if err != nil {
		return err
	}
	if period.Status == models.PeriodStatusClosed {
		return apperrors.WithMessage(apperrors.ErrPeriodClosed, "Transfers of a Closed period cannot be changed.")
	}
	t.PeriodID = period.ID

	if t.CategoryID != nil {
		var category models.TransferCategory
		if err := findInBudget(tx, &category, t.BudgetID, *t.CategoryID, apperrors.ErrCategoryNotFound); err != nil {
			return err
		}
		if !t.TransferType.AcceptsCategory(&category) {
			return categoryMismatchError(t.TransferType)
		}
	}

	var entity models.Entity
	if err := findInBudget(tx, &entity, t.BudgetID, t.EntityID, apperrors.ErrEntityNotFound); err != nil {
		return err
	}

	if t.DepositID != nil {
		if _, err := findDeposit(tx, t.BudgetID, *t.DepositID); err != nil {
			return err
		}
		if *t.DepositID == t.EntityID {
			return apperrors.ErrSameEntityDeposit
		}
	}
	return nil
}

func transferPeriod(tx *gorm.DB, t *models.Transfer) (*models.Period, error) {
	var period models.Period
	if t.PeriodID != "" {
		if err := findInBudget(tx, &period, t.BudgetID, t.PeriodID, apperrors.ErrPeriodNotFound); err != nil {
			return nil, err
		}
		if !period.Contains(t.Date) {
			return nil, apperrors.ErrDateOutsidePeriod
		}
		return &period, nil
	}

	err := tx.Where("budget_id = ? AND date_start <= ? AND date_end >= ?", t.BudgetID, t.Date, t.Date).First(&period).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.WithMessage(apperrors.ErrPeriodNotFound, "No period in Budget contains transfer date.")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &period, nil
}

func categoryMismatchError(t models.TransferType) *apperrors.AppError {
	if want, ok := t.CategoryType(); ok {
		return apperrors.WithMessage(apperrors.ErrCategoryTypeMismatch,
			"Invalid Category type for "+t.Label()+" - "+want.Label()+" Category expected.")
	}
	return apperrors.WithMessage(apperrors.ErrCategoryTypeMismatch, t.Label()+" cannot have a Category.")
}

// GetBudgetTransfers retrieves a paginated, filtered list of transfers of one type.
func (s *transferService) GetBudgetTransfers(actor Actor, budgetID string, transferType models.TransferType, page pagination.PageRequest, filter TransferFilter) (*pagination.PageResponse[models.Transfer], error) {
	if _, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID}); err != nil {
		return nil, err
	}
	page.Defaults()

	base := s.db.Model(&models.Transfer{}).Where("budget_id = ? AND transfer_type = ?", budgetID, transferType)
	base = applyTransferFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transfers []models.Transfer
	if err := base.Scopes(pagination.Order(page, transferOrdering, "date DESC, created_at DESC"), pagination.Paginate(page)).
		Find(&transfers).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transfers, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransferFilters(q *gorm.DB, f TransferFilter) *gorm.DB {
	if f.Name != "" {
		q = q.Where("LOWER(name) LIKE ?", likePattern(f.Name))
	}
	if f.PeriodID != nil {
		q = q.Where("period_id = ?", *f.PeriodID)
	}
	if f.Uncategorized {
		q = q.Where("category_id IS NULL")
	} else if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.EntityID != nil {
		q = q.Where("entity_id = ?", *f.EntityID)
	}
	if f.DepositID != nil {
		q = q.Where("deposit_id = ?", *f.DepositID)
	}
	if f.FromDate != nil {
		q = q.Where("date >= ?", models.DateOnly(*f.FromDate))
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", models.DateOnly(*f.ToDate))
	}
	if f.MinValue != nil {
		q = q.Where("value >= ?", *f.MinValue)
	}
	if f.MaxValue != nil {
		q = q.Where("value <= ?", *f.MaxValue)
	}
	return q
}

// GetTransferByID returns a transfer of the given type.
func (s *transferService) GetTransferByID(actor Actor, budgetID string, transferType models.TransferType, transferID string) (*models.Transfer, error) {
	if _, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID}); err != nil {
		return nil, err
	}
	return findTransfer(s.db, budgetID, transferType, transferID)
}

func findTransfer(db *gorm.DB, budgetID string, transferType models.TransferType, transferID string) (*models.Transfer, error) {
	var transfer models.Transfer
	err := db.Where("id = ? AND budget_id = ? AND transfer_type = ?", transferID, budgetID, transferType).First(&transfer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransferNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transfer, nil
}

// UpdateTransfer changes a transfer and re-runs every reference check. The
// period only changes when given explicitly.
func (s *transferService) UpdateTransfer(actor Actor, budgetID string, transferType models.TransferType, transferID string, upd TransferUpdate) (*models.Transfer, error) {
	if _, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID}); err != nil {
		return nil, err
	}

	var result *models.Transfer
	err := s.db.Transaction(func(tx *gorm.DB) error {
		transfer, err := findTransfer(tx, budgetID, transferType, transferID)
		if err != nil {
			return err
		}
		if err := checkPeriodOpen(tx, transfer.PeriodID); err != nil {
			return err
		}

		if upd.Name != nil {
			name := strings.TrimSpace(*upd.Name)
			if name == "" {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "name cannot be empty")
			}
			transfer.Name = name
		}
		if upd.Description != nil {
			transfer.Description = *upd.Description
		}
		if upd.Value != nil {
			value := upd.Value.Round(2)
			if !value.IsPositive() {
				return apperrors.ErrNonPositiveValue
			}
			transfer.Value = value
		}
		if upd.Date != nil {
			transfer.Date = models.DateOnly(*upd.Date)
		}
		if upd.PeriodID != nil {
			transfer.PeriodID = *upd.PeriodID
		}
		if upd.CategoryID != nil {
			transfer.CategoryID = optionalID(*upd.CategoryID)
		}
		if upd.EntityID != nil {
			transfer.EntityID = *upd.EntityID
		}
		if upd.DepositID != nil {
			transfer.DepositID = optionalID(*upd.DepositID)
		}

		if err := validateTransfer(tx, transfer); err != nil {
			return err
		}

		if err := tx.Model(&models.Transfer{}).Where("id = ?", transfer.ID).Updates(map[string]interface{}{
			"name":        transfer.Name,
			"description": transfer.Description,
			"value":       transfer.Value,
			"date":        transfer.Date,
			"period_id":   transfer.PeriodID,
			"category_id": transfer.CategoryID,
			"entity_id":   transfer.EntityID,
			"deposit_id":  transfer.DepositID,
		}).Error; err != nil {
			return dbError(err, nil)
		}
		result = transfer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// BulkUpdateTransfers reassigns the category and/or entity of many transfers
// in one datastore transaction. Either all transfers change or none do.
func (s *transferService) BulkUpdateTransfers(actor Actor, budgetID string, transferType models.TransferType, ids []string, upd BulkTransferUpdate) (int64, error) {
	if _, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID}); err != nil {
		return 0, err
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "at least one transfer id is required")
	}
	if upd.CategoryID == nil && upd.EntityID == nil {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "nothing to update")
	}

	var affected int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		transfers, err := findTransfers(tx, budgetID, transferType, ids)
		if err != nil {
			return err
		}

		updates := make(map[string]interface{})
		if upd.CategoryID != nil {
			categoryID := optionalID(*upd.CategoryID)
			if categoryID != nil {
				var category models.TransferCategory
				if err := findInBudget(tx, &category, budgetID, *categoryID, apperrors.ErrCategoryNotFound); err != nil {
					return err
				}
				if !transferType.AcceptsCategory(&category) {
					return categoryMismatchError(transferType)
				}
			}
			updates["category_id"] = categoryID
		}
		if upd.EntityID != nil {
			var entity models.Entity
			if err := findInBudget(tx, &entity, budgetID, *upd.EntityID, apperrors.ErrEntityNotFound); err != nil {
				return err
			}
			for _, t := range transfers {
				if t.DepositID != nil && *t.DepositID == entity.ID {
					return apperrors.ErrSameEntityDeposit
				}
			}
			updates["entity_id"] = entity.ID
		}

		for _, t := range transfers {
			if err := checkPeriodOpen(tx, t.PeriodID); err != nil {
				return err
			}
		}

		res := tx.Model(&models.Transfer{}).Where("id IN ?", ids).Updates(updates)
		if res.Error != nil {
			return dbError(res.Error, nil)
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// DeleteTransfer deletes a transfer of an open period.
func (s *transferService) DeleteTransfer(actor Actor, budgetID string, transferType models.TransferType, transferID string) error {
	_, err := s.BulkDeleteTransfers(actor, budgetID, transferType, []string{transferID})
	return err
}

// BulkDeleteTransfers deletes many transfers of one type. Either all
// transfers are deleted or none are.
func (s *transferService) BulkDeleteTransfers(actor Actor, budgetID string, transferType models.TransferType, ids []string) (int64, error) {
	if _, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID}); err != nil {
		return 0, err
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "at least one transfer id is required")
	}

	var affected int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		transfers, err := findTransfers(tx, budgetID, transferType, ids)
		if err != nil {
			return err
		}
		for _, t := range transfers {
			if err := checkPeriodOpen(tx, t.PeriodID); err != nil {
				return err
			}
		}

		res := tx.Where("id IN ?", ids).Delete(&models.Transfer{})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// DepositBalance sums the values of one transfer type for a deposit,
// optionally within a single period. No matching transfers sum to zero.
func (s *transferService) DepositBalance(actor Actor, budgetID, depositID string, periodID *string, transferType models.TransferType) (decimal.Decimal, error) {
	scope := Scope{BudgetID: budgetID, DepositID: depositID}
	if periodID != nil {
		scope.PeriodID = *periodID
	}
	if _, err := s.scope.Resolve(actor, scope); err != nil {
		return decimal.Zero, err
	}

	q := s.db.Model(&models.Transfer{}).
		Where("budget_id = ? AND deposit_id = ? AND transfer_type = ?", budgetID, depositID, transferType)
	if periodID != nil {
		q = q.Where("period_id = ?", *periodID)
	}
	return sumValues(q)
}

// sumValues returns COALESCE(SUM(value), 0) of q rounded to two places.
func sumValues(q *gorm.DB) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := q.Select("COALESCE(SUM(value), 0)").Row().Scan(&total); err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total.Round(2), nil
}

func findTransfers(tx *gorm.DB, budgetID string, transferType models.TransferType, ids []string) ([]models.Transfer, error) {
	var transfers []models.Transfer
	if err := tx.Where("id IN ? AND budget_id = ? AND transfer_type = ?", ids, budgetID, transferType).
		Find(&transfers).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(transfers) != len(ids) {
		return nil, apperrors.ErrTransferNotFound
	}
	return transfers, nil
}

func checkPeriodOpen(tx *gorm.DB, periodID string) error {
	var status models.PeriodStatus
	if err := tx.Model(&models.Period{}).Select("status").Where("id = ?", periodID).Scan(&status).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if status == models.PeriodStatusClosed {
		return apperrors.WithMessage(apperrors.ErrPeriodClosed, "Transfers of a Closed period cannot be changed.")
	}
	return nil
}

// optionalID turns an empty id into a cleared reference.
func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
