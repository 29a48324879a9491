package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "budgetory/internal/errors"
	"budgetory/internal/models"
	"budgetory/internal/pagination"
)

var entityOrdering = map[string]string{
	"id":   "id",
	"name": "name",
}

// entityService handles entity and deposit business logic.
type entityService struct {
	db    *gorm.DB
	scope ScopeServicer
}

// NewEntityService creates a new EntityServicer.
func NewEntityService(db *gorm.DB, scope ScopeServicer) EntityServicer {
	return &entityService{db: db, scope: scope}
}

// CreateEntity creates an entity, or a deposit when in.IsDeposit is set.
func (s *entityService) CreateEntity(actor Actor, budgetID string, in EntityInput) (*models.Entity, error) {
	if in.IsDeposit {
		return s.CreateDeposit(actor, budgetID, in)
	}

	resolved, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID})
	if err != nil {
		return nil, err
	}
	if in.DepositType != nil || in.OwnerID != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "deposit_type and owner can only be set for deposits")
	}

	entity := &models.Entity{
		BudgetID:    resolved.Budget.ID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	if err := s.create(entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// CreateDeposit creates a deposit. The is_deposit flag is always set,
// whatever the input says.
func (s *entityService) CreateDeposit(actor Actor, budgetID string, in EntityInput) (*models.Entity, error) {
	resolved, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID})
	if err != nil {
		return nil, err
	}

	depositType := models.DepositTypeDailyExpenses
	if in.DepositType != nil {
		depositType = *in.DepositType
	}
	if !depositType.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid deposit type")
	}
	if err := checkOwnerIsMember(s.db, resolved.Budget, in.OwnerID); err != nil {
		return nil, err
	}

	deposit := models.NewDeposit(resolved.Budget.ID, strings.TrimSpace(in.Name), depositType, in.OwnerID)
	deposit.Description = in.Description
	if in.IsActive != nil {
		deposit.IsActive = *in.IsActive
	}
	if err := s.create(deposit); err != nil {
		return nil, err
	}
	return deposit, nil
}

func (s *entityService) create(entity *models.Entity) error {
	if entity.Name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := checkEntityName(tx, entity, ""); err != nil {
			return err
		}
		if err := tx.Create(entity).Error; err != nil {
			return dbError(err, duplicateEntityError(entity))
		}
		return nil
	})
}

// GetBudgetEntities returns entities and deposits of the budget.
func (s *entityService) GetBudgetEntities(actor Actor, budgetID string, page pagination.PageRequest, filter EntityFilter) (*pagination.PageResponse[models.Entity], error) {
	if _, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID}); err != nil {
		return nil, err
	}
	page.Defaults()

	base := applyEntityFilters(s.db.Model(&models.Entity{}).Where("budget_id = ?", budgetID), filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entities []models.Entity
	if err := base.Scopes(pagination.Order(page, entityOrdering, "name ASC"), pagination.Paginate(page)).
		Find(&entities).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entities, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetDeposits returns the budget's deposits with their balances.
func (s *entityService) GetBudgetDeposits(actor Actor, budgetID string, page pagination.PageRequest, filter EntityFilter) (*pagination.PageResponse[DepositWithBalance], error) {
	isDeposit := true
	filter.IsDeposit = &isDeposit

	entities, err := s.GetBudgetEntities(actor, budgetID, page, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(entities.Data))
	for _, e := range entities.Data {
		ids = append(ids, e.ID)
	}
	balances, err := depositBalances(s.db, budgetID, ids)
	if err != nil {
		return nil, err
	}

	deposits := make([]DepositWithBalance, 0, len(entities.Data))
	for _, e := range entities.Data {
		deposits = append(deposits, DepositWithBalance{Entity: e, Balance: balanceOf(balances, e.ID)})
	}

	result := pagination.NewPageResponse(deposits, entities.Page, entities.PageSize, entities.TotalItems)
	return &result, nil
}

func applyEntityFilters(q *gorm.DB, f EntityFilter) *gorm.DB {
	if f.Name != "" {
		q = q.Where("LOWER(name) LIKE ?", likePattern(f.Name))
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	if f.IsDeposit != nil {
		q = q.Where("is_deposit = ?", *f.IsDeposit)
	}
	if f.DepositType != nil {
		q = q.Where("deposit_type = ?", *f.DepositType)
	}
	if f.OwnerID != nil {
		q = q.Where("owner_id = ?", *f.OwnerID)
	}
	return q
}

// GetEntityByID returns an entity or deposit of the budget.
func (s *entityService) GetEntityByID(actor Actor, budgetID, entityID string) (*models.Entity, error) {
	if _, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID}); err != nil {
		return nil, err
	}

	var entity models.Entity
	if err := findInBudget(s.db, &entity, budgetID, entityID, apperrors.ErrEntityNotFound); err != nil {
		return nil, err
	}
	return &entity, nil
}

// GetDepositByID returns a deposit of the budget with its balance.
func (s *entityService) GetDepositByID(actor Actor, budgetID, depositID string) (*DepositWithBalance, error) {
	resolved, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID, DepositID: depositID})
	if err != nil {
		return nil, err
	}

	balances, err := depositBalances(s.db, budgetID, []string{depositID})
	if err != nil {
		return nil, err
	}
	return &DepositWithBalance{Entity: *resolved.Deposit, Balance: balanceOf(balances, depositID)}, nil
}

// UpdateEntity changes an entity or deposit.
func (s *entityService) UpdateEntity(actor Actor, budgetID, entityID string, upd EntityUpdate) (*models.Entity, error) {
	entity, err := s.GetEntityByID(actor, budgetID, entityID)
	if err != nil {
		return nil, err
	}
	return s.update(actor, entity, upd)
}

// UpdateDeposit changes a deposit; ids of plain entities are not found.
func (s *entityService) UpdateDeposit(actor Actor, budgetID, depositID string, upd EntityUpdate) (*models.Entity, error) {
	resolved, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID, DepositID: depositID})
	if err != nil {
		return nil, err
	}
	return s.update(actor, resolved.Deposit, upd)
}

func (s *entityService) update(actor Actor, entity *models.Entity, upd EntityUpdate) (*models.Entity, error) {
	if !canModifyPersonal(actor, entity.OwnerID) {
		return nil, apperrors.ErrForbidden
	}

	updates := make(map[string]interface{})
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name cannot be empty")
		}
		entity.Name = name
		updates["name"] = name
	}
	if upd.Description != nil {
		updates["description"] = *upd.Description
	}
	if upd.IsActive != nil {
		updates["is_active"] = *upd.IsActive
	}
	if upd.DepositType != nil {
		if !entity.IsDeposit {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "deposit_type can only be set for deposits")
		}
		if !upd.DepositType.Valid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid deposit type")
		}
		updates["deposit_type"] = *upd.DepositType
	}
	if len(updates) == 0 {
		return entity, nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if upd.Name != nil {
			if err := checkEntityName(tx, entity, entity.ID); err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Entity{}).Where("id = ?", entity.ID).Updates(updates).Error; err != nil {
			return dbError(err, duplicateEntityError(entity))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var updated models.Entity
	if err := findInBudget(s.db, &updated, entity.BudgetID, entity.ID, apperrors.ErrEntityNotFound); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteEntity deletes an entity or deposit no transfer refers to.
func (s *entityService) DeleteEntity(actor Actor, budgetID, entityID string) error {
	entity, err := s.GetEntityByID(actor, budgetID, entityID)
	if err != nil {
		return err
	}
	return s.delete(actor, entity)
}

// DeleteDeposit deletes a deposit no transfer refers to.
func (s *entityService) DeleteDeposit(actor Actor, budgetID, depositID string) error {
	resolved, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID, DepositID: depositID})
	if err != nil {
		return err
	}
	return s.delete(actor, resolved.Deposit)
}

func (s *entityService) delete(actor Actor, entity *models.Entity) error {
	if !canModifyPersonal(actor, entity.OwnerID) {
		return apperrors.ErrForbidden
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Transfer{}).
			Where("entity_id = ? OR deposit_id = ?", entity.ID, entity.ID).
			Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.ErrEntityInUse
		}

		if err := tx.Where("deposit_id = ?", entity.ID).Delete(&models.WalletDeposit{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(entity).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// checkEntityName rejects a name already used, ignoring case, by another
// entity of the same kind in the budget.
func checkEntityName(tx *gorm.DB, entity *models.Entity, excludeID string) error {
	q := tx.Model(&models.Entity{}).
		Where("budget_id = ? AND is_deposit = ? AND LOWER(name) = ?", entity.BudgetID, entity.IsDeposit, strings.ToLower(entity.Name))
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return duplicateEntityError(entity)
	}
	return nil
}

func duplicateEntityError(entity *models.Entity) *apperrors.AppError {
	return apperrors.WithMessage(apperrors.ErrDuplicateEntity,
		fmt.Sprintf("%s with given name already exists in Budget.", entity.Kind()))
}

// depositBalances sums incomes minus expenses per deposit over all periods.
func depositBalances(db *gorm.DB, budgetID string, depositIDs []string) (map[string]decimal.Decimal, error) {
	balances := make(map[string]decimal.Decimal, len(depositIDs))
	if len(depositIDs) == 0 {
		return balances, nil
	}

	rows, err := db.Model(&models.Transfer{}).
		Select("deposit_id, COALESCE(SUM(CASE WHEN transfer_type = ? THEN value ELSE -value END), 0)", models.TransferTypeIncome).
		Where("budget_id = ? AND deposit_id IN ? AND transfer_type IN ?", budgetID, depositIDs,
			[]models.TransferType{models.TransferTypeIncome, models.TransferTypeExpense}).
		Group("deposit_id").
		Rows()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			depositID string
			total     decimal.Decimal
		)
		if err := rows.Scan(&depositID, &total); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		balances[depositID] = total.Round(2)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return balances, nil
}

func balanceOf(balances map[string]decimal.Decimal, id string) decimal.Decimal {
	if b, ok := balances[id]; ok {
		return b
	}
	return decimal.Zero
}
