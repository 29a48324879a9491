package services

import (
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"

	apperrors "budgetory/internal/errors"
	"budgetory/internal/models"
	"budgetory/internal/pagination"
)

var budgetOrdering = map[string]string{
	"name":       "name",
	"created_at": "created_at",
}

// budgetMember is a row of the budget membership join table.
type budgetMember struct {
	BudgetID string
	UserID   string
}

func (budgetMember) TableName() string { return "budget_members" }

// budgetService handles budget-related business logic.
type budgetService struct {
	db    *gorm.DB
	scope ScopeServicer
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, scope ScopeServicer) BudgetServicer {
	return &budgetService{db: db, scope: scope}
}

// CreateBudget creates a budget owned by the actor. The owner is always
// added to the members.
func (s *budgetService) CreateBudget(actor Actor, in BudgetInput) (*models.Budget, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}

	budget := &models.Budget{
		OwnerID:     actor.UserID,
		Name:        name,
		Description: in.Description,
		Currency:    strings.ToUpper(in.Currency),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := checkBudgetName(tx, actor.UserID, name, ""); err != nil {
			return err
		}
		if err := tx.Omit("Members").Create(budget).Error; err != nil {
			return dbError(err, nil)
		}
		return replaceMembers(tx, budget, in.MemberIDs)
	})
	if err != nil {
		return nil, err
	}

	return s.loadBudget(budget.ID)
}

// GetUserBudgets returns the budgets the actor owns or is a member of.
func (s *budgetService) GetUserBudgets(actor Actor, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).
		Where("owner_id = ? OR id IN (?)", actor.UserID,
			s.db.Table("budget_members").Select("budget_id").Where("user_id = ?", actor.UserID))

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Members").
		Scopes(pagination.Order(page, budgetOrdering, "name ASC"), pagination.Paginate(page)).
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget the actor has access to.
func (s *budgetService) GetBudgetByID(actor Actor, budgetID string) (*models.Budget, error) {
	if _, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID}); err != nil {
		return nil, err
	}
	return s.loadBudget(budgetID)
}

// UpdateBudget changes a budget. Any member may rename it; only the owner or
// staff may change the members.
func (s *budgetService) UpdateBudget(actor Actor, budgetID string, upd BudgetUpdate) (*models.Budget, error) {
	resolved, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID})
	if err != nil {
		return nil, err
	}
	budget := resolved.Budget

	if upd.MemberIDs != nil && budget.OwnerID != actor.UserID && !actor.IsStaff {
		return nil, apperrors.ErrForbidden
	}

	updates := make(map[string]interface{})
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name cannot be empty")
		}
		updates["name"] = name
	}
	if upd.Description != nil {
		updates["description"] = *upd.Description
	}
	if upd.Currency != nil {
		updates["currency"] = strings.ToUpper(*upd.Currency)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if name, ok := updates["name"].(string); ok {
			if err := checkBudgetName(tx, budget.OwnerID, name, budget.ID); err != nil {
				return err
			}
		}
		if len(updates) > 0 {
			if err := tx.Model(budget).Updates(updates).Error; err != nil {
				return dbError(err, nil)
			}
		}
		if upd.MemberIDs != nil {
			return replaceMembers(tx, budget, upd.MemberIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.loadBudget(budget.ID)
}

// DeleteBudget soft-deletes a budget. Only the owner or staff may delete it.
func (s *budgetService) DeleteBudget(actor Actor, budgetID string) error {
	resolved, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID})
	if err != nil {
		return err
	}
	if resolved.Budget.OwnerID != actor.UserID && !actor.IsStaff {
		return apperrors.ErrForbidden
	}

	if err := s.db.Delete(resolved.Budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *budgetService) loadBudget(budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Members").Where("id = ?", budgetID).First(&budget).Error; err != nil {
		return nil, dbError(err, nil)
	}
	return &budget, nil
}

func checkBudgetName(tx *gorm.DB, ownerID, name, excludeID string) error {
	q := tx.Model(&models.Budget{}).Where("owner_id = ? AND name = ?", ownerID, name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.WithMessage(apperrors.ErrDuplicateBudget,
			fmt.Sprintf("User already owns Budget with name %q.", name))
	}
	return nil
}

// replaceMembers sets the budget members to memberIDs plus the owner.
func replaceMembers(tx *gorm.DB, budget *models.Budget, memberIDs []string) error {
	ids := []string{budget.OwnerID}
	for _, id := range memberIDs {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}

	var found int64
	if err := tx.Model(&models.User{}).Where("id IN ?", ids).Count(&found).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if int(found) != len(ids) {
		return apperrors.ErrInvalidMember
	}

	if err := tx.Where("budget_id = ?", budget.ID).Delete(&budgetMember{}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	rows := make([]budgetMember, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, budgetMember{BudgetID: budget.ID, UserID: id})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
