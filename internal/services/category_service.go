package services

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	apperrors "budgetory/internal/errors"
	"budgetory/internal/models"
	"budgetory/internal/pagination"
)

var categoryOrdering = map[string]string{
	"id":       "id",
	"name":     "name",
	"priority": "priority",
}

// categoryService handles category-related business logic.
type categoryService struct {
	db    *gorm.DB
	scope ScopeServicer
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB, scope ScopeServicer) CategoryServicer {
	return &categoryService{db: db, scope: scope}
}

// CreateCategory creates an income or expense category in the budget.
// Names are unique per budget, type and owner; common categories share one
// namespace per type.
func (s *categoryService) CreateCategory(actor Actor, budgetID string, in CategoryInput) (*models.TransferCategory, error) {
	resolved, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID})
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if !in.CategoryType.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid category type")
	}
	if !in.Priority.ValidFor(in.CategoryType) {
		return nil, apperrors.ErrInvalidPriority
	}
	if err := checkOwnerIsMember(s.db, resolved.Budget, in.OwnerID); err != nil {
		return nil, err
	}

	category := &models.TransferCategory{
		BudgetID:     budgetID,
		CategoryType: in.CategoryType,
		OwnerID:      in.OwnerID,
		Name:         name,
		Description:  in.Description,
		Priority:     in.Priority,
		IsActive:     in.IsActive == nil || *in.IsActive,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := checkCategoryName(tx, category, ""); err != nil {
			return err
		}
		if err := tx.Create(category).Error; err != nil {
			return dbError(err, duplicateCategoryError(category))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// GetBudgetCategories retrieves a paginated, filtered list of the budget's categories.
func (s *categoryService) GetBudgetCategories(actor Actor, budgetID string, page pagination.PageRequest, filter CategoryFilter) (*pagination.PageResponse[models.TransferCategory], error) {
	if _, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID}); err != nil {
		return nil, err
	}
	page.Defaults()

	base := applyCategoryFilters(s.db.Model(&models.TransferCategory{}).Where("budget_id = ?", budgetID), filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.TransferCategory
	if err := base.Scopes(
		pagination.Order(page, categoryOrdering, "category_type ASC, priority ASC, name ASC"),
		pagination.Paginate(page),
	).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyCategoryFilters(q *gorm.DB, f CategoryFilter) *gorm.DB {
	if f.Name != "" {
		q = q.Where("LOWER(name) LIKE ?", likePattern(f.Name))
	}
	if f.Description != "" {
		q = q.Where("LOWER(description) LIKE ?", likePattern(f.Description))
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	if f.CategoryType != nil {
		q = q.Where("category_type = ?", *f.CategoryType)
	}
	if f.Priority != nil {
		q = q.Where("priority = ?", *f.Priority)
	}
	if f.CommonOnly {
		q = q.Where("owner_id IS NULL")
	} else if f.OwnerID != nil {
		q = q.Where("owner_id = ?", *f.OwnerID)
	}
	return q
}

// GetCategoryByID returns a category of the budget.
func (s *categoryService) GetCategoryByID(actor Actor, budgetID, categoryID string) (*models.TransferCategory, error) {
	if _, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID}); err != nil {
		return nil, err
	}

	var category models.TransferCategory
	if err := findInBudget(s.db, &category, budgetID, categoryID, apperrors.ErrCategoryNotFound); err != nil {
		return nil, err
	}
	return &category, nil
}

// UpdateCategory changes a category. Personal categories may only be changed
// by their owner or by staff.
func (s *categoryService) UpdateCategory(actor Actor, budgetID, categoryID string, upd CategoryUpdate) (*models.TransferCategory, error) {
	category, err := s.GetCategoryByID(actor, budgetID, categoryID)
	if err != nil {
		return nil, err
	}
	if !canModifyPersonal(actor, category.OwnerID) {
		return nil, apperrors.ErrForbidden
	}

	updates := make(map[string]interface{})
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name cannot be empty")
		}
		category.Name = name
		updates["name"] = name
	}
	if upd.Description != nil {
		updates["description"] = *upd.Description
	}
	if upd.Priority != nil {
		if !upd.Priority.ValidFor(category.CategoryType) {
			return nil, apperrors.ErrInvalidPriority
		}
		updates["priority"] = *upd.Priority
	}
	if upd.IsActive != nil {
		updates["is_active"] = *upd.IsActive
	}
	if len(updates) == 0 {
		return category, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if upd.Name != nil {
			if err := checkCategoryName(tx, category, category.ID); err != nil {
				return err
			}
		}
		if err := tx.Model(&models.TransferCategory{}).Where("id = ?", category.ID).Updates(updates).Error; err != nil {
			return dbError(err, duplicateCategoryError(category))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetCategoryByID(actor, budgetID, categoryID)
}

// DeleteCategory deletes a category that no transfer uses. Its predictions
// are deleted with it.
func (s *categoryService) DeleteCategory(actor Actor, budgetID, categoryID string) error {
	category, err := s.GetCategoryByID(actor, budgetID, categoryID)
	if err != nil {
		return err
	}
	if !canModifyPersonal(actor, category.OwnerID) {
		return apperrors.ErrForbidden
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Transfer{}).Where("category_id = ?", category.ID).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.ErrCategoryInUse
		}

		if err := tx.Where("category_id = ?", category.ID).Delete(&models.ExpensePrediction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// checkCategoryName rejects a name already used in the category's
// (budget, type, owner) namespace.
func checkCategoryName(tx *gorm.DB, category *models.TransferCategory, excludeID string) error {
	q := tx.Model(&models.TransferCategory{}).
		Where("budget_id = ? AND category_type = ? AND LOWER(name) = ?", category.BudgetID, category.CategoryType, strings.ToLower(category.Name))
	if category.OwnerID != nil {
		q = q.Where("owner_id = ?", *category.OwnerID)
	} else {
		q = q.Where("owner_id IS NULL")
	}
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return duplicateCategoryError(category)
	}
	return nil
}

func duplicateCategoryError(category *models.TransferCategory) *apperrors.AppError {
	kind := "Common"
	if category.IsPersonal() {
		kind = "Personal"
	}
	return apperrors.WithMessage(apperrors.ErrDuplicateCategory,
		fmt.Sprintf("%s %s category with given name already exists in Budget.", kind, category.CategoryType.Label()))
}
