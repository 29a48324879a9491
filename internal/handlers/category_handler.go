package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "budgetory/internal/errors"
	"budgetory/internal/models"
	"budgetory/internal/pagination"
	"budgetory/internal/services"
)

// CategoryHandler handles transfer categories. A handler bound to a category
// type serves the income or expense registry and forces that type.
type CategoryHandler struct {
	categoryService services.CategoryServicer
	auditService    services.AuditServicer
	categoryType    *models.CategoryType
}

// NewCategoryHandler creates a new CategoryHandler serving both types.
func NewCategoryHandler(categoryService services.CategoryServicer, auditService services.AuditServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, auditService: auditService}
}

// ForType returns a copy of the handler bound to one category type.
func (h *CategoryHandler) ForType(t models.CategoryType) *CategoryHandler {
	bound := *h
	bound.categoryType = &t
	return &bound
}

// CreateCategoryRequest represents the request payload for creating a category.
// category_type is ignored on the income and expense registries.
type CreateCategoryRequest struct {
	Name         string                  `json:"name" binding:"required,min=1,max=128"`
	Description  string                  `json:"description" binding:"max=255"`
	CategoryType models.CategoryType     `json:"category_type" binding:"omitempty,category_type"`
	Priority     models.CategoryPriority `json:"priority" binding:"required,category_priority"`
	Owner        *string                 `json:"owner" binding:"omitempty,uuid"`
	IsActive     *bool                   `json:"is_active"`
}

// UpdateCategoryRequest represents the request payload for updating a category.
type UpdateCategoryRequest struct {
	Name        *string                  `json:"name" binding:"omitempty,min=1,max=128"`
	Description *string                  `json:"description" binding:"omitempty,max=255"`
	Priority    *models.CategoryPriority `json:"priority" binding:"omitempty,category_priority"`
	IsActive    *bool                    `json:"is_active"`
}

// category loads a category and hides it when it belongs to the other registry.
func (h *CategoryHandler) category(actor services.Actor, budgetID, categoryID string) (*models.TransferCategory, error) {
	category, err := h.categoryService.GetCategoryByID(actor, budgetID, categoryID)
	if err != nil {
		return nil, err
	}
	if h.categoryType != nil && category.CategoryType != *h.categoryType {
		return nil, apperrors.ErrCategoryNotFound
	}
	return category, nil
}

// CreateCategory handles the creation of a category.
// @Summary     Create a category
// @Description Create a common category, or a personal one when owner is set
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string                true "Budget ID"
// @Param       request   body CreateCategoryRequest true "Category details"
// @Success     201 {object} models.TransferCategory "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input, priority or duplicate name"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{budget_id}/categories [post]
// @Router      /budgets/{budget_id}/income-categories [post]
// @Router      /budgets/{budget_id}/expense-categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "budget_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	if h.categoryType != nil {
		req.CategoryType = *h.categoryType
	}
	if req.CategoryType == 0 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "category_type is required"))
		return
	}

	category, err := h.categoryService.CreateCategory(actor, budgetID, services.CategoryInput{
		Name:         req.Name,
		Description:  req.Description,
		CategoryType: req.CategoryType,
		Priority:     req.Priority,
		OwnerID:      req.Owner,
		IsActive:     req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "CREATE_CATEGORY",
		ResourceType: "category",
		ResourceID:   category.ID,
		IPAddress:    c.ClientIP(),
		Changes:      map[string]interface{}{"name": category.Name, "category_type": category.CategoryType},
	})

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// GetCategories handles listing the categories of a budget.
// @Summary     List categories
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id     path  string true  "Budget ID"
// @Param       name          query string false "Filter by name (case-insensitive substring)"
// @Param       description   query string false "Filter by description (substring)"
// @Param       is_active     query bool   false "Filter by active status"
// @Param       category_type query int    false "Filter by type (1 expense, 2 income)"
// @Param       priority      query int    false "Filter by priority"
// @Param       owner         query string false "Filter by personal owner ID"
// @Param       common_only   query bool   false "Only categories without an owner"
// @Param       page          query int    false "Page number (default 1)"
// @Param       page_size     query int    false "Items per page (default 20, max 100)"
// @Param       ordering      query string false "Order by id, name or priority, prefix with - for descending"
// @Success     200 {object} pagination.PageResponse[models.TransferCategory] "Paginated categories"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{budget_id}/categories [get]
// @Router      /budgets/{budget_id}/income-categories [get]
// @Router      /budgets/{budget_id}/expense-categories [get]
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "budget_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	filter, err := parseCategoryFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if h.categoryType != nil {
		filter.CategoryType = h.categoryType
	}

	result, err := h.categoryService.GetBudgetCategories(actor, budgetID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseCategoryFilter(c *gin.Context) (services.CategoryFilter, error) {
	filter := services.CategoryFilter{
		Name:        c.Query("name"),
		Description: c.Query("description"),
	}

	var err error
	if filter.IsActive, err = queryBool(c, "is_active"); err != nil {
		return filter, err
	}
	if filter.CategoryType, err = queryChoice(c, "category_type", models.CategoryType.Valid); err != nil {
		return filter, err
	}
	if filter.Priority, err = queryChoice(c, "priority", models.CategoryPriority.Valid); err != nil {
		return filter, err
	}
	if filter.OwnerID, err = queryUUID(c, "owner"); err != nil {
		return filter, err
	}
	commonOnly, err := queryBool(c, "common_only")
	if err != nil {
		return filter, err
	}
	filter.CommonOnly = commonOnly != nil && *commonOnly
	return filter, nil
}

// GetCategory handles retrieving a category.
// @Summary     Get category by ID
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       id        path string true "Category ID"
// @Success     200 {object} models.TransferCategory "Category"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /budgets/{budget_id}/categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, categoryID, err := budgetPath(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.category(actor, budgetID, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// UpdateCategory handles updating a category. Personal categories may only
// be changed by their owner or staff.
// @Summary     Update a category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string                true "Budget ID"
// @Param       id        path string                true "Category ID"
// @Param       request   body UpdateCategoryRequest true "Fields to update"
// @Success     200 {object} models.TransferCategory "Category updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /budgets/{budget_id}/categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, categoryID, err := budgetPath(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	if _, err := h.category(actor, budgetID, categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.UpdateCategory(actor, budgetID, categoryID, services.CategoryUpdate{
		Name:        req.Name,
		Description: req.Description,
		Priority:    req.Priority,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "UPDATE_CATEGORY",
		ResourceType: "category",
		ResourceID:   categoryID,
		IPAddress:    c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory handles deleting a category without transfers.
// @Summary     Delete a category
// @Tags        categories
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       id        path string true "Category ID"
// @Success     204 "Category deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Category is in use"
// @Router      /budgets/{budget_id}/categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, categoryID, err := budgetPath(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if _, err := h.category(actor, budgetID, categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.categoryService.DeleteCategory(actor, budgetID, categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "DELETE_CATEGORY",
		ResourceType: "category",
		ResourceID:   categoryID,
		IPAddress:    c.ClientIP(),
	})

	c.Status(http.StatusNoContent)
}
