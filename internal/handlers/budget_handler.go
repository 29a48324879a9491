package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budgetory/internal/pagination"
	"budgetory/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// CreateBudgetRequest represents the request payload for creating a budget.
type CreateBudgetRequest struct {
	Name        string   `json:"name" binding:"required,min=1,max=128"`
	Description string   `json:"description" binding:"max=255"`
	Currency    string   `json:"currency" binding:"required,iso4217"`
	Members     []string `json:"members" binding:"omitempty,dive,uuid"`
}

// UpdateBudgetRequest represents the request payload for updating a budget.
// Omitting members leaves them unchanged.
type UpdateBudgetRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=1,max=128"`
	Description *string  `json:"description" binding:"omitempty,max=255"`
	Currency    *string  `json:"currency" binding:"omitempty,iso4217"`
	Members     []string `json:"members" binding:"omitempty,dive,uuid"`
}

// CreateBudget handles the creation of a new budget.
// @Summary     Create a budget
// @Description Create a new budget owned by the authenticated user
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBudgetRequest true "Budget details"
// @Success     201 {object} models.Budget "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	budget, err := h.budgetService.CreateBudget(actor, services.BudgetInput{
		Name:        req.Name,
		Description: req.Description,
		Currency:    req.Currency,
		MemberIDs:   req.Members,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budget.ID,
		Action:       "CREATE_BUDGET",
		ResourceType: "budget",
		ResourceID:   budget.ID,
		IPAddress:    c.ClientIP(),
		Changes:      map[string]interface{}{"name": req.Name, "currency": req.Currency},
	})

	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

// GetBudgets handles listing budgets the authenticated user can access.
// @Summary     Get budgets
// @Description Get a paginated list of budgets owned by or shared with the authenticated user
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Param       ordering  query string false "Order by name or created_at, prefix with - for descending"
// @Success     200 {object} pagination.PageResponse[models.Budget] "Paginated budgets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.budgetService.GetUserBudgets(actor, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBudget handles retrieving a specific budget.
// @Summary     Get budget by ID
// @Description Get a budget the authenticated user owns or belongs to
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Success     200 {object} models.Budget "Budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
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

	budget, err := h.budgetService.GetBudgetByID(actor, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateBudget handles updating a budget.
// @Summary     Update a budget
// @Description Update budget details. Only the owner may change the members.
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string              true "Budget ID"
// @Param       request   body UpdateBudgetRequest true "Fields to update"
// @Success     200 {object} models.Budget "Budget updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
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

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	budget, err := h.budgetService.UpdateBudget(actor, budgetID, services.BudgetUpdate{
		Name:        req.Name,
		Description: req.Description,
		Currency:    req.Currency,
		MemberIDs:   req.Members,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "UPDATE_BUDGET",
		ResourceType: "budget",
		ResourceID:   budgetID,
		IPAddress:    c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteBudget handles deleting a budget.
// @Summary     Delete a budget
// @Description Delete a budget and everything scoped to it. Owner only.
// @Tags        budgets
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Success     204 "Budget deleted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
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

	if err := h.budgetService.DeleteBudget(actor, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "DELETE_BUDGET",
		ResourceType: "budget",
		ResourceID:   budgetID,
		IPAddress:    c.ClientIP(),
	})

	c.Status(http.StatusNoContent)
}
