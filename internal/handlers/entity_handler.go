package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budgetory/internal/models"
	"budgetory/internal/pagination"
	"budgetory/internal/services"
)

// EntityHandler handles entities and deposits. Deposits are entities that
// hold money; they are served under their own routes.
type EntityHandler struct {
	entityService services.EntityServicer
	auditService  services.AuditServicer
}

// NewEntityHandler creates a new EntityHandler.
func NewEntityHandler(entityService services.EntityServicer, auditService services.AuditServicer) *EntityHandler {
	return &EntityHandler{entityService: entityService, auditService: auditService}
}

// CreateEntityRequest represents the request payload for creating an entity.
type CreateEntityRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=128"`
	Description string `json:"description" binding:"max=255"`
	IsActive    *bool  `json:"is_active"`
	IsDeposit   bool   `json:"is_deposit"`
}

// CreateDepositRequest represents the request payload for creating a deposit.
type CreateDepositRequest struct {
	Name        string              `json:"name" binding:"required,min=1,max=128"`
	Description string              `json:"description" binding:"max=255"`
	IsActive    *bool               `json:"is_active"`
	DepositType *models.DepositType `json:"deposit_type" binding:"omitempty,deposit_type"`
	Owner       *string             `json:"owner" binding:"omitempty,uuid"`
}

// UpdateEntityRequest represents the request payload for updating an entity
// or deposit. deposit_type only applies to deposits.
type UpdateEntityRequest struct {
	Name        *string             `json:"name" binding:"omitempty,min=1,max=128"`
	Description *string             `json:"description" binding:"omitempty,max=255"`
	IsActive    *bool               `json:"is_active"`
	DepositType *models.DepositType `json:"deposit_type" binding:"omitempty,deposit_type"`
}

func (r UpdateEntityRequest) update() services.EntityUpdate {
	return services.EntityUpdate{
		Name:        r.Name,
		Description: r.Description,
		IsActive:    r.IsActive,
		DepositType: r.DepositType,
	}
}

func parseEntityFilter(c *gin.Context) (services.EntityFilter, error) {
	filter := services.EntityFilter{Name: c.Query("name")}

	var err error
	if filter.IsActive, err = queryBool(c, "is_active"); err != nil {
		return filter, err
	}
	if filter.IsDeposit, err = queryBool(c, "is_deposit"); err != nil {
		return filter, err
	}
	if filter.DepositType, err = queryChoice(c, "deposit_type", models.DepositType.Valid); err != nil {
		return filter, err
	}
	if filter.OwnerID, err = queryUUID(c, "owner"); err != nil {
		return filter, err
	}
	return filter, nil
}

// CreateEntity handles the creation of an entity. Setting is_deposit creates
// a deposit.
// @Summary     Create an entity
// @Tags        entities
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string              true "Budget ID"
// @Param       request   body CreateEntityRequest true "Entity details"
// @Success     201 {object} models.Entity "Entity created"
// @Failure     400 {object} ErrorResponse "Invalid input or duplicate name"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{budget_id}/entities [post]
func (h *EntityHandler) CreateEntity(c *gin.Context) {
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

	var req CreateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	entity, err := h.entityService.CreateEntity(actor, budgetID, services.EntityInput{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
		IsDeposit:   req.IsDeposit,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "CREATE_ENTITY",
		ResourceType: "entity",
		ResourceID:   entity.ID,
		IPAddress:    c.ClientIP(),
		Changes:      map[string]interface{}{"name": entity.Name, "is_deposit": entity.IsDeposit},
	})

	c.JSON(http.StatusCreated, gin.H{"entity": entity})
}

// GetEntities handles listing entities and deposits of a budget.
// @Summary     List entities
// @Tags        entities
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id    path  string true  "Budget ID"
// @Param       name         query string false "Filter by name (case-insensitive substring)"
// @Param       is_active    query bool   false "Filter by active status"
// @Param       is_deposit   query bool   false "Filter deposits or plain entities"
// @Param       deposit_type query int    false "Filter by deposit type"
// @Param       page         query int    false "Page number (default 1)"
// @Param       page_size    query int    false "Items per page (default 20, max 100)"
// @Param       ordering     query string false "Order by id or name, prefix with - for descending"
// @Success     200 {object} pagination.PageResponse[models.Entity] "Paginated entities"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{budget_id}/entities [get]
func (h *EntityHandler) GetEntities(c *gin.Context) {
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

	filter, err := parseEntityFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.entityService.GetBudgetEntities(actor, budgetID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetEntity handles retrieving an entity or deposit.
// @Summary     Get entity by ID
// @Tags        entities
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       id        path string true "Entity ID"
// @Success     200 {object} models.Entity "Entity"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Entity not found"
// @Router      /budgets/{budget_id}/entities/{id} [get]
func (h *EntityHandler) GetEntity(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, entityID, err := budgetPath(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	entity, err := h.entityService.GetEntityByID(actor, budgetID, entityID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entity": entity})
}

// UpdateEntity handles updating an entity.
// @Summary     Update an entity
// @Tags        entities
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string              true "Budget ID"
// @Param       id        path string              true "Entity ID"
// @Param       request   body UpdateEntityRequest true "Fields to update"
// @Success     200 {object} models.Entity "Entity updated"
// @Failure     400 {object} ErrorResponse "Invalid input or duplicate name"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Entity not found"
// @Router      /budgets/{budget_id}/entities/{id} [put]
func (h *EntityHandler) UpdateEntity(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, entityID, err := budgetPath(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	entity, err := h.entityService.UpdateEntity(actor, budgetID, entityID, req.update())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "UPDATE_ENTITY",
		ResourceType: "entity",
		ResourceID:   entityID,
		IPAddress:    c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{"entity": entity})
}

// DeleteEntity handles deleting an entity without transfers.
// @Summary     Delete an entity
// @Tags        entities
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       id        path string true "Entity ID"
// @Success     204 "Entity deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Entity not found"
// @Failure     409 {object} ErrorResponse "Entity is in use"
// @Router      /budgets/{budget_id}/entities/{id} [delete]
func (h *EntityHandler) DeleteEntity(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, entityID, err := budgetPath(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.entityService.DeleteEntity(actor, budgetID, entityID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "DELETE_ENTITY",
		ResourceType: "entity",
		ResourceID:   entityID,
		IPAddress:    c.ClientIP(),
	})

	c.Status(http.StatusNoContent)
}

// CreateDeposit handles the creation of a deposit.
// @Summary     Create a deposit
// @Tags        deposits
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string               true "Budget ID"
// @Param       request   body CreateDepositRequest true "Deposit details"
// @Success     201 {object} models.Entity "Deposit created"
// @Failure     400 {object} ErrorResponse "Invalid input or duplicate name"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{budget_id}/deposits [post]
func (h *EntityHandler) CreateDeposit(c *gin.Context) {
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

	var req CreateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	deposit, err := h.entityService.CreateDeposit(actor, budgetID, services.EntityInput{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
		DepositType: req.DepositType,
		OwnerID:     req.Owner,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "CREATE_DEPOSIT",
		ResourceType: "deposit",
		ResourceID:   deposit.ID,
		IPAddress:    c.ClientIP(),
		Changes:      map[string]interface{}{"name": deposit.Name},
	})

	c.JSON(http.StatusCreated, gin.H{"deposit": deposit})
}

// GetDeposits handles listing deposits with their balances.
// @Summary     List deposits
// @Tags        deposits
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id    path  string true  "Budget ID"
// @Param       name         query string false "Filter by name (case-insensitive substring)"
// @Param       is_active    query bool   false "Filter by active status"
// @Param       deposit_type query int    false "Filter by deposit type"
// @Param       owner        query string false "Filter by owner ID"
// @Param       page         query int    false "Page number (default 1)"
// @Param       page_size    query int    false "Items per page (default 20, max 100)"
// @Param       ordering     query string false "Order by id or name, prefix with - for descending"
// @Success     200 {object} pagination.PageResponse[services.DepositWithBalance] "Paginated deposits"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{budget_id}/deposits [get]
func (h *EntityHandler) GetDeposits(c *gin.Context) {
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

	filter, err := parseEntityFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.entityService.GetBudgetDeposits(actor, budgetID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetDeposit handles retrieving a deposit with its balance.
// @Summary     Get deposit by ID
// @Tags        deposits
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       id        path string true "Deposit ID"
// @Success     200 {object} services.DepositWithBalance "Deposit"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Deposit not found"
// @Router      /budgets/{budget_id}/deposits/{id} [get]
func (h *EntityHandler) GetDeposit(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, depositID, err := budgetPath(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	deposit, err := h.entityService.GetDepositByID(actor, budgetID, depositID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deposit": deposit})
}

// UpdateDeposit handles updating a deposit. Personal deposits may only be
// changed by their owner or staff.
// @Summary     Update a deposit
// @Tags        deposits
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string              true "Budget ID"
// @Param       id        path string              true "Deposit ID"
// @Param       request   body UpdateEntityRequest true "Fields to update"
// @Success     200 {object} models.Entity "Deposit updated"
// @Failure     400 {object} ErrorResponse "Invalid input or duplicate name"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Deposit not found"
// @Router      /budgets/{budget_id}/deposits/{id} [put]
func (h *EntityHandler) UpdateDeposit(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, depositID, err := budgetPath(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	deposit, err := h.entityService.UpdateDeposit(actor, budgetID, depositID, req.update())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "UPDATE_DEPOSIT",
		ResourceType: "deposit",
		ResourceID:   depositID,
		IPAddress:    c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{"deposit": deposit})
}

// DeleteDeposit handles deleting a deposit without transfers.
// @Summary     Delete a deposit
// @Tags        deposits
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       id        path string true "Deposit ID"
// @Success     204 "Deposit deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Deposit not found"
// @Failure     409 {object} ErrorResponse "Deposit is in use"
// @Router      /budgets/{budget_id}/deposits/{id} [delete]
func (h *EntityHandler) DeleteDeposit(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, depositID, err := budgetPath(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.entityService.DeleteDeposit(actor, budgetID, depositID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "DELETE_DEPOSIT",
		ResourceType: "deposit",
		ResourceID:   depositID,
		IPAddress:    c.ClientIP(),
	})

	c.Status(http.StatusNoContent)
}
