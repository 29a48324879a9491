package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "budgetory/internal/errors"
	"budgetory/internal/models"
	"budgetory/internal/pagination"
	"budgetory/internal/services"
)

// PeriodHandler handles budget periods.
type PeriodHandler struct {
	periodService services.PeriodServicer
	auditService  services.AuditServicer
}

// NewPeriodHandler creates a new PeriodHandler.
func NewPeriodHandler(periodService services.PeriodServicer, auditService services.AuditServicer) *PeriodHandler {
	return &PeriodHandler{periodService: periodService, auditService: auditService}
}

// CreatePeriodRequest represents the request payload for creating a period.
// Dates accept YYYY-MM-DD or RFC3339.
type CreatePeriodRequest struct {
	Name             string              `json:"name" binding:"required,min=1,max=128"`
	DateStart        string              `json:"date_start" binding:"required"`
	DateEnd          string              `json:"date_end" binding:"required"`
	Status           models.PeriodStatus `json:"status" binding:"omitempty,period_status"`
	PreviousPeriodID *string             `json:"previous_period_id" binding:"omitempty,uuid"`
}

// UpdatePeriodRequest represents the request payload for updating a period.
type UpdatePeriodRequest struct {
	Name      *string              `json:"name" binding:"omitempty,min=1,max=128"`
	DateStart *string              `json:"date_start"`
	DateEnd   *string              `json:"date_end"`
	Status    *models.PeriodStatus `json:"status" binding:"omitempty,period_status"`
}

func parseOptionalDate(v *string, field string) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	t, err := parseFlexibleTime(*v)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, field+": "+err.Error())
	}
	return &t, nil
}

// CreatePeriod handles the creation of a period.
// @Summary     Create a period
// @Description Create a period. Without previous_period_id the latest earlier period is linked.
// @Tags        periods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string              true "Budget ID"
// @Param       request   body CreatePeriodRequest true "Period details"
// @Success     201 {object} models.Period "Period created"
// @Failure     400 {object} ErrorResponse "Invalid dates, overlap or duplicate name"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{budget_id}/periods [post]
func (h *PeriodHandler) CreatePeriod(c *gin.Context) {
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

	var req CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	start, err := parseOptionalDate(&req.DateStart, "date_start")
	if err != nil {
		respondWithError(c, err)
		return
	}
	end, err := parseOptionalDate(&req.DateEnd, "date_end")
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := h.periodService.CreatePeriod(actor, budgetID, services.PeriodInput{
		Name:             req.Name,
		DateStart:        *start,
		DateEnd:          *end,
		Status:           req.Status,
		PreviousPeriodID: req.PreviousPeriodID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "CREATE_PERIOD",
		ResourceType: "period",
		ResourceID:   period.ID,
		IPAddress:    c.ClientIP(),
		Changes:      map[string]interface{}{"name": req.Name, "status": period.Status},
	})

	c.JSON(http.StatusCreated, gin.H{"period": period})
}

// GetPeriods handles listing the periods of a budget.
// @Summary     List periods
// @Tags        periods
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path  string true  "Budget ID"
// @Param       name      query string false "Filter by name (case-insensitive substring)"
// @Param       status    query int    false "Filter by status (1 draft, 2 active, 3 closed)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Param       ordering  query string false "Order by name, date_start, date_end or status"
// @Success     200 {object} pagination.PageResponse[models.Period] "Paginated periods"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{budget_id}/periods [get]
func (h *PeriodHandler) GetPeriods(c *gin.Context) {
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

	filter := services.PeriodFilter{Name: c.Query("name")}
	if filter.Status, err = queryChoice(c, "status", models.PeriodStatus.Valid); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.periodService.GetBudgetPeriods(actor, budgetID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPeriod handles retrieving a period.
// @Summary     Get period by ID
// @Tags        periods
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       id        path string true "Period ID"
// @Success     200 {object} models.Period "Period"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Router      /budgets/{budget_id}/periods/{id} [get]
func (h *PeriodHandler) GetPeriod(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, periodID, err := budgetPath(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := h.periodService.GetPeriodByID(actor, budgetID, periodID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"period": period})
}

// UpdatePeriod handles updating a period. Activating a period freezes the
// initial plan of its predictions.
// @Summary     Update a period
// @Tags        periods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string              true "Budget ID"
// @Param       id        path string              true "Period ID"
// @Param       request   body UpdatePeriodRequest true "Fields to update"
// @Success     200 {object} models.Period "Period updated"
// @Failure     400 {object} ErrorResponse "Invalid dates, status change or closed period"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Router      /budgets/{budget_id}/periods/{id} [put]
func (h *PeriodHandler) UpdatePeriod(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, periodID, err := budgetPath(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	upd := services.PeriodUpdate{Name: req.Name, Status: req.Status}
	if upd.DateStart, err = parseOptionalDate(req.DateStart, "date_start"); err != nil {
		respondWithError(c, err)
		return
	}
	if upd.DateEnd, err = parseOptionalDate(req.DateEnd, "date_end"); err != nil {
		respondWithError(c, err)
		return
	}

	period, err := h.periodService.UpdatePeriod(actor, budgetID, periodID, upd)
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]interface{}{}
	if req.Status != nil {
		changes["status"] = *req.Status
	}
	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "UPDATE_PERIOD",
		ResourceType: "period",
		ResourceID:   periodID,
		IPAddress:    c.ClientIP(),
		Changes:      changes,
	})

	c.JSON(http.StatusOK, gin.H{"period": period})
}

// DeletePeriod handles deleting a period without transfers.
// @Summary     Delete a period
// @Tags        periods
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       id        path string true "Period ID"
// @Success     204 "Period deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Failure     409 {object} ErrorResponse "Period has transfers"
// @Router      /budgets/{budget_id}/periods/{id} [delete]
func (h *PeriodHandler) DeletePeriod(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, periodID, err := budgetPath(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.periodService.DeletePeriod(actor, budgetID, periodID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "DELETE_PERIOD",
		ResourceType: "period",
		ResourceID:   periodID,
		IPAddress:    c.ClientIP(),
	})

	c.Status(http.StatusNoContent)
}
