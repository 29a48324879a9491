package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"budgetory/internal/models"
	"budgetory/internal/pagination"
	"budgetory/internal/services"
)

// PredictionHandler handles expense predictions and their results.
type PredictionHandler struct {
	predictionService services.PredictionServicer
	auditService      services.AuditServicer
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(predictionService services.PredictionServicer, auditService services.AuditServicer) *PredictionHandler {
	return &PredictionHandler{predictionService: predictionService, auditService: auditService}
}

// CreatePredictionRequest represents the request payload for planning an
// expense category in a draft period.
type CreatePredictionRequest struct {
	Period      string          `json:"period" binding:"required,uuid"`
	Category    string          `json:"category" binding:"required,uuid"`
	CurrentPlan decimal.Decimal `json:"current_plan" swaggertype:"string"`
	Description string          `json:"description" binding:"max=255"`
}

// UpdatePredictionRequest represents the request payload for updating a prediction.
type UpdatePredictionRequest struct {
	CurrentPlan *decimal.Decimal `json:"current_plan" swaggertype:"string"`
	Description *string          `json:"description" binding:"omitempty,max=255"`
}

// CopyPredictionsResponse reports how many predictions were copied.
type CopyPredictionsResponse struct {
	Copied int `json:"copied"`
}

// CreatePrediction handles the creation of a prediction.
// @Summary     Create a prediction
// @Description Plan an expense category in a draft period. The initial plan equals the current plan.
// @Tags        predictions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string                  true "Budget ID"
// @Param       request   body CreatePredictionRequest true "Prediction details"
// @Success     201 {object} models.PredictionResult "Prediction created"
// @Failure     400 {object} ErrorResponse "Invalid input, period not draft or duplicate"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Period or category not found"
// @Router      /budgets/{budget_id}/predictions [post]
func (h *PredictionHandler) CreatePrediction(c *gin.Context) {
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

	var req CreatePredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	prediction, err := h.predictionService.CreatePrediction(actor, budgetID, services.PredictionInput{
		PeriodID:    req.Period,
		CategoryID:  req.Category,
		CurrentPlan: req.CurrentPlan,
		Description: req.Description,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	var predictionID string
	if prediction.ID != nil {
		predictionID = *prediction.ID
	}
	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "CREATE_PREDICTION",
		ResourceType: "prediction",
		ResourceID:   predictionID,
		IPAddress:    c.ClientIP(),
		Changes:      map[string]interface{}{"period_id": req.Period, "current_plan": req.CurrentPlan.String()},
	})

	c.JSON(http.StatusCreated, gin.H{"prediction": prediction})
}

// GetPredictions lists the predictions of a budget with their computed results.
// @Summary     List predictions
// @Tags        predictions
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id         path  string true  "Budget ID"
// @Param       period            query string false "Filter by period ID"
// @Param       category          query string false "Filter by category ID"
// @Param       owner             query string false "Filter by category owner ID, -1 for common categories"
// @Param       category_priority query int    false "Filter by category priority"
// @Param       current_plan_min  query string false "Minimum current plan"
// @Param       current_plan_max  query string false "Maximum current plan"
// @Param       initial_plan_min  query string false "Minimum initial plan"
// @Param       initial_plan_max  query string false "Maximum initial plan"
// @Param       progress_status   query int    false "Filter by progress status"
// @Param       page              query int    false "Page number (default 1)"
// @Param       page_size         query int    false "Items per page (default 20, max 100)"
// @Param       ordering          query string false "Order by category priority, name or plan"
// @Success     200 {object} pagination.PageResponse[models.PredictionResult] "Paginated predictions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{budget_id}/predictions [get]
func (h *PredictionHandler) GetPredictions(c *gin.Context) {
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

	filter, err := parsePredictionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.predictionService.GetBudgetPredictions(actor, budgetID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parsePredictionFilter(c *gin.Context) (services.PredictionFilter, error) {
	var filter services.PredictionFilter
	var err error
	if filter.PeriodID, err = queryUUID(c, "period"); err != nil {
		return filter, err
	}
	if filter.CategoryID, err = queryUUID(c, "category"); err != nil {
		return filter, err
	}
	if c.Query("owner") == services.CommonOwnerFilter {
		common := services.CommonOwnerFilter
		filter.OwnerID = &common
	} else if filter.OwnerID, err = queryUUID(c, "owner"); err != nil {
		return filter, err
	}
	if filter.CategoryPriority, err = queryChoice(c, "category_priority", models.CategoryPriority.Valid); err != nil {
		return filter, err
	}
	if filter.CurrentPlanMin, err = queryDecimal(c, "current_plan_min"); err != nil {
		return filter, err
	}
	if filter.CurrentPlanMax, err = queryDecimal(c, "current_plan_max"); err != nil {
		return filter, err
	}
	if filter.InitialPlanMin, err = queryDecimal(c, "initial_plan_min"); err != nil {
		return filter, err
	}
	if filter.InitialPlanMax, err = queryDecimal(c, "initial_plan_max"); err != nil {
		return filter, err
	}
	if filter.ProgressStatus, err = queryChoice(c, "progress_status", models.PredictionProgressStatus.Valid); err != nil {
		return filter, err
	}
	return filter, nil
}

// GetPrediction handles retrieving a prediction with its computed result.
// @Summary     Get prediction by ID
// @Tags        predictions
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       id        path string true "Prediction ID"
// @Success     200 {object} models.PredictionResult "Prediction"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Prediction not found"
// @Router      /budgets/{budget_id}/predictions/{id} [get]
func (h *PredictionHandler) GetPrediction(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, predictionID, err := budgetPath(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	prediction, err := h.predictionService.GetPredictionByID(actor, budgetID, predictionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"prediction": prediction})
}

// UpdatePrediction handles updating a prediction. The current plan may change
// until the period is closed; the initial plan only while it is a draft.
// @Summary     Update a prediction
// @Tags        predictions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string                  true "Budget ID"
// @Param       id        path string                  true "Prediction ID"
// @Param       request   body UpdatePredictionRequest true "Fields to update"
// @Success     200 {object} models.PredictionResult "Prediction updated"
// @Failure     400 {object} ErrorResponse "Invalid input or closed period"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Prediction not found"
// @Router      /budgets/{budget_id}/predictions/{id} [put]
func (h *PredictionHandler) UpdatePrediction(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, predictionID, err := budgetPath(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	prediction, err := h.predictionService.UpdatePrediction(actor, budgetID, predictionID, services.PredictionUpdate{
		CurrentPlan: req.CurrentPlan,
		Description: req.Description,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]interface{}{}
	if req.CurrentPlan != nil {
		changes["current_plan"] = req.CurrentPlan.String()
	}
	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "UPDATE_PREDICTION",
		ResourceType: "prediction",
		ResourceID:   predictionID,
		IPAddress:    c.ClientIP(),
		Changes:      changes,
	})

	c.JSON(http.StatusOK, gin.H{"prediction": prediction})
}

// DeletePrediction handles deleting a prediction.
// @Summary     Delete a prediction
// @Tags        predictions
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       id        path string true "Prediction ID"
// @Success     204 "Prediction deleted"
// @Failure     400 {object} ErrorResponse "Closed period"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Prediction not found"
// @Router      /budgets/{budget_id}/predictions/{id} [delete]
func (h *PredictionHandler) DeletePrediction(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, predictionID, err := budgetPath(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.predictionService.DeletePrediction(actor, budgetID, predictionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "DELETE_PREDICTION",
		ResourceType: "prediction",
		ResourceID:   predictionID,
		IPAddress:    c.ClientIP(),
	})

	c.Status(http.StatusNoContent)
}

// CopyPredictions copies the previous period's predictions into a draft period.
// @Summary     Copy predictions from the previous period
// @Tags        predictions
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       id        path string true "Target period ID"
// @Success     201 {object} CopyPredictionsResponse "Number of copied predictions"
// @Failure     400 {object} ErrorResponse "Period not draft, no previous period or predictions already exist"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Router      /budgets/{budget_id}/periods/{id}/predictions/copy [post]
func (h *PredictionHandler) CopyPredictions(c *gin.Context) {
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

	copied, err := h.predictionService.CopyFromPreviousPeriod(actor, budgetID, periodID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "COPY_PREDICTIONS",
		ResourceType: "period",
		ResourceID:   periodID,
		IPAddress:    c.ClientIP(),
		Changes:      map[string]interface{}{"copied": copied},
	})

	c.JSON(http.StatusCreated, CopyPredictionsResponse{Copied: copied})
}

// GetCategoryResult computes plan versus actual for one expense category,
// whether or not it has a prediction.
// @Summary     Category result in a period
// @Tags        predictions
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id   path string true "Budget ID"
// @Param       id          path string true "Period ID"
// @Param       category_id path string true "Expense category ID"
// @Success     200 {object} models.PredictionResult "Computed result"
// @Failure     400 {object} ErrorResponse "Not an expense category"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Period or category not found"
// @Router      /budgets/{budget_id}/periods/{id}/categories/{category_id}/result [get]
func (h *PredictionHandler) GetCategoryResult(c *gin.Context) {
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
	categoryID, err := parsePathID(c, "category_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.predictionService.CategoryResult(actor, budgetID, periodID, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetUncategorizedResults lists one result row per deposit with expenses
// lacking a category.
// @Summary     Uncategorized expenses in a period
// @Tags        predictions
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path  string true  "Budget ID"
// @Param       id        path  string true  "Period ID"
// @Param       deposit   query string false "Only this deposit"
// @Success     200 {array}  models.PredictionResult "Result rows"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Router      /budgets/{budget_id}/periods/{id}/uncategorized [get]
func (h *PredictionHandler) GetUncategorizedResults(c *gin.Context) {
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
	depositID, err := queryUUID(c, "deposit")
	if err != nil {
		respondWithError(c, err)
		return
	}

	results, err := h.predictionService.UncategorizedResults(actor, budgetID, periodID, depositID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// GetDepositResults reports the funds of every daily expenses deposit in a period.
// @Summary     Deposit funds in a period
// @Tags        predictions
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       id        path string true "Period ID"
// @Success     200 {array}  models.DepositPeriodResult "Deposit rows"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Router      /budgets/{budget_id}/periods/{id}/deposit-results [get]
func (h *PredictionHandler) GetDepositResults(c *gin.Context) {
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

	results, err := h.predictionService.DepositResults(actor, budgetID, periodID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// GetUserResults reports the funds of every budget member in a period,
// preceded by the row of ownerless deposits and categories.
// @Summary     Member funds in a period
// @Tags        predictions
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       id        path string true "Period ID"
// @Success     200 {array}  models.UserPeriodResult "Member rows"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Router      /budgets/{budget_id}/periods/{id}/user-results [get]
func (h *PredictionHandler) GetUserResults(c *gin.Context) {
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

	results, err := h.predictionService.UserResults(actor, budgetID, periodID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}
