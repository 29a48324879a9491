package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budgetory/internal/models"
	"budgetory/internal/services"
)

// ChartHandler serves the chart series of a budget. All endpoints are read-only.
type ChartHandler struct {
	chartService services.ChartServicer
}

// NewChartHandler creates a new ChartHandler.
func NewChartHandler(chartService services.ChartServicer) *ChartHandler {
	return &ChartHandler{chartService: chartService}
}

// chartRequest collects the actor, budget id and parsed query of a chart request.
func chartRequest[Q any](c *gin.Context, parse func(*gin.Context) (Q, error)) (services.Actor, string, Q, error) {
	var q Q
	actor, err := getActor(c)
	if err != nil {
		return actor, "", q, err
	}
	budgetID, err := parsePathID(c, "budget_id")
	if err != nil {
		return actor, "", q, err
	}
	q, err = parse(c)
	return actor, budgetID, q, err
}

func parseTransfersChartQuery(c *gin.Context) (services.TransfersChartQuery, error) {
	var (
		q   services.TransfersChartQuery
		err error
	)
	if q.DepositID, err = queryUUID(c, "deposit"); err != nil {
		return q, err
	}
	if q.EntityID, err = queryUUID(c, "entity"); err != nil {
		return q, err
	}
	if q.TransferType, err = queryChoice(c, "transfer_type", models.TransferType.Valid); err != nil {
		return q, err
	}
	q.PeriodsCount, err = queryPositiveInt(c, "periods_count")
	return q, err
}

// GetTransfersInPeriods returns income and expense sums of the latest periods.
// @Summary     Transfers in periods chart
// @Tags        charts
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id     path  string true  "Budget ID"
// @Param       deposit       query string false "Only transfers of this deposit"
// @Param       entity        query string false "Only transfers of this entity"
// @Param       transfer_type query int    false "1 incomes only, 2 expenses only"
// @Param       periods_count query int    false "Number of latest periods"
// @Success     200 {object} models.TransfersChart "Chart series"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Deposit or entity not found"
// @Router      /budgets/{budget_id}/charts/transfers-in-periods [get]
func (h *ChartHandler) GetTransfersInPeriods(c *gin.Context) {
	actor, budgetID, q, err := chartRequest(c, parseTransfersChartQuery)
	if err != nil {
		respondWithError(c, err)
		return
	}

	chart, err := h.chartService.TransfersInPeriods(actor, budgetID, q)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, chart)
}

func parseTopEntitiesQuery(c *gin.Context) (services.TopEntitiesQuery, error) {
	var (
		q   services.TopEntitiesQuery
		err error
	)
	if q.PeriodID, err = queryUUID(c, "period"); err != nil {
		return q, err
	}
	if q.TransferType, err = queryChoice(c, "transfer_type", models.TransferType.Valid); err != nil {
		return q, err
	}
	if q.DepositID, err = queryUUID(c, "deposit"); err != nil {
		return q, err
	}
	count, err := queryPositiveInt(c, "entities_count")
	if count != nil {
		q.EntitiesCount = *count
	}
	return q, err
}

// GetTopEntitiesInPeriod ranks entities by their transfer sums in a period.
// @Summary     Top entities in period chart
// @Tags        charts
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id      path  string true  "Budget ID"
// @Param       period         query string false "Period ID, the chart is empty without it"
// @Param       transfer_type  query int    false "Transfer type, the chart is empty without it"
// @Param       deposit        query string false "Only transfers of this deposit"
// @Param       entities_count query int    false "Number of entities (default 5)"
// @Success     200 {object} models.EntitiesChart "Chart series"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Period or deposit not found"
// @Router      /budgets/{budget_id}/charts/top-entities-in-period [get]
func (h *ChartHandler) GetTopEntitiesInPeriod(c *gin.Context) {
	actor, budgetID, q, err := chartRequest(c, parseTopEntitiesQuery)
	if err != nil {
		respondWithError(c, err)
		return
	}

	chart, err := h.chartService.TopEntitiesInPeriod(actor, budgetID, q)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, chart)
}

func parseCategoryChartQuery(c *gin.Context) (services.CategoryChartQuery, error) {
	var (
		q   services.CategoryChartQuery
		err error
	)
	if q.CategoryID, err = queryUUID(c, "category"); err != nil {
		return q, err
	}
	if q.DisplayValue, err = queryChoice(c, "display_value", models.CategoryChartValue.Valid); err != nil {
		return q, err
	}
	q.PeriodsCount, err = queryPositiveInt(c, "periods_count")
	return q, err
}

// GetCategoryInPeriods returns the expenses and plans of a category over the latest periods.
// @Summary     Category results and predictions chart
// @Tags        charts
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id     path  string true  "Budget ID"
// @Param       category      query string false "Category ID, the chart is empty without it"
// @Param       display_value query int    false "1 results only, 2 predictions only"
// @Param       periods_count query int    false "Number of latest periods"
// @Success     200 {object} models.CategoryChart "Chart series"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /budgets/{budget_id}/charts/category-results-in-periods [get]
func (h *ChartHandler) GetCategoryInPeriods(c *gin.Context) {
	actor, budgetID, q, err := chartRequest(c, parseCategoryChartQuery)
	if err != nil {
		respondWithError(c, err)
		return
	}

	chart, err := h.chartService.CategoryInPeriods(actor, budgetID, q)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, chart)
}

func parseDepositsChartQuery(c *gin.Context) (services.DepositsChartQuery, error) {
	var (
		q   services.DepositsChartQuery
		err error
	)
	if q.PeriodFromID, err = queryUUID(c, "period_from"); err != nil {
		return q, err
	}
	if q.PeriodToID, err = queryUUID(c, "period_to"); err != nil {
		return q, err
	}
	if q.DepositID, err = queryUUID(c, "deposit"); err != nil {
		return q, err
	}
	if q.DepositType, err = queryChoice(c, "deposit_type", models.DepositType.Valid); err != nil {
		return q, err
	}
	q.DisplayValue, err = queryChoice(c, "display_value", models.TransferType.Valid)
	return q, err
}

// GetDepositsInPeriods returns one series per deposit over a range of periods.
// @Summary     Deposits in periods chart
// @Tags        charts
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id     path  string true  "Budget ID"
// @Param       period_from   query string false "First period of the range"
// @Param       period_to     query string false "Last period of the range"
// @Param       deposit       query string false "Only this deposit"
// @Param       deposit_type  query int    false "Only deposits of this type"
// @Param       display_value query int    false "Transfer type to sum, balances when omitted"
// @Success     200 {object} models.DepositsChart "Chart series"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Period or deposit not found"
// @Router      /budgets/{budget_id}/charts/deposits-in-periods [get]
func (h *ChartHandler) GetDepositsInPeriods(c *gin.Context) {
	actor, budgetID, q, err := chartRequest(c, parseDepositsChartQuery)
	if err != nil {
		respondWithError(c, err)
		return
	}

	chart, err := h.chartService.DepositsInPeriods(actor, budgetID, q)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, chart)
}
