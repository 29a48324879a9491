package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "budgetory/internal/errors"
	"budgetory/internal/models"
	"budgetory/internal/pagination"
	"budgetory/internal/services"
)

// TransferHandler handles the transfer ledger. Incomes, expenses and
// relocations share one implementation; ForType binds it to a route group.
type TransferHandler struct {
	transferService services.TransferServicer
	auditService    services.AuditServicer
	transferType    models.TransferType
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferService services.TransferServicer, auditService services.AuditServicer) *TransferHandler {
	return &TransferHandler{transferService: transferService, auditService: auditService}
}

// ForType returns a copy of the handler bound to one transfer type.
func (h *TransferHandler) ForType(t models.TransferType) *TransferHandler {
	bound := *h
	bound.transferType = t
	return &bound
}

func (h *TransferHandler) resource() string {
	return strings.ToLower(h.transferType.Label())
}

// CreateTransferRequest represents the request payload for recording a
// transfer. Without period the budget period containing date is used.
type CreateTransferRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=128"`
	Description string          `json:"description" binding:"max=255"`
	Value       decimal.Decimal `json:"value" swaggertype:"string"`
	Date        string          `json:"date" binding:"required"`
	Period      *string         `json:"period" binding:"omitempty,uuid"`
	Category    *string         `json:"category" binding:"omitempty,uuid"`
	Entity      string          `json:"entity" binding:"required,uuid"`
	Deposit     *string         `json:"deposit" binding:"omitempty,uuid"`
}

// UpdateTransferRequest represents the request payload for updating a
// transfer. An empty category or deposit clears the reference.
type UpdateTransferRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=128"`
	Description *string          `json:"description" binding:"omitempty,max=255"`
	Value       *decimal.Decimal `json:"value" swaggertype:"string"`
	Date        *string          `json:"date"`
	Period      *string          `json:"period" binding:"omitempty,uuid"`
	Category    *string          `json:"category" binding:"omitempty,uuid"`
	Entity      *string          `json:"entity" binding:"omitempty,uuid"`
	Deposit     *string          `json:"deposit" binding:"omitempty,uuid"`
}

// BulkUpdateTransfersRequest reassigns the category and/or entity of many transfers.
type BulkUpdateTransfersRequest struct {
	IDs      []string `json:"ids" binding:"required,min=1,dive,uuid"`
	Category *string  `json:"category" binding:"omitempty,uuid"`
	Entity   *string  `json:"entity" binding:"omitempty,uuid"`
}

// BulkDeleteTransfersRequest names the transfers to delete.
type BulkDeleteTransfersRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,uuid"`
}

// BulkResult reports how many transfers a bulk operation changed.
type BulkResult struct {
	Count int64 `json:"count"`
}

// BalanceResponse is the summed value of a deposit's transfers.
type BalanceResponse struct {
	DepositID    string              `json:"deposit_id"`
	PeriodID     *string             `json:"period_id"`
	TransferType models.TransferType `json:"transfer_type"`
	Balance      decimal.Decimal     `json:"balance" swaggertype:"string"`
}

// CreateTransfer records a transfer of the handler's type.
// @Summary     Record a transfer
// @Description Record an income, expense or relocation. The category type must match the transfer type.
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string                true "Budget ID"
// @Param       request   body CreateTransferRequest true "Transfer details"
// @Success     201 {object} models.Transfer "Transfer recorded"
// @Failure     400 {object} ErrorResponse "Invalid input, category type mismatch or date outside period"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Referenced resource not found"
// @Router      /budgets/{budget_id}/incomes [post]
// @Router      /budgets/{budget_id}/expenses [post]
// @Router      /budgets/{budget_id}/relocations [post]
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
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

	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	date, err := parseFlexibleTime(req.Date)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	transfer, err := h.transferService.CreateTransfer(actor, budgetID, h.transferType, services.TransferInput{
		Name:        req.Name,
		Description: req.Description,
		Value:       req.Value,
		Date:        date,
		PeriodID:    req.Period,
		CategoryID:  req.Category,
		EntityID:    req.Entity,
		DepositID:   req.Deposit,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "CREATE_TRANSFER",
		ResourceType: h.resource(),
		ResourceID:   transfer.ID,
		IPAddress:    c.ClientIP(),
		Changes:      map[string]interface{}{"value": transfer.Value.String(), "period_id": transfer.PeriodID},
	})

	c.JSON(http.StatusCreated, gin.H{"transfer": transfer})
}

// GetTransfers lists transfers of the handler's type.
// @Summary     List transfers
// @Tags        transfers
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id     path  string true  "Budget ID"
// @Param       name          query string false "Filter by name (case-insensitive substring)"
// @Param       period        query string false "Filter by period ID"
// @Param       category      query string false "Filter by category ID"
// @Param       entity        query string false "Filter by entity ID"
// @Param       deposit       query string false "Filter by deposit ID"
// @Param       uncategorized query bool   false "Only transfers without a category"
// @Param       from_date     query string false "Filter by start date (YYYY-MM-DD)"
// @Param       to_date       query string false "Filter by end date (YYYY-MM-DD)"
// @Param       min_value     query string false "Minimum value"
// @Param       max_value     query string false "Maximum value"
// @Param       page          query int    false "Page number (default 1)"
// @Param       page_size     query int    false "Items per page (default 20, max 100)"
// @Param       ordering      query string false "Order by date, value or name, prefix with - for descending"
// @Success     200 {object} pagination.PageResponse[models.Transfer] "Paginated transfers"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{budget_id}/incomes [get]
// @Router      /budgets/{budget_id}/expenses [get]
// @Router      /budgets/{budget_id}/relocations [get]
func (h *TransferHandler) GetTransfers(c *gin.Context) {
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

	filter, err := parseTransferFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transferService.GetBudgetTransfers(actor, budgetID, h.transferType, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseTransferFilter(c *gin.Context) (services.TransferFilter, error) {
	filter := services.TransferFilter{Name: c.Query("name")}

	var err error
	if filter.PeriodID, err = queryUUID(c, "period"); err != nil {
		return filter, err
	}
	if filter.CategoryID, err = queryUUID(c, "category"); err != nil {
		return filter, err
	}
	if filter.EntityID, err = queryUUID(c, "entity"); err != nil {
		return filter, err
	}
	if filter.DepositID, err = queryUUID(c, "deposit"); err != nil {
		return filter, err
	}
	uncategorized, err := queryBool(c, "uncategorized")
	if err != nil {
		return filter, err
	}
	filter.Uncategorized = uncategorized != nil && *uncategorized
	if filter.FromDate, err = queryDate(c, "from_date"); err != nil {
		return filter, err
	}
	if filter.ToDate, err = queryDate(c, "to_date"); err != nil {
		return filter, err
	}
	if filter.MinValue, err = queryDecimal(c, "min_value"); err != nil {
		return filter, err
	}
	if filter.MaxValue, err = queryDecimal(c, "max_value"); err != nil {
		return filter, err
	}
	return filter, nil
}

// GetTransfer retrieves one transfer of the handler's type.
// @Summary     Get transfer by ID
// @Tags        transfers
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       id        path string true "Transfer ID"
// @Success     200 {object} models.Transfer "Transfer"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Transfer not found"
// @Router      /budgets/{budget_id}/expenses/{id} [get]
func (h *TransferHandler) GetTransfer(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, transferID, err := budgetPath(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transfer, err := h.transferService.GetTransferByID(actor, budgetID, h.transferType, transferID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transfer": transfer})
}

// UpdateTransfer updates a transfer of an open period.
// @Summary     Update a transfer
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string                true "Budget ID"
// @Param       id        path string                true "Transfer ID"
// @Param       request   body UpdateTransferRequest true "Fields to update"
// @Success     200 {object} models.Transfer "Transfer updated"
// @Failure     400 {object} ErrorResponse "Invalid input or closed period"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Transfer not found"
// @Router      /budgets/{budget_id}/expenses/{id} [put]
func (h *TransferHandler) UpdateTransfer(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, transferID, err := budgetPath(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	upd := services.TransferUpdate{
		Name:        req.Name,
		Description: req.Description,
		Value:       req.Value,
		PeriodID:    req.Period,
		CategoryID:  req.Category,
		EntityID:    req.Entity,
		DepositID:   req.Deposit,
	}
	if upd.Date, err = parseOptionalDate(req.Date, "date"); err != nil {
		respondWithError(c, err)
		return
	}

	transfer, err := h.transferService.UpdateTransfer(actor, budgetID, h.transferType, transferID, upd)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "UPDATE_TRANSFER",
		ResourceType: h.resource(),
		ResourceID:   transferID,
		IPAddress:    c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{"transfer": transfer})
}

// BulkUpdateTransfers reassigns category and/or entity of many transfers in
// one transaction. Either every transfer is updated or none.
// @Summary     Bulk update transfers
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string                     true "Budget ID"
// @Param       request   body BulkUpdateTransfersRequest true "Transfer IDs and new references"
// @Success     200 {object} BulkResult "Number of updated transfers"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Transfer not found"
// @Router      /budgets/{budget_id}/expenses/bulk [patch]
func (h *TransferHandler) BulkUpdateTransfers(c *gin.Context) {
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

	var req BulkUpdateTransfersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	count, err := h.transferService.BulkUpdateTransfers(actor, budgetID, h.transferType, req.IDs, services.BulkTransferUpdate{
		CategoryID: req.Category,
		EntityID:   req.Entity,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "BULK_UPDATE_TRANSFERS",
		ResourceType: h.resource(),
		IPAddress:    c.ClientIP(),
		Changes:      map[string]interface{}{"ids": req.IDs},
	})

	c.JSON(http.StatusOK, BulkResult{Count: count})
}

// DeleteTransfer deletes a transfer of an open period.
// @Summary     Delete a transfer
// @Tags        transfers
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       id        path string true "Transfer ID"
// @Success     204 "Transfer deleted"
// @Failure     400 {object} ErrorResponse "Closed period"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Transfer not found"
// @Router      /budgets/{budget_id}/expenses/{id} [delete]
func (h *TransferHandler) DeleteTransfer(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, transferID, err := budgetPath(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transferService.DeleteTransfer(actor, budgetID, h.transferType, transferID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "DELETE_TRANSFER",
		ResourceType: h.resource(),
		ResourceID:   transferID,
		IPAddress:    c.ClientIP(),
	})

	c.Status(http.StatusNoContent)
}

// BulkDeleteTransfers deletes many transfers in one transaction.
// @Summary     Bulk delete transfers
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string                     true "Budget ID"
// @Param       request   body BulkDeleteTransfersRequest true "Transfer IDs"
// @Success     200 {object} BulkResult "Number of deleted transfers"
// @Failure     400 {object} ErrorResponse "Invalid input or closed period"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Transfer not found"
// @Router      /budgets/{budget_id}/expenses/bulk [delete]
func (h *TransferHandler) BulkDeleteTransfers(c *gin.Context) {
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

	var req BulkDeleteTransfersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	count, err := h.transferService.BulkDeleteTransfers(actor, budgetID, h.transferType, req.IDs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "BULK_DELETE_TRANSFERS",
		ResourceType: h.resource(),
		IPAddress:    c.ClientIP(),
		Changes:      map[string]interface{}{"ids": req.IDs},
	})

	c.JSON(http.StatusOK, BulkResult{Count: count})
}

// DepositBalance sums the transfers of one type on a deposit.
// @Summary     Deposit transfer sum
// @Description Sum the values of a deposit's transfers of one type, optionally within a period. Returns 0.00 when nothing matches.
// @Tags        deposits
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id     path  string true  "Budget ID"
// @Param       id            path  string true  "Deposit ID"
// @Param       transfer_type query int    true  "Transfer type (1 income, 2 expense, 3 relocation)"
// @Param       period        query string false "Period ID"
// @Success     200 {object} BalanceResponse "Summed value"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Deposit or period not found"
// @Router      /budgets/{budget_id}/deposits/{id}/balance [get]
func (h *TransferHandler) DepositBalance(c *gin.Context) {
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

	transferType, err := queryChoice(c, "transfer_type", models.TransferType.Valid)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if transferType == nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "transfer_type is required"))
		return
	}
	periodID, err := queryUUID(c, "period")
	if err != nil {
		respondWithError(c, err)
		return
	}

	balance, err := h.transferService.DepositBalance(actor, budgetID, depositID, periodID, *transferType)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, BalanceResponse{
		DepositID:    depositID,
		PeriodID:     periodID,
		TransferType: *transferType,
		Balance:      balance,
	})
}
