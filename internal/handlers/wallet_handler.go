package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"budgetory/internal/pagination"
	"budgetory/internal/services"
)

// WalletHandler handles wallets and the deposits assigned to them.
type WalletHandler struct {
	walletService     services.WalletServicer
	allocationService services.WalletDepositServicer
	auditService      services.AuditServicer
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletService services.WalletServicer, allocationService services.WalletDepositServicer, auditService services.AuditServicer) *WalletHandler {
	return &WalletHandler{walletService: walletService, allocationService: allocationService, auditService: auditService}
}

// WalletRequest represents the request payload for creating a wallet.
type WalletRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=255"`
	Currency string `json:"currency" binding:"required,iso4217"`
}

// UpdateWalletRequest represents the request payload for updating a wallet.
type UpdateWalletRequest struct {
	Name     string `json:"name" binding:"omitempty,max=255"`
	Currency string `json:"currency" binding:"omitempty,iso4217"`
}

// AllocateDepositRequest assigns a deposit to a wallet.
type AllocateDepositRequest struct {
	DepositID     string          `json:"deposit_id" binding:"required,uuid"`
	PlannedWeight decimal.Decimal `json:"planned_weight" swaggertype:"string"`
}

// UpdateAllocationRequest changes the planned weight of an assignment.
type UpdateAllocationRequest struct {
	PlannedWeight decimal.Decimal `json:"planned_weight" swaggertype:"string"`
}

// CreateWallet handles the creation of a wallet.
// @Summary     Create a wallet
// @Tags        wallets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string        true "Budget ID"
// @Param       request   body WalletRequest true "Wallet details"
// @Success     201 {object} models.Wallet "Wallet created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{budget_id}/wallets [post]
func (h *WalletHandler) CreateWallet(c *gin.Context) {
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

	var req WalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	wallet, err := h.walletService.CreateWallet(actor, budgetID, req.Name, req.Currency)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "CREATE_WALLET",
		ResourceType: "wallet",
		ResourceID:   wallet.ID,
		IPAddress:    c.ClientIP(),
		Changes:      map[string]interface{}{"name": req.Name},
	})

	c.JSON(http.StatusCreated, gin.H{"wallet": wallet})
}

// GetWallets handles listing the wallets of a budget.
// @Summary     List wallets
// @Tags        wallets
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path  string true  "Budget ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Param       ordering  query string false "Order by name, prefix with - for descending"
// @Success     200 {object} pagination.PageResponse[models.Wallet] "Paginated wallets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{budget_id}/wallets [get]
func (h *WalletHandler) GetWallets(c *gin.Context) {
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

	result, err := h.walletService.GetBudgetWallets(actor, budgetID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetWallet handles retrieving a wallet.
// @Summary     Get wallet by ID
// @Tags        wallets
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       wallet_id path string true "Wallet ID"
// @Success     200 {object} models.Wallet "Wallet"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Wallet not found"
// @Router      /budgets/{budget_id}/wallets/{wallet_id} [get]
func (h *WalletHandler) GetWallet(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, walletID, err := budgetPath(c, "wallet_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	wallet, err := h.walletService.GetWalletByID(actor, budgetID, walletID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}

// UpdateWallet handles renaming a wallet or changing its currency.
// @Summary     Update a wallet
// @Tags        wallets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string              true "Budget ID"
// @Param       wallet_id path string              true "Wallet ID"
// @Param       request   body UpdateWalletRequest true "Fields to update"
// @Success     200 {object} models.Wallet "Wallet updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Wallet not found"
// @Router      /budgets/{budget_id}/wallets/{wallet_id} [put]
func (h *WalletHandler) UpdateWallet(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, walletID, err := budgetPath(c, "wallet_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	wallet, err := h.walletService.UpdateWallet(actor, budgetID, walletID, req.Name, req.Currency)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "UPDATE_WALLET",
		ResourceType: "wallet",
		ResourceID:   walletID,
		IPAddress:    c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}

// DeleteWallet handles deleting a wallet.
// @Summary     Delete a wallet
// @Tags        wallets
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       wallet_id path string true "Wallet ID"
// @Success     204 "Wallet deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Wallet not found"
// @Router      /budgets/{budget_id}/wallets/{wallet_id} [delete]
func (h *WalletHandler) DeleteWallet(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, walletID, err := budgetPath(c, "wallet_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.walletService.DeleteWallet(actor, budgetID, walletID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "DELETE_WALLET",
		ResourceType: "wallet",
		ResourceID:   walletID,
		IPAddress:    c.ClientIP(),
	})

	c.Status(http.StatusNoContent)
}

// AllocateDeposit assigns a deposit to a wallet with a planned weight.
// @Summary     Assign a deposit to a wallet
// @Tags        wallets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string                 true "Budget ID"
// @Param       wallet_id path string                 true "Wallet ID"
// @Param       request   body AllocateDepositRequest true "Deposit and planned weight"
// @Success     201 {object} models.WalletDeposit "Deposit assigned"
// @Failure     400 {object} ErrorResponse "Invalid planned weight or deposit already assigned"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Wallet or deposit not found"
// @Router      /budgets/{budget_id}/wallets/{wallet_id}/deposits [post]
func (h *WalletHandler) AllocateDeposit(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, walletID, err := budgetPath(c, "wallet_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AllocateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	allocation, err := h.allocationService.AllocateDeposit(actor, budgetID, walletID, req.DepositID, req.PlannedWeight)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "ALLOCATE_DEPOSIT",
		ResourceType: "wallet_deposit",
		ResourceID:   allocation.ID,
		IPAddress:    c.ClientIP(),
		Changes:      map[string]interface{}{"wallet_id": walletID, "deposit_id": req.DepositID, "planned_weight": req.PlannedWeight.String()},
	})

	c.JSON(http.StatusCreated, gin.H{"wallet_deposit": allocation})
}

// GetWalletDeposits lists the deposits assigned to a wallet.
// @Summary     List wallet deposits
// @Tags        wallets
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       wallet_id path string true "Wallet ID"
// @Success     200 {array}  models.WalletDeposit "Assigned deposits"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Wallet not found"
// @Router      /budgets/{budget_id}/wallets/{wallet_id}/deposits [get]
func (h *WalletHandler) GetWalletDeposits(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, walletID, err := budgetPath(c, "wallet_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	allocations, err := h.allocationService.GetWalletDeposits(actor, budgetID, walletID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallet_deposits": allocations})
}

// UpdateAllocation changes the planned weight of an assigned deposit.
// @Summary     Update a wallet deposit
// @Tags        wallets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       budget_id path string                  true "Budget ID"
// @Param       wallet_id path string                  true "Wallet ID"
// @Param       id        path string                  true "Wallet deposit ID"
// @Param       request   body UpdateAllocationRequest true "Planned weight"
// @Success     200 {object} models.WalletDeposit "Wallet deposit updated"
// @Failure     400 {object} ErrorResponse "Invalid planned weight"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Wallet deposit not found"
// @Router      /budgets/{budget_id}/wallets/{wallet_id}/deposits/{id} [put]
func (h *WalletHandler) UpdateAllocation(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, walletID, err := budgetPath(c, "wallet_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	allocationID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	allocation, err := h.allocationService.UpdateAllocation(actor, budgetID, walletID, allocationID, req.PlannedWeight)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "UPDATE_WALLET_DEPOSIT",
		ResourceType: "wallet_deposit",
		ResourceID:   allocationID,
		IPAddress:    c.ClientIP(),
		Changes:      map[string]interface{}{"planned_weight": req.PlannedWeight.String()},
	})

	c.JSON(http.StatusOK, gin.H{"wallet_deposit": allocation})
}

// RemoveAllocation unassigns a deposit from a wallet.
// @Summary     Remove a wallet deposit
// @Tags        wallets
// @Security    BearerAuth
// @Param       budget_id path string true "Budget ID"
// @Param       wallet_id path string true "Wallet ID"
// @Param       id        path string true "Wallet deposit ID"
// @Success     204 "Wallet deposit removed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Wallet deposit not found"
// @Router      /budgets/{budget_id}/wallets/{wallet_id}/deposits/{id} [delete]
func (h *WalletHandler) RemoveAllocation(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, walletID, err := budgetPath(c, "wallet_id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	allocationID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.allocationService.RemoveAllocation(actor, budgetID, walletID, allocationID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditEvent{
		UserID:       actor.UserID,
		BudgetID:     budgetID,
		Action:       "REMOVE_WALLET_DEPOSIT",
		ResourceType: "wallet_deposit",
		ResourceID:   allocationID,
		IPAddress:    c.ClientIP(),
	})

	c.Status(http.StatusNoContent)
}
