package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budgetory/internal/models"
)

// ChoicesHandler serves the static value/label enumerations clients use to
// build forms.
type ChoicesHandler struct{}

// NewChoicesHandler creates a new ChoicesHandler.
func NewChoicesHandler() *ChoicesHandler {
	return &ChoicesHandler{}
}

// ChoicesResponse wraps an enumeration.
type ChoicesResponse struct {
	Results []models.Choice `json:"results"`
}

// GetCategoryTypes lists category types.
// @Summary  Category types
// @Tags     choices
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} ChoicesResponse
// @Router   /choices/category-types [get]
func (h *ChoicesHandler) GetCategoryTypes(c *gin.Context) {
	c.JSON(http.StatusOK, ChoicesResponse{Results: models.CategoryTypeChoices()})
}

// GetCategoryPriorities lists category priorities, narrowed to one category
// type when type is given.
// @Summary  Category priorities
// @Tags     choices
// @Produce  json
// @Security BearerAuth
// @Param    type query int false "Category type (1 expense, 2 income)"
// @Success  200 {object} ChoicesResponse
// @Failure  400 {object} ErrorResponse "Invalid type"
// @Router   /choices/category-priorities [get]
func (h *ChoicesHandler) GetCategoryPriorities(c *gin.Context) {
	categoryType, err := queryChoice(c, "type", models.CategoryType.Valid)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var t models.CategoryType
	if categoryType != nil {
		t = *categoryType
	}
	c.JSON(http.StatusOK, ChoicesResponse{Results: models.CategoryPriorityChoices(t)})
}

// GetDepositTypes lists deposit types.
// @Summary  Deposit types
// @Tags     choices
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} ChoicesResponse
// @Router   /choices/deposit-types [get]
func (h *ChoicesHandler) GetDepositTypes(c *gin.Context) {
	c.JSON(http.StatusOK, ChoicesResponse{Results: models.DepositTypeChoices()})
}

// GetPeriodStatuses lists period statuses.
// @Summary  Period statuses
// @Tags     choices
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} ChoicesResponse
// @Router   /choices/period-statuses [get]
func (h *ChoicesHandler) GetPeriodStatuses(c *gin.Context) {
	c.JSON(http.StatusOK, ChoicesResponse{Results: models.PeriodStatusChoices()})
}

// GetTransferTypes lists transfer types.
// @Summary  Transfer types
// @Tags     choices
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} ChoicesResponse
// @Router   /choices/transfer-types [get]
func (h *ChoicesHandler) GetTransferTypes(c *gin.Context) {
	c.JSON(http.StatusOK, ChoicesResponse{Results: models.TransferTypeChoices()})
}

// GetProgressStatuses lists prediction progress statuses.
// @Summary  Prediction progress statuses
// @Tags     choices
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} ChoicesResponse
// @Router   /choices/progress-statuses [get]
func (h *ChoicesHandler) GetProgressStatuses(c *gin.Context) {
	c.JSON(http.StatusOK, ChoicesResponse{Results: models.PredictionProgressStatusChoices()})
}
