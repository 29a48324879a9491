package services

import (
	"time"

	"github.com/shopspring/decimal"

	"budgetory/internal/models"
	"budgetory/internal/pagination"
)

// Actor identifies the authenticated caller of an operation.
type Actor struct {
	UserID  string
	IsStaff bool
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, username string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID string, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// Scope names the resources a request is nested under. Empty ids are skipped.
type Scope struct {
	BudgetID  string
	WalletID  string
	PeriodID  string
	DepositID string
}

// ResolvedScope holds the rows loaded for a Scope.
type ResolvedScope struct {
	Budget  *models.Budget
	Wallet  *models.Wallet
	Period  *models.Period
	Deposit *models.Entity
}

// ScopeServicer resolves nested resource ids and decides budget access.
type ScopeServicer interface {
	Resolve(actor Actor, scope Scope) (*ResolvedScope, error)
	Authorize(actor Actor, budget *models.Budget) (bool, error)
}

// BudgetInput holds the fields of a new budget.
type BudgetInput struct {
	Name        string
	Description string
	Currency    string
	MemberIDs   []string
}

// BudgetUpdate holds the changed fields of a budget. A nil MemberIDs leaves
// the members untouched.
type BudgetUpdate struct {
	Name        *string
	Description *string
	Currency    *string
	MemberIDs   []string
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(actor Actor, in BudgetInput) (*models.Budget, error)
	GetUserBudgets(actor Actor, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(actor Actor, budgetID string) (*models.Budget, error)
	UpdateBudget(actor Actor, budgetID string, upd BudgetUpdate) (*models.Budget, error)
	DeleteBudget(actor Actor, budgetID string) error
}

// WalletServicer defines the contract for wallet-related business logic.
type WalletServicer interface {
	CreateWallet(actor Actor, budgetID, name, currency string) (*models.Wallet, error)
	GetBudgetWallets(actor Actor, budgetID string, page pagination.PageRequest) (*pagination.PageResponse[models.Wallet], error)
	GetWalletByID(actor Actor, budgetID, walletID string) (*models.Wallet, error)
	UpdateWallet(actor Actor, budgetID, walletID, name, currency string) (*models.Wallet, error)
	DeleteWallet(actor Actor, budgetID, walletID string) error
}

// PeriodInput holds the fields of a new period. A nil PreviousPeriodID is
// filled with the latest period ending before DateStart.
type PeriodInput struct {
	Name             string
	DateStart        time.Time
	DateEnd          time.Time
	Status           models.PeriodStatus
	PreviousPeriodID *string
}

// PeriodUpdate holds the changed fields of a period.
type PeriodUpdate struct {
	Name      *string
	DateStart *time.Time
	DateEnd   *time.Time
	Status    *models.PeriodStatus
}

// PeriodFilter holds optional filter parameters for listing periods.
type PeriodFilter struct {
	Name   string
	Status *models.PeriodStatus
}

// PeriodServicer defines the contract for period-related business logic.
type PeriodServicer interface {
	CreatePeriod(actor Actor, budgetID string, in PeriodInput) (*models.Period, error)
	GetBudgetPeriods(actor Actor, budgetID string, page pagination.PageRequest, filter PeriodFilter) (*pagination.PageResponse[models.Period], error)
	GetPeriodByID(actor Actor, budgetID, periodID string) (*models.Period, error)
	UpdatePeriod(actor Actor, budgetID, periodID string, upd PeriodUpdate) (*models.Period, error)
	DeletePeriod(actor Actor, budgetID, periodID string) error
}

// CategoryInput holds the fields of a new category. A nil OwnerID creates a
// common category.
type CategoryInput struct {
	Name         string
	Description  string
	CategoryType models.CategoryType
	Priority     models.CategoryPriority
	OwnerID      *string
	IsActive     *bool
}

// CategoryUpdate holds the changed fields of a category.
type CategoryUpdate struct {
	Name        *string
	Description *string
	Priority    *models.CategoryPriority
	IsActive    *bool
}

// CategoryFilter holds optional filter parameters for listing categories.
type CategoryFilter struct {
	Name         string
	Description  string
	IsActive     *bool
	CategoryType *models.CategoryType
	Priority     *models.CategoryPriority
	OwnerID      *string
	CommonOnly   bool
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(actor Actor, budgetID string, in CategoryInput) (*models.TransferCategory, error)
	GetBudgetCategories(actor Actor, budgetID string, page pagination.PageRequest, filter CategoryFilter) (*pagination.PageResponse[models.TransferCategory], error)
	GetCategoryByID(actor Actor, budgetID, categoryID string) (*models.TransferCategory, error)
	UpdateCategory(actor Actor, budgetID, categoryID string, upd CategoryUpdate) (*models.TransferCategory, error)
	DeleteCategory(actor Actor, budgetID, categoryID string) error
}

// EntityInput holds the fields of a new entity or deposit. DepositType and
// OwnerID only apply to deposits.
type EntityInput struct {
	Name        string
	Description string
	IsActive    *bool
	IsDeposit   bool
	DepositType *models.DepositType
	OwnerID     *string
}

// EntityUpdate holds the changed fields of an entity or deposit.
type EntityUpdate struct {
	Name        *string
	Description *string
	IsActive    *bool
	DepositType *models.DepositType
}

// EntityFilter holds optional filter parameters for listing entities.
type EntityFilter struct {
	Name        string
	IsActive    *bool
	IsDeposit   *bool
	DepositType *models.DepositType
	OwnerID     *string
}

// DepositWithBalance is a deposit together with incomes minus expenses over
// all periods.
type DepositWithBalance struct {
	models.Entity
	Balance decimal.Decimal `json:"balance"`
}

// EntityServicer defines the contract for entity and deposit business logic.
type EntityServicer interface {
	CreateEntity(actor Actor, budgetID string, in EntityInput) (*models.Entity, error)
	CreateDeposit(actor Actor, budgetID string, in EntityInput) (*models.Entity, error)
	GetBudgetEntities(actor Actor, budgetID string, page pagination.PageRequest, filter EntityFilter) (*pagination.PageResponse[models.Entity], error)
	GetBudgetDeposits(actor Actor, budgetID string, page pagination.PageRequest, filter EntityFilter) (*pagination.PageResponse[DepositWithBalance], error)
	GetEntityByID(actor Actor, budgetID, entityID string) (*models.Entity, error)
	GetDepositByID(actor Actor, budgetID, depositID string) (*DepositWithBalance, error)
	UpdateEntity(actor Actor, budgetID, entityID string, upd EntityUpdate) (*models.Entity, error)
	UpdateDeposit(actor Actor, budgetID, depositID string, upd EntityUpdate) (*models.Entity, error)
	DeleteEntity(actor Actor, budgetID, entityID string) error
	DeleteDeposit(actor Actor, budgetID, depositID string) error
}

// WalletDepositServicer defines the contract for assigning deposits to wallets.
type WalletDepositServicer interface {
	AllocateDeposit(actor Actor, budgetID, walletID, depositID string, plannedWeight decimal.Decimal) (*models.WalletDeposit, error)
	GetWalletDeposits(actor Actor, budgetID, walletID string) ([]models.WalletDeposit, error)
	UpdateAllocation(actor Actor, budgetID, walletID, allocationID string, plannedWeight decimal.Decimal) (*models.WalletDeposit, error)
	RemoveAllocation(actor Actor, budgetID, walletID, allocationID string) error
}

// TransferInput holds the fields of a new transfer. A nil PeriodID selects
// the budget period containing Date.
type TransferInput struct {
	Name        string
	Description string
	Value       decimal.Decimal
	Date        time.Time
	PeriodID    *string
	CategoryID  *string
	EntityID    string
	DepositID   *string
}

// TransferUpdate holds the changed fields of a transfer. An empty CategoryID
// or DepositID clears the reference.
type TransferUpdate struct {
	Name        *string
	Description *string
	Value       *decimal.Decimal
	Date        *time.Time
	PeriodID    *string
	CategoryID  *string
	EntityID    *string
	DepositID   *string
}

// BulkTransferUpdate holds the references reassigned on many transfers at once.
type BulkTransferUpdate struct {
	CategoryID *string
	EntityID   *string
}

// TransferFilter holds optional filter parameters for listing transfers.
type TransferFilter struct {
	Name          string
	PeriodID      *string
	CategoryID    *string
	EntityID      *string
	DepositID     *string
	Uncategorized bool
	FromDate      *time.Time
	ToDate        *time.Time
	MinValue      *decimal.Decimal
	MaxValue      *decimal.Decimal
}

// TransferServicer defines the contract for the transfer ledger. Every
// operation is bound to one transfer type.
type TransferServicer interface {
	CreateTransfer(actor Actor, budgetID string, transferType models.TransferType, in TransferInput) (*models.Transfer, error)
	GetBudgetTransfers(actor Actor, budgetID string, transferType models.TransferType, page pagination.PageRequest, filter TransferFilter) (*pagination.PageResponse[models.Transfer], error)
	GetTransferByID(actor Actor, budgetID string, transferType models.TransferType, transferID string) (*models.Transfer, error)
	UpdateTransfer(actor Actor, budgetID string, transferType models.TransferType, transferID string, upd TransferUpdate) (*models.Transfer, error)
	BulkUpdateTransfers(actor Actor, budgetID string, transferType models.TransferType, ids []string, upd BulkTransferUpdate) (int64, error)
	DeleteTransfer(actor Actor, budgetID string, transferType models.TransferType, transferID string) error
	BulkDeleteTransfers(actor Actor, budgetID string, transferType models.TransferType, ids []string) (int64, error)
	DepositBalance(actor Actor, budgetID, depositID string, periodID *string, transferType models.TransferType) (decimal.Decimal, error)
}

// PredictionInput holds the fields of a new expense prediction.
type PredictionInput struct {
	PeriodID    string
	CategoryID  string
	CurrentPlan decimal.Decimal
	Description string
}

// PredictionUpdate holds the changed fields of an expense prediction.
type PredictionUpdate struct {
	CurrentPlan *decimal.Decimal
	Description *string
}

// CommonOwnerFilter selects categories without an owner in PredictionFilter.
const CommonOwnerFilter = "-1"

// PredictionFilter holds optional filter parameters for listing predictions.
type PredictionFilter struct {
	PeriodID         *string
	CategoryID       *string
	OwnerID          *string
	CategoryPriority *models.CategoryPriority
	CurrentPlanMin   *decimal.Decimal
	CurrentPlanMax   *decimal.Decimal
	InitialPlanMin   *decimal.Decimal
	InitialPlanMax   *decimal.Decimal
	ProgressStatus   *models.PredictionProgressStatus
}

// PredictionServicer defines the contract for expense predictions and the
// read-only aggregation of their results.
type PredictionServicer interface {
	CreatePrediction(actor Actor, budgetID string, in PredictionInput) (*models.PredictionResult, error)
	GetBudgetPredictions(actor Actor, budgetID string, page pagination.PageRequest, filter PredictionFilter) (*pagination.PageResponse[models.PredictionResult], error)
	GetPredictionByID(actor Actor, budgetID, predictionID string) (*models.PredictionResult, error)
	UpdatePrediction(actor Actor, budgetID, predictionID string, upd PredictionUpdate) (*models.PredictionResult, error)
	DeletePrediction(actor Actor, budgetID, predictionID string) error
	CategoryResult(actor Actor, budgetID, periodID, categoryID string) (*models.PredictionResult, error)
	UncategorizedResults(actor Actor, budgetID, periodID string, depositID *string) ([]models.PredictionResult, error)
	CopyFromPreviousPeriod(actor Actor, budgetID, periodID string) (int, error)
	DepositResults(actor Actor, budgetID, periodID string) ([]models.DepositPeriodResult, error)
	UserResults(actor Actor, budgetID, periodID string) ([]models.UserPeriodResult, error)
}

// TransfersChartQuery narrows the transfers-in-periods chart. A nil
// PeriodsCount covers every period.
type TransfersChartQuery struct {
	DepositID    *string
	EntityID     *string
	TransferType *models.TransferType
	PeriodsCount *int
}

// TopEntitiesQuery selects the period and transfer type to rank entities by.
// Without both the chart is empty.
type TopEntitiesQuery struct {
	PeriodID      *string
	TransferType  *models.TransferType
	DepositID     *string
	EntitiesCount int
}

// CategoryChartQuery selects the category whose results and plans are drawn.
type CategoryChartQuery struct {
	CategoryID   *string
	DisplayValue *models.CategoryChartValue
	PeriodsCount *int
}

// DepositsChartQuery narrows the deposits-in-periods chart. Without a
// DisplayValue the series hold balances at the end of each period.
type DepositsChartQuery struct {
	PeriodFromID *string
	PeriodToID   *string
	DepositID    *string
	DepositType  *models.DepositType
	DisplayValue *models.TransferType
}

// ChartServicer defines the contract for the read-only chart series of a budget.
type ChartServicer interface {
	TransfersInPeriods(actor Actor, budgetID string, q TransfersChartQuery) (*models.TransfersChart, error)
	TopEntitiesInPeriod(actor Actor, budgetID string, q TopEntitiesQuery) (*models.EntitiesChart, error)
	CategoryInPeriods(actor Actor, budgetID string, q CategoryChartQuery) (*models.CategoryChart, error)
	DepositsInPeriods(actor Actor, budgetID string, q DepositsChartQuery) (*models.DepositsChart, error)
}

// AuditEvent is one write made by a user. BudgetID is empty for account
// events such as registration and login.
type AuditEvent struct {
	UserID       string
	BudgetID     string
	Action       string
	ResourceType string
	ResourceID   string
	IPAddress    string
	Changes      map[string]interface{}
}

// AuditServicer records the audit trail of user writes.
type AuditServicer interface {
	Log(event AuditEvent)
}
