// Package errors provides custom error types for the Budgetory API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import (
	stderrors "errors"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// From returns the AppError in err's chain. Any other error becomes an
// internal error carrying it as the cause.
func From(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(ErrInternalServer, err)
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "You do not have permission to perform this action", StatusCode: http.StatusForbidden}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Budget errors.
var (
	ErrBudgetNotFound  = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
	ErrDuplicateBudget = &AppError{Code: "DUPLICATE_BUDGET", Message: "User already owns Budget with given name", StatusCode: http.StatusBadRequest}
	ErrInvalidMember   = &AppError{Code: "INVALID_MEMBER", Message: "Budget member does not exist", StatusCode: http.StatusBadRequest}
)

// Wallet errors.
var (
	ErrWalletNotFound         = &AppError{Code: "WALLET_NOT_FOUND", Message: "Wallet not found", StatusCode: http.StatusNotFound}
	ErrDuplicateWallet        = &AppError{Code: "DUPLICATE_WALLET", Message: "Wallet with given name already exists in Budget.", StatusCode: http.StatusBadRequest}
	ErrInvalidPlannedWeight   = &AppError{Code: "INVALID_PLANNED_WEIGHT", Message: "Planned weight has to be greater than 0 and lower than 100.", StatusCode: http.StatusBadRequest}
	ErrDepositAlreadyAssigned = &AppError{Code: "DEPOSIT_ALREADY_ASSIGNED", Message: "Deposit is already assigned to a Wallet.", StatusCode: http.StatusBadRequest}
	ErrAllocationNotFound     = &AppError{Code: "WALLET_DEPOSIT_NOT_FOUND", Message: "Wallet deposit not found", StatusCode: http.StatusNotFound}
)

// Period errors.
var (
	ErrPeriodNotFound     = &AppError{Code: "PERIOD_NOT_FOUND", Message: "Period not found", StatusCode: http.StatusNotFound}
	ErrDuplicatePeriod    = &AppError{Code: "DUPLICATE_PERIOD", Message: "Period with given name already exists in Budget.", StatusCode: http.StatusBadRequest}
	ErrInvalidPeriodDates = &AppError{Code: "INVALID_PERIOD_DATES", Message: "Start date should be earlier than end date.", StatusCode: http.StatusBadRequest}
	ErrPeriodOverlap      = &AppError{Code: "PERIOD_OVERLAP", Message: "Period date range collides with other period in Budget.", StatusCode: http.StatusBadRequest}
	ErrActivePeriodExists = &AppError{Code: "ACTIVE_PERIOD_EXISTS", Message: "Active period already exists in Budget.", StatusCode: http.StatusBadRequest}
	ErrPeriodClosed       = &AppError{Code: "PERIOD_CLOSED", Message: "Closed period cannot be changed.", StatusCode: http.StatusBadRequest}
	ErrInvalidPeriodState = &AppError{Code: "INVALID_PERIOD_STATUS", Message: "Active period cannot be moved back to Draft.", StatusCode: http.StatusBadRequest}
	ErrPeriodInUse        = &AppError{Code: "PERIOD_IN_USE", Message: "Period has transfers", StatusCode: http.StatusConflict}
)

// Category errors.
var (
	ErrCategoryNotFound  = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrDuplicateCategory = &AppError{Code: "DUPLICATE_CATEGORY", Message: "Category with given name already exists in Budget.", StatusCode: http.StatusBadRequest}
	ErrInvalidPriority   = &AppError{Code: "INVALID_PRIORITY", Message: "Invalid priority selected for specified Category type.", StatusCode: http.StatusBadRequest}
	ErrCategoryInUse     = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is used by existing transfers", StatusCode: http.StatusConflict}
	ErrInvalidOwner      = &AppError{Code: "INVALID_OWNER", Message: "Provided owner does not belong to Budget.", StatusCode: http.StatusBadRequest}
)

// Entity and deposit errors.
var (
	ErrEntityNotFound  = &AppError{Code: "ENTITY_NOT_FOUND", Message: "Entity not found", StatusCode: http.StatusNotFound}
	ErrDepositNotFound = &AppError{Code: "DEPOSIT_NOT_FOUND", Message: "Deposit not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEntity = &AppError{Code: "DUPLICATE_ENTITY", Message: "Entity with given name already exists in Budget.", StatusCode: http.StatusBadRequest}
	ErrEntityInUse     = &AppError{Code: "ENTITY_IN_USE", Message: "Entity is used by existing transfers", StatusCode: http.StatusConflict}
)

// Transfer errors.
var (
	ErrTransferNotFound     = &AppError{Code: "TRANSFER_NOT_FOUND", Message: "Transfer not found", StatusCode: http.StatusNotFound}
	ErrCategoryTypeMismatch = &AppError{Code: "CATEGORY_TYPE_MISMATCH", Message: "Transfer category type does not match transfer type.", StatusCode: http.StatusBadRequest}
	ErrDateOutsidePeriod    = &AppError{Code: "DATE_OUTSIDE_PERIOD", Message: "Transfer date not in period date range.", StatusCode: http.StatusBadRequest}
	ErrSameEntityDeposit    = &AppError{Code: "INVALID_INPUT", Message: "Transfer entity and deposit cannot be the same.", StatusCode: http.StatusBadRequest}
	ErrNonPositiveValue     = &AppError{Code: "INVALID_INPUT", Message: "Value should be higher than 0.00.", StatusCode: http.StatusBadRequest}
)

// Prediction errors.
var (
	ErrPredictionNotFound    = &AppError{Code: "PREDICTION_NOT_FOUND", Message: "Prediction not found", StatusCode: http.StatusNotFound}
	ErrDuplicatePrediction   = &AppError{Code: "DUPLICATE_PREDICTION", Message: "Prediction for given category already exists in Period.", StatusCode: http.StatusBadRequest}
	ErrPeriodNotDraft        = &AppError{Code: "PERIOD_NOT_DRAFT", Message: "New prediction can be added only to a Draft period.", StatusCode: http.StatusBadRequest}
	ErrPredictionsExist      = &AppError{Code: "PREDICTIONS_EXIST", Message: "Period already has predictions.", StatusCode: http.StatusBadRequest}
	ErrNoPreviousPeriod      = &AppError{Code: "NO_PREVIOUS_PERIOD", Message: "Period has no previous period to copy from.", StatusCode: http.StatusBadRequest}
	ErrNoPreviousPredictions = &AppError{Code: "NO_PREVIOUS_PREDICTIONS", Message: "Previous period has no predictions.", StatusCode: http.StatusBadRequest}
)
