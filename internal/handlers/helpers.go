package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "budgetory/internal/errors"
	"budgetory/internal/middleware"
	"budgetory/internal/services"
	"budgetory/internal/uuid"
)

// getActor extracts the authenticated principal from the Gin context.
// Returns ErrUnauthorized if not present.
func getActor(c *gin.Context) (services.Actor, error) {
	userID := c.GetString(middleware.UserIDKey)
	if userID == "" {
		return services.Actor{}, apperrors.ErrUnauthorized
	}
	return services.Actor{UserID: userID, IsStaff: c.GetBool(middleware.IsStaffKey)}, nil
}

// parsePathID parses a UUID path parameter.
// Returns ErrInvalidInput if the parameter is not a valid UUID.
func parsePathID(c *gin.Context, param string) (string, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// budgetPath parses the budget id and one nested resource id.
func budgetPath(c *gin.Context, param string) (budgetID, id string, err error) {
	if budgetID, err = parsePathID(c, "budget_id"); err != nil {
		return "", "", err
	}
	if id, err = parsePathID(c, param); err != nil {
		return "", "", err
	}
	return budgetID, id, nil
}

// parseFlexibleTime accepts RFC3339 timestamps and plain YYYY-MM-DD dates.
func parseFlexibleTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, errors.New("invalid date format, use RFC3339 or YYYY-MM-DD")
	}
	return t, nil
}

func queryUUID(c *gin.Context, key string) (*string, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+key)
	}
	return &id, nil
}

func queryBool(c *gin.Context, key string) (*bool, error) {
	switch c.Query(key) {
	case "":
		return nil, nil
	case "true":
		b := true
		return &b, nil
	case "false":
		b := false
		return &b, nil
	}
	return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, key+" must be 'true' or 'false'")
}

// queryChoice parses an integer choice value and checks it with valid.
func queryChoice[T ~int](c *gin.Context, key string, valid func(T) bool) (*T, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || !valid(T(n)) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+key)
	}
	choice := T(n)
	return &choice, nil
}

// queryPositiveInt parses an optional count that has to be at least one.
func queryPositiveInt(c *gin.Context, key string) (*int, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, key+" must be a positive integer")
	}
	return &n, nil
}

func queryDecimal(c *gin.Context, key string) (*decimal.Decimal, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+key)
	}
	return &d, nil
}

func queryDate(c *gin.Context, key string) (*time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	t, err := parseFlexibleTime(v)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+key+" format, use RFC3339 or YYYY-MM-DD")
	}
	return &t, nil
}

// bindError wraps a request binding failure.
func bindError(err error) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

// respondWithError writes the JSON error envelope for err.
func respondWithError(c *gin.Context, err error) {
	middleware.WriteError(c, err)
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
