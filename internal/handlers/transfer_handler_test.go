package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "budgetory/internal/errors"
	"budgetory/internal/models"
	"budgetory/internal/pagination"
	"budgetory/internal/services"
)

// --- mock transfer service ---

type mockTransferService struct {
	createTransferFn      func(actor services.Actor, budgetID string, tt models.TransferType, in services.TransferInput) (*models.Transfer, error)
	getBudgetTransfersFn  func(actor services.Actor, budgetID string, tt models.TransferType, page pagination.PageRequest, filter services.TransferFilter) (*pagination.PageResponse[models.Transfer], error)
	getTransferByIDFn     func(actor services.Actor, budgetID string, tt models.TransferType, transferID string) (*models.Transfer, error)
	updateTransferFn      func(actor services.Actor, budgetID string, tt models.TransferType, transferID string, upd services.TransferUpdate) (*models.Transfer, error)
	bulkUpdateTransfersFn func(actor services.Actor, budgetID string, tt models.TransferType, ids []string, upd services.BulkTransferUpdate) (int64, error)
	deleteTransferFn      func(actor services.Actor, budgetID string, tt models.TransferType, transferID string) error
	bulkDeleteTransfersFn func(actor services.Actor, budgetID string, tt models.TransferType, ids []string) (int64, error)
	depositBalanceFn      func(actor services.Actor, budgetID, depositID string, periodID *string, tt models.TransferType) (decimal.Decimal, error)
}

func (m *mockTransferService) CreateTransfer(actor services.Actor, budgetID string, tt models.TransferType, in services.TransferInput) (*models.Transfer, error) {
	if m.createTransferFn != nil {
		return m.createTransferFn(actor, budgetID, tt, in)
	}
	return &models.Transfer{TransferType: tt}, nil
}

func (m *mockTransferService) GetBudgetTransfers(actor services.Actor, budgetID string, tt models.TransferType, page pagination.PageRequest, filter services.TransferFilter) (*pagination.PageResponse[models.Transfer], error) {
	if m.getBudgetTransfersFn != nil {
		return m.getBudgetTransfersFn(actor, budgetID, tt, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transfer{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransferService) GetTransferByID(actor services.Actor, budgetID string, tt models.TransferType, transferID string) (*models.Transfer, error) {
	if m.getTransferByIDFn != nil {
		return m.getTransferByIDFn(actor, budgetID, tt, transferID)
	}
	return &models.Transfer{TransferType: tt}, nil
}

func (m *mockTransferService) UpdateTransfer(actor services.Actor, budgetID string, tt models.TransferType, transferID string, upd services.TransferUpdate) (*models.Transfer, error) {
	if m.updateTransferFn != nil {
		return m.updateTransferFn(actor, budgetID, tt, transferID, upd)
	}
	return &models.Transfer{TransferType: tt}, nil
}

func (m *mockTransferService) BulkUpdateTransfers(actor services.Actor, budgetID string, tt models.TransferType, ids []string, upd services.BulkTransferUpdate) (int64, error) {
	if m.bulkUpdateTransfersFn != nil {
		return m.bulkUpdateTransfersFn(actor, budgetID, tt, ids, upd)
	}
	return int64(len(ids)), nil
}

func (m *mockTransferService) DeleteTransfer(actor services.Actor, budgetID string, tt models.TransferType, transferID string) error {
	if m.deleteTransferFn != nil {
		return m.deleteTransferFn(actor, budgetID, tt, transferID)
	}
	return nil
}

func (m *mockTransferService) BulkDeleteTransfers(actor services.Actor, budgetID string, tt models.TransferType, ids []string) (int64, error) {
	if m.bulkDeleteTransfersFn != nil {
		return m.bulkDeleteTransfersFn(actor, budgetID, tt, ids)
	}
	return int64(len(ids)), nil
}

func (m *mockTransferService) DepositBalance(actor services.Actor, budgetID, depositID string, periodID *string, tt models.TransferType) (decimal.Decimal, error) {
	if m.depositBalanceFn != nil {
		return m.depositBalanceFn(actor, budgetID, depositID, periodID, tt)
	}
	return decimal.Zero, nil
}

var _ services.TransferServicer = (*mockTransferService)(nil)

func setupTransferRouter(handler *TransferHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("/budgets/:budget_id", injectUserID(testUserID))
	for path, tt := range map[string]models.TransferType{
		"/incomes":     models.TransferTypeIncome,
		"/expenses":    models.TransferTypeExpense,
		"/relocations": models.TransferTypeRelocation,
	} {
		h := handler.ForType(tt)
		g := auth.Group(path)
		g.POST("", h.CreateTransfer)
		g.GET("", h.GetTransfers)
		g.PATCH("/bulk", h.BulkUpdateTransfers)
		g.DELETE("/bulk", h.BulkDeleteTransfers)
		g.GET("/:id", h.GetTransfer)
		g.PUT("/:id", h.UpdateTransfer)
		g.DELETE("/:id", h.DeleteTransfer)
	}
	auth.GET("/deposits/:id/balance", handler.DepositBalance)
	return r
}

const (
	expensesPath = "/budgets/" + testBudgetID + "/expenses"
	incomesPath  = "/budgets/" + testBudgetID + "/incomes"
)

func TestTransferHandler_CreateTransfer(t *testing.T) {
	t.Run("binds route transfer type", func(t *testing.T) {
		var gotType models.TransferType
		var got services.TransferInput
		svc := &mockTransferService{
			createTransferFn: func(_ services.Actor, budgetID string, tt models.TransferType, in services.TransferInput) (*models.Transfer, error) {
				gotType, got = tt, in
				return &models.Transfer{BudgetID: budgetID, TransferType: tt, Name: in.Name, Value: in.Value, EntityID: in.EntityID}, nil
			},
		}
		r := setupTransferRouter(NewTransferHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", incomesPath,
			`{"name":"Salary","value":"5000.00","date":"2024-01-10","entity":"`+testOtherID+`"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotType != models.TransferTypeIncome {
			t.Errorf("expected income, got %v", gotType)
		}
		if !got.Value.Equal(decimal.RequireFromString("5000")) {
			t.Errorf("expected 5000, got %s", got.Value)
		}
		if !got.Date.Equal(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected date %v", got.Date)
		}
		if got.PeriodID != nil || got.CategoryID != nil || got.DepositID != nil {
			t.Error("expected optional references to stay nil")
		}
		transfer := parseJSON(t, rec)["transfer"].(map[string]interface{})
		if transfer["transfer_type"] != float64(models.TransferTypeIncome) {
			t.Errorf("expected transfer_type 1, got %v", transfer["transfer_type"])
		}
	})

	t.Run("returns 400 on missing entity", func(t *testing.T) {
		r := setupTransferRouter(NewTransferHandler(&mockTransferService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", expensesPath, `{"name":"Milk","value":"3.50","date":"2024-01-10"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on malformed date", func(t *testing.T) {
		r := setupTransferRouter(NewTransferHandler(&mockTransferService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", expensesPath,
			`{"name":"Milk","value":"3.50","date":"10.01.2024","entity":"`+testOtherID+`"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("maps category type mismatch", func(t *testing.T) {
		svc := &mockTransferService{
			createTransferFn: func(_ services.Actor, _ string, _ models.TransferType, _ services.TransferInput) (*models.Transfer, error) {
				return nil, apperrors.ErrCategoryTypeMismatch
			},
		}
		r := setupTransferRouter(NewTransferHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", expensesPath,
			`{"name":"Milk","value":"3.50","date":"2024-01-10","entity":"`+testOtherID+`","category":"`+testOtherID+`"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "CATEGORY_TYPE_MISMATCH")
	})
}

func TestTransferHandler_GetTransfers(t *testing.T) {
	t.Run("parses filters", func(t *testing.T) {
		var got services.TransferFilter
		svc := &mockTransferService{
			getBudgetTransfersFn: func(_ services.Actor, _ string, _ models.TransferType, _ pagination.PageRequest, filter services.TransferFilter) (*pagination.PageResponse[models.Transfer], error) {
				got = filter
				resp := pagination.NewPageResponse([]models.Transfer{}, 1, 20, 0)
				return &resp, nil
			},
		}
		r := setupTransferRouter(NewTransferHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", expensesPath+
			"?period="+testOtherID+"&uncategorized=true&from_date=2024-01-01&to_date=2024-01-31&min_value=10&max_value=99.99", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.PeriodID == nil || *got.PeriodID != testOtherID {
			t.Errorf("expected period %s, got %v", testOtherID, got.PeriodID)
		}
		if !got.Uncategorized {
			t.Error("expected uncategorized")
		}
		if got.FromDate == nil || got.ToDate == nil {
			t.Fatal("expected date range")
		}
		if got.MaxValue == nil || !got.MaxValue.Equal(decimal.RequireFromString("99.99")) {
			t.Errorf("expected max 99.99, got %v", got.MaxValue)
		}
	})

	t.Run("returns 400 on invalid min value", func(t *testing.T) {
		r := setupTransferRouter(NewTransferHandler(&mockTransferService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", expensesPath+"?min_value=ten", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransferHandler_GetTransfer(t *testing.T) {
	t.Run("returns 404 for transfer of another type", func(t *testing.T) {
		var gotType models.TransferType
		svc := &mockTransferService{
			getTransferByIDFn: func(_ services.Actor, _ string, tt models.TransferType, _ string) (*models.Transfer, error) {
				gotType = tt
				return nil, apperrors.ErrTransferNotFound
			},
		}
		r := setupTransferRouter(NewTransferHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", incomesPath+"/"+testOtherID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if gotType != models.TransferTypeIncome {
			t.Errorf("expected income lookup, got %v", gotType)
		}
	})
}

func TestTransferHandler_UpdateTransfer(t *testing.T) {
	t.Run("parses optional date", func(t *testing.T) {
		var got services.TransferUpdate
		svc := &mockTransferService{
			updateTransferFn: func(_ services.Actor, _ string, tt models.TransferType, _ string, upd services.TransferUpdate) (*models.Transfer, error) {
				got = upd
				return &models.Transfer{TransferType: tt}, nil
			},
		}
		r := setupTransferRouter(NewTransferHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PUT", expensesPath+"/"+testOtherID, `{"date":"2024-02-03"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Date == nil || got.Date.Day() != 3 {
			t.Errorf("unexpected date %v", got.Date)
		}
		if got.PeriodID != nil {
			t.Error("expected period to stay unset")
		}
	})

	t.Run("returns 400 on closed period", func(t *testing.T) {
		svc := &mockTransferService{
			updateTransferFn: func(_ services.Actor, _ string, _ models.TransferType, _ string, _ services.TransferUpdate) (*models.Transfer, error) {
				return nil, apperrors.ErrPeriodClosed
			},
		}
		r := setupTransferRouter(NewTransferHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PUT", expensesPath+"/"+testOtherID, `{"name":"x"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PERIOD_CLOSED")
	})
}

func TestTransferHandler_Bulk(t *testing.T) {
	t.Run("bulk update reports count", func(t *testing.T) {
		var gotIDs []string
		var got services.BulkTransferUpdate
		svc := &mockTransferService{
			bulkUpdateTransfersFn: func(_ services.Actor, _ string, _ models.TransferType, ids []string, upd services.BulkTransferUpdate) (int64, error) {
				gotIDs, got = ids, upd
				return int64(len(ids)), nil
			},
		}
		r := setupTransferRouter(NewTransferHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PATCH", expensesPath+"/bulk",
			`{"ids":["`+testOtherID+`","`+testBudgetID+`"],"category":"`+testUserID+`"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(gotIDs) != 2 {
			t.Errorf("expected 2 ids, got %v", gotIDs)
		}
		if got.CategoryID == nil || *got.CategoryID != testUserID || got.EntityID != nil {
			t.Errorf("unexpected update %+v", got)
		}
		if parseJSON(t, rec)["count"] != float64(2) {
			t.Errorf("expected count 2, got %v", parseJSON(t, rec)["count"])
		}
	})

	t.Run("bulk update rejects empty ids", func(t *testing.T) {
		r := setupTransferRouter(NewTransferHandler(&mockTransferService{}, &mockAuditService{}))

		rec := doRequest(r, "PATCH", expensesPath+"/bulk", `{"ids":[]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("bulk delete rejects malformed ids", func(t *testing.T) {
		r := setupTransferRouter(NewTransferHandler(&mockTransferService{}, &mockAuditService{}))

		rec := doRequest(r, "DELETE", expensesPath+"/bulk", `{"ids":["nope"]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("bulk delete propagates missing transfer", func(t *testing.T) {
		svc := &mockTransferService{
			bulkDeleteTransfersFn: func(_ services.Actor, _ string, _ models.TransferType, _ []string) (int64, error) {
				return 0, apperrors.ErrTransferNotFound
			},
		}
		r := setupTransferRouter(NewTransferHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "DELETE", expensesPath+"/bulk", `{"ids":["`+testOtherID+`"]}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestTransferHandler_DepositBalance(t *testing.T) {
	balancePath := "/budgets/" + testBudgetID + "/deposits/" + testOtherID + "/balance"

	t.Run("returns summed value", func(t *testing.T) {
		var gotType models.TransferType
		var gotPeriod *string
		svc := &mockTransferService{
			depositBalanceFn: func(_ services.Actor, _, _ string, periodID *string, tt models.TransferType) (decimal.Decimal, error) {
				gotType, gotPeriod = tt, periodID
				return decimal.RequireFromString("42.10"), nil
			},
		}
		r := setupTransferRouter(NewTransferHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", balancePath+"?transfer_type=2&period="+testUserID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotType != models.TransferTypeExpense {
			t.Errorf("expected expense, got %v", gotType)
		}
		if gotPeriod == nil || *gotPeriod != testUserID {
			t.Errorf("expected period %s, got %v", testUserID, gotPeriod)
		}
		body := parseJSON(t, rec)
		if body["balance"] != "42.1" {
			t.Errorf("expected balance 42.1, got %v", body["balance"])
		}
	})

	t.Run("requires transfer type", func(t *testing.T) {
		r := setupTransferRouter(NewTransferHandler(&mockTransferService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", balancePath, "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects unknown transfer type", func(t *testing.T) {
		r := setupTransferRouter(NewTransferHandler(&mockTransferService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", balancePath+"?transfer_type=4", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
