package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "budgetory/internal/errors"
	"budgetory/internal/models"
	"budgetory/internal/pagination"
	"budgetory/internal/services"
)

// --- mock budget service ---

type mockBudgetService struct {
	createBudgetFn   func(actor services.Actor, in services.BudgetInput) (*models.Budget, error)
	getUserBudgetsFn func(actor services.Actor, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	getBudgetByIDFn  func(actor services.Actor, budgetID string) (*models.Budget, error)
	updateBudgetFn   func(actor services.Actor, budgetID string, upd services.BudgetUpdate) (*models.Budget, error)
	deleteBudgetFn   func(actor services.Actor, budgetID string) error
}

func (m *mockBudgetService) CreateBudget(actor services.Actor, in services.BudgetInput) (*models.Budget, error) {
	if m.createBudgetFn != nil {
		return m.createBudgetFn(actor, in)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) GetUserBudgets(actor services.Actor, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	if m.getUserBudgetsFn != nil {
		return m.getUserBudgetsFn(actor, page)
	}
	resp := pagination.NewPageResponse([]models.Budget{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockBudgetService) GetBudgetByID(actor services.Actor, budgetID string) (*models.Budget, error) {
	if m.getBudgetByIDFn != nil {
		return m.getBudgetByIDFn(actor, budgetID)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) UpdateBudget(actor services.Actor, budgetID string, upd services.BudgetUpdate) (*models.Budget, error) {
	if m.updateBudgetFn != nil {
		return m.updateBudgetFn(actor, budgetID, upd)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) DeleteBudget(actor services.Actor, budgetID string) error {
	if m.deleteBudgetFn != nil {
		return m.deleteBudgetFn(actor, budgetID)
	}
	return nil
}

var _ services.BudgetServicer = (*mockBudgetService)(nil)

func setupBudgetRouter(handler *BudgetHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/budgets", handler.CreateBudget)
	auth.GET("/budgets", handler.GetBudgets)
	auth.GET("/budgets/:budget_id", handler.GetBudget)
	auth.PUT("/budgets/:budget_id", handler.UpdateBudget)
	auth.DELETE("/budgets/:budget_id", handler.DeleteBudget)
	return r
}

func TestBudgetHandler_CreateBudget(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var got services.BudgetInput
		svc := &mockBudgetService{
			createBudgetFn: func(actor services.Actor, in services.BudgetInput) (*models.Budget, error) {
				got = in
				return &models.Budget{
					Base:     models.Base{ID: testBudgetID},
					OwnerID:  actor.UserID,
					Name:     in.Name,
					Currency: in.Currency,
				}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/budgets",
			`{"name":"Home","currency":"PLN","members":["`+testOtherID+`"]}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		budget := parseJSON(t, rec)["budget"].(map[string]interface{})
		if budget["owner_id"] != testUserID {
			t.Errorf("expected owner %s, got %v", testUserID, budget["owner_id"])
		}
		if len(got.MemberIDs) != 1 || got.MemberIDs[0] != testOtherID {
			t.Errorf("expected members [%s], got %v", testOtherID, got.MemberIDs)
		}
	})

	t.Run("returns 400 on missing name", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/budgets", `{"currency":"PLN"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on unknown currency", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/budgets", `{"name":"Home","currency":"XYZ1"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on malformed member id", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/budgets", `{"name":"Home","currency":"PLN","members":["abc"]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on duplicate name", func(t *testing.T) {
		svc := &mockBudgetService{
			createBudgetFn: func(_ services.Actor, _ services.BudgetInput) (*models.Budget, error) {
				return nil, apperrors.ErrDuplicateBudget
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/budgets", `{"name":"Home","currency":"PLN"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_BUDGET")
	})
}

func TestBudgetHandler_GetBudgets(t *testing.T) {
	t.Run("passes pagination", func(t *testing.T) {
		var gotPage pagination.PageRequest
		svc := &mockBudgetService{
			getUserBudgetsFn: func(_ services.Actor, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
				gotPage = page
				resp := pagination.NewPageResponse([]models.Budget{{Name: "Home"}}, page.Page, page.PageSize, 1)
				return &resp, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budgets?page=2&page_size=5", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotPage.Page != 2 || gotPage.PageSize != 5 {
			t.Errorf("expected page 2 size 5, got %d/%d", gotPage.Page, gotPage.PageSize)
		}
	})
}

func TestBudgetHandler_GetBudget(t *testing.T) {
	t.Run("returns 400 on malformed id", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budgets/abc", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 403 for outsiders", func(t *testing.T) {
		svc := &mockBudgetService{
			getBudgetByIDFn: func(_ services.Actor, _ string) (*models.Budget, error) {
				return nil, apperrors.ErrForbidden
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID, "")

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("returns 404 on missing budget", func(t *testing.T) {
		svc := &mockBudgetService{
			getBudgetByIDFn: func(_ services.Actor, _ string) (*models.Budget, error) {
				return nil, apperrors.ErrBudgetNotFound
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_NOT_FOUND")
	})
}

func TestBudgetHandler_UpdateBudget(t *testing.T) {
	t.Run("leaves members untouched when omitted", func(t *testing.T) {
		var got services.BudgetUpdate
		svc := &mockBudgetService{
			updateBudgetFn: func(_ services.Actor, _ string, upd services.BudgetUpdate) (*models.Budget, error) {
				got = upd
				return &models.Budget{Name: *upd.Name}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/budgets/"+testBudgetID, `{"name":"Renamed"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.MemberIDs != nil {
			t.Errorf("expected nil members, got %v", got.MemberIDs)
		}
	})
}

func TestBudgetHandler_DeleteBudget(t *testing.T) {
	t.Run("returns 204 on success", func(t *testing.T) {
		var deleted string
		svc := &mockBudgetService{
			deleteBudgetFn: func(_ services.Actor, budgetID string) error {
				deleted = budgetID
				return nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/budgets/"+testBudgetID, "")

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if deleted != testBudgetID {
			t.Errorf("expected %s, got %s", testBudgetID, deleted)
		}
	})
}
