package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"budgetory/internal/models"
	"budgetory/internal/testutil"
)

// budgetFixture is a budget owned by a fresh user, shared by most service tests.
type budgetFixture struct {
	db     *gorm.DB
	scope  ScopeServicer
	owner  *models.User
	actor  Actor
	budget *models.Budget
}

func newBudgetFixture(t *testing.T) *budgetFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	owner := testutil.CreateTestUser(t, db)
	return &budgetFixture{
		db:     db,
		scope:  NewScopeService(db),
		owner:  owner,
		actor:  Actor{UserID: owner.ID},
		budget: testutil.CreateTestBudget(t, db, owner.ID),
	}
}

// member adds a new user to the budget and returns it as an actor.
func (f *budgetFixture) member(t *testing.T) Actor {
	t.Helper()
	user := testutil.CreateTestUser(t, f.db)
	testutil.AddTestMember(t, f.db, f.budget.ID, user.ID)
	return Actor{UserID: user.ID}
}

// outsider returns an actor without access to the budget.
func (f *budgetFixture) outsider(t *testing.T) Actor {
	t.Helper()
	return Actor{UserID: testutil.CreateTestUser(t, f.db).ID}
}

func (f *budgetFixture) january(t *testing.T, status models.PeriodStatus) *models.Period {
	t.Helper()
	return testutil.CreateTestPeriod(t, f.db, f.budget.ID,
		testutil.Date(2024, time.January, 1), testutil.Date(2024, time.January, 31), status)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
