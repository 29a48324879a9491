package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"budgetory/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Username: fmt.Sprintf("user%d", nextID()),
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestStaffUser creates a staff user.
func CreateTestStaffUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := CreateTestUser(t, db)
	if err := db.Model(user).Update("is_staff", true).Error; err != nil {
		t.Fatalf("failed to promote test user: %v", err)
	}
	user.IsStaff = true
	return user
}

// CreateTestBudget creates a budget owned by ownerID. The owner is recorded
// as a member as well.
func CreateTestBudget(t *testing.T, db *gorm.DB, ownerID string) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		OwnerID:  ownerID,
		Name:     fmt.Sprintf("Test Budget %d", nextID()),
		Currency: "PLN",
	}
	if err := db.Omit("Members").Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	AddTestMember(t, db, budget.ID, ownerID)
	return budget
}

// AddTestMember grants userID access to the budget.
func AddTestMember(t *testing.T, db *gorm.DB, budgetID, userID string) {
	t.Helper()

	row := map[string]interface{}{"budget_id": budgetID, "user_id": userID}
	if err := db.Table("budget_members").Create(row).Error; err != nil {
		t.Fatalf("failed to add test member: %v", err)
	}
}

// CreateTestWallet creates a wallet in the budget.
func CreateTestWallet(t *testing.T, db *gorm.DB, budgetID string) *models.Wallet {
	t.Helper()

	wallet := &models.Wallet{
		BudgetID: budgetID,
		Name:     fmt.Sprintf("Test Wallet %d", nextID()),
		Currency: "PLN",
	}
	if err := db.Create(wallet).Error; err != nil {
		t.Fatalf("failed to create test wallet: %v", err)
	}
	return wallet
}

// CreateTestPeriod creates a period covering [start, end] with the given status.
func CreateTestPeriod(t *testing.T, db *gorm.DB, budgetID string, start, end time.Time, status models.PeriodStatus) *models.Period {
	t.Helper()
	return CreateTestPeriodAfter(t, db, budgetID, start, end, status, nil)
}

// CreateTestPeriodAfter creates a period linked to the previous one.
func CreateTestPeriodAfter(t *testing.T, db *gorm.DB, budgetID string, start, end time.Time, status models.PeriodStatus, previous *models.Period) *models.Period {
	t.Helper()

	period := &models.Period{
		BudgetID:  budgetID,
		Name:      fmt.Sprintf("Test Period %d", nextID()),
		DateStart: models.DateOnly(start),
		DateEnd:   models.DateOnly(end),
		Status:    status,
	}
	if previous != nil {
		period.PreviousPeriodID = &previous.ID
	}
	if err := db.Create(period).Error; err != nil {
		t.Fatalf("failed to create test period: %v", err)
	}
	return period
}

// CreateTestCategory creates a common category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, budgetID string, categoryType models.CategoryType) *models.TransferCategory {
	t.Helper()
	return CreateTestPersonalCategory(t, db, budgetID, categoryType, nil)
}

// CreateTestPersonalCategory creates a category owned by ownerID, or a
// common one when ownerID is nil.
func CreateTestPersonalCategory(t *testing.T, db *gorm.DB, budgetID string, categoryType models.CategoryType, ownerID *string) *models.TransferCategory {
	t.Helper()

	name := fmt.Sprintf("Test Category %d", nextID())
	var category *models.TransferCategory
	if categoryType == models.CategoryTypeIncome {
		category = models.NewIncomeCategory(budgetID, name, models.CategoryPriorityRegular)
	} else {
		category = models.NewExpenseCategory(budgetID, name, models.CategoryPriorityMostImportant)
	}
	category.OwnerID = ownerID
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestEntity creates a plain entity in the budget.
func CreateTestEntity(t *testing.T, db *gorm.DB, budgetID string) *models.Entity {
	t.Helper()

	entity := &models.Entity{
		BudgetID: budgetID,
		Name:     fmt.Sprintf("Test Entity %d", nextID()),
		IsActive: true,
	}
	if err := db.Create(entity).Error; err != nil {
		t.Fatalf("failed to create test entity: %v", err)
	}
	return entity
}

// CreateTestDeposit creates a daily expenses deposit in the budget.
func CreateTestDeposit(t *testing.T, db *gorm.DB, budgetID string) *models.Entity {
	t.Helper()

	deposit := models.NewDeposit(budgetID, fmt.Sprintf("Test Deposit %d", nextID()), models.DepositTypeDailyExpenses, nil)
	if err := db.Create(deposit).Error; err != nil {
		t.Fatalf("failed to create test deposit: %v", err)
	}
	return deposit
}

// CreateTestTransfer records a transfer dated at the start of the period.
func CreateTestTransfer(t *testing.T, db *gorm.DB, period *models.Period, transferType models.TransferType, value string, categoryID *string, entityID string, depositID *string) *models.Transfer {
	t.Helper()

	transfer := &models.Transfer{
		BudgetID:     period.BudgetID,
		TransferType: transferType,
		Name:         fmt.Sprintf("Test Transfer %d", nextID()),
		Value:        decimal.RequireFromString(value),
		Date:         period.DateStart,
		PeriodID:     period.ID,
		CategoryID:   categoryID,
		EntityID:     entityID,
		DepositID:    depositID,
	}
	if err := db.Create(transfer).Error; err != nil {
		t.Fatalf("failed to create test transfer: %v", err)
	}
	return transfer
}

// CreateTestPrediction plans the given amount for the category in the period.
func CreateTestPrediction(t *testing.T, db *gorm.DB, periodID, categoryID, plan string) *models.ExpensePrediction {
	t.Helper()

	prediction := &models.ExpensePrediction{
		PeriodID:    periodID,
		CategoryID:  categoryID,
		CurrentPlan: decimal.RequireFromString(plan),
	}
	if err := db.Create(prediction).Error; err != nil {
		t.Fatalf("failed to create test prediction: %v", err)
	}
	return prediction
}
