package services

import (
	"testing"

	"budgetory/internal/models"
	"budgetory/internal/testutil"
	"budgetory/internal/uuid"
)

func (f *forecastFixture) income(t *testing.T, period *models.Period, value string, depositID string) {
	t.Helper()
	testutil.CreateTestTransfer(t, f.db, period, models.TransferTypeIncome, value, nil, f.entity.ID, &depositID)
}

func (f *forecastFixture) createDeposit(t *testing.T, name string, depositType models.DepositType, ownerID *string) *models.Entity {
	t.Helper()
	deposit := models.NewDeposit(f.budget.ID, name, depositType, ownerID)
	if err := f.db.Create(deposit).Error; err != nil {
		t.Fatalf("failed to create deposit: %v", err)
	}
	return deposit
}

// seedFunds books January and February money on the common deposit.
func (f *forecastFixture) seedFunds(t *testing.T) {
	t.Helper()
	f.income(t, f.january, "1000", f.deposit.ID)
	f.expense(t, f.january, "300", &f.food.ID)
	f.income(t, f.february, "200", f.deposit.ID)
	f.expense(t, f.february, "150", &f.food.ID)
	testutil.CreateTestPrediction(t, f.db, f.february.ID, f.food.ID, "400")
}

func assertFunds(t *testing.T, got models.PeriodFunds, predictions, balance, expenses, leftForPredictions, leftForExpenses string) {
	t.Helper()
	testutil.AssertDecimal(t, "predictions sum", got.PredictionsSum, predictions)
	testutil.AssertDecimal(t, "period balance", got.PeriodBalance, balance)
	testutil.AssertDecimal(t, "period expenses", got.PeriodExpenses, expenses)
	testutil.AssertDecimal(t, "funds left for predictions", got.FundsLeftForPredictions, leftForPredictions)
	testutil.AssertDecimal(t, "funds left for expenses", got.FundsLeftForExpenses, leftForExpenses)
}

func TestDepositResults(t *testing.T) {
	t.Run("no_data", func(t *testing.T) {
		f := newForecastFixture(t)

		results, err := f.svc.DepositResults(f.actor, f.budget.ID, f.february.ID)
		testutil.AssertNoError(t, err)

		if len(results) != 1 {
			t.Fatalf("expected 1 deposit, got %d", len(results))
		}
		assertFunds(t, results[0].PeriodFunds, "0", "0", "0", "0", "0")
	})

	t.Run("balance_counts_earlier_expenses_only", func(t *testing.T) {
		f := newForecastFixture(t)
		f.seedFunds(t)

		results, err := f.svc.DepositResults(f.actor, f.budget.ID, f.february.ID)
		testutil.AssertNoError(t, err)

		if len(results) != 1 || results[0].DepositID != f.deposit.ID {
			t.Fatalf("expected the common deposit only, got %+v", results)
		}
		assertFunds(t, results[0].PeriodFunds, "400", "900", "150", "500", "250")
	})

	t.Run("first_period", func(t *testing.T) {
		f := newForecastFixture(t)
		f.seedFunds(t)

		results, err := f.svc.DepositResults(f.actor, f.budget.ID, f.january.ID)
		testutil.AssertNoError(t, err)

		assertFunds(t, results[0].PeriodFunds, "0", "1000", "300", "1000", "-300")
	})

	t.Run("daily_expenses_deposits_only", func(t *testing.T) {
		f := newForecastFixture(t)
		savings := f.createDeposit(t, "Savings", models.DepositTypeSavings, nil)
		f.income(t, f.january, "5000", savings.ID)

		results, err := f.svc.DepositResults(f.actor, f.budget.ID, f.february.ID)
		testutil.AssertNoError(t, err)

		for _, r := range results {
			if r.DepositID == savings.ID {
				t.Error("expected savings deposit to be left out")
			}
		}
	})

	t.Run("personal_deposit_pairs_with_owner_categories", func(t *testing.T) {
		f := newForecastFixture(t)
		f.seedFunds(t)
		member := f.member(t)
		personal := f.createDeposit(t, "A Personal", models.DepositTypeDailyExpenses, &member.UserID)
		hobby := testutil.CreateTestPersonalCategory(t, f.db, f.budget.ID, models.CategoryTypeExpense, &member.UserID)
		testutil.CreateTestPrediction(t, f.db, f.february.ID, hobby.ID, "50")
		f.income(t, f.january, "100", personal.ID)
		testutil.CreateTestTransfer(t, f.db, f.february, models.TransferTypeExpense, "20", &hobby.ID, f.entity.ID, &personal.ID)

		results, err := f.svc.DepositResults(f.actor, f.budget.ID, f.february.ID)
		testutil.AssertNoError(t, err)

		if len(results) != 2 {
			t.Fatalf("expected 2 deposits, got %d", len(results))
		}
		if results[0].DepositID != personal.ID {
			t.Fatalf("expected deposits ordered by name, got %s first", results[0].DepositName)
		}
		assertFunds(t, results[0].PeriodFunds, "50", "100", "20", "50", "30")
		assertFunds(t, results[1].PeriodFunds, "400", "900", "150", "500", "250")
	})

	t.Run("relocations_ignored", func(t *testing.T) {
		f := newForecastFixture(t)
		testutil.CreateTestTransfer(t, f.db, f.january, models.TransferTypeRelocation, "70", nil, f.entity.ID, &f.deposit.ID)

		results, err := f.svc.DepositResults(f.actor, f.budget.ID, f.february.ID)
		testutil.AssertNoError(t, err)

		assertFunds(t, results[0].PeriodFunds, "0", "0", "0", "0", "0")
	})

	t.Run("outsider", func(t *testing.T) {
		f := newForecastFixture(t)

		_, err := f.svc.DepositResults(f.outsider(t), f.budget.ID, f.february.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("unknown_period", func(t *testing.T) {
		f := newForecastFixture(t)

		_, err := f.svc.DepositResults(f.actor, f.budget.ID, uuid.New())
		testutil.AssertAppError(t, err, "PERIOD_NOT_FOUND")
	})
}

func TestUserResults(t *testing.T) {
	t.Run("common_row_first", func(t *testing.T) {
		f := newForecastFixture(t)
		f.seedFunds(t)

		results, err := f.svc.UserResults(f.actor, f.budget.ID, f.february.ID)
		testutil.AssertNoError(t, err)

		if len(results) != 2 {
			t.Fatalf("expected common row and owner row, got %d", len(results))
		}
		if results[0].UserID != nil || results[0].Username != models.CommonOwnerLabel {
			t.Errorf("expected common row first, got %+v", results[0])
		}
		assertFunds(t, results[0].PeriodFunds, "400", "900", "150", "500", "250")
		if results[1].UserID == nil || *results[1].UserID != f.owner.ID {
			t.Fatalf("expected owner row, got %+v", results[1])
		}
		assertFunds(t, results[1].PeriodFunds, "0", "0", "0", "0", "0")
	})

	t.Run("member_owned_money", func(t *testing.T) {
		f := newForecastFixture(t)
		f.seedFunds(t)
		member := f.member(t)
		personal := f.createDeposit(t, "Personal", models.DepositTypeDailyExpenses, &member.UserID)
		savings := f.createDeposit(t, "Personal Savings", models.DepositTypeSavings, &member.UserID)
		hobby := testutil.CreateTestPersonalCategory(t, f.db, f.budget.ID, models.CategoryTypeExpense, &member.UserID)
		testutil.CreateTestPrediction(t, f.db, f.february.ID, hobby.ID, "50")
		f.income(t, f.january, "100", personal.ID)
		f.income(t, f.january, "900", savings.ID)
		testutil.CreateTestTransfer(t, f.db, f.february, models.TransferTypeExpense, "20", &hobby.ID, f.entity.ID, &personal.ID)

		results, err := f.svc.UserResults(f.actor, f.budget.ID, f.february.ID)
		testutil.AssertNoError(t, err)

		if len(results) != 3 {
			t.Fatalf("expected 3 rows, got %d", len(results))
		}
		var found bool
		for _, r := range results {
			if r.UserID != nil && *r.UserID == member.UserID {
				found = true
				assertFunds(t, r.PeriodFunds, "50", "100", "20", "50", "30")
			}
		}
		if !found {
			t.Error("expected a row for the member")
		}
		assertFunds(t, results[0].PeriodFunds, "400", "900", "150", "500", "250")
	})

	t.Run("outsider", func(t *testing.T) {
		f := newForecastFixture(t)

		_, err := f.svc.UserResults(f.outsider(t), f.budget.ID, f.february.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})
}
