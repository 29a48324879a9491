package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budgetory/internal/models"
	"budgetory/internal/pagination"
	"budgetory/internal/testutil"
)

// forecastFixture has a closed January period followed by a draft February
// period, an expense category and a deposit.
type forecastFixture struct {
	*budgetFixture
	svc      PredictionServicer
	january  *models.Period
	february *models.Period
	food     *models.TransferCategory
	entity   *models.Entity
	deposit  *models.Entity
}

func newForecastFixture(t *testing.T) *forecastFixture {
	t.Helper()
	f := newBudgetFixture(t)
	january := f.january(t, models.PeriodStatusClosed)
	return &forecastFixture{
		budgetFixture: f,
		svc:           NewPredictionService(f.db, f.scope),
		january:       january,
		february: testutil.CreateTestPeriodAfter(t, f.db, f.budget.ID,
			testutil.Date(2024, time.February, 1), testutil.Date(2024, time.February, 29), models.PeriodStatusDraft, january),
		food:    testutil.CreateTestCategory(t, f.db, f.budget.ID, models.CategoryTypeExpense),
		entity:  testutil.CreateTestEntity(t, f.db, f.budget.ID),
		deposit: testutil.CreateTestDeposit(t, f.db, f.budget.ID),
	}
}

func (f *forecastFixture) expense(t *testing.T, period *models.Period, value string, categoryID *string) {
	t.Helper()
	testutil.CreateTestTransfer(t, f.db, period, models.TransferTypeExpense, value, categoryID, f.entity.ID, &f.deposit.ID)
}

func TestCategoryResult_noPreviousPeriod(t *testing.T) {
	f := newForecastFixture(t)
	testutil.CreateTestPrediction(t, f.db, f.january.ID, f.food.ID, "500")
	f.expense(t, f.january, "100", &f.food.ID)
	f.expense(t, f.january, "200", &f.food.ID)

	result, err := f.svc.CategoryResult(f.actor, f.budget.ID, f.january.ID, f.food.ID)
	testutil.AssertNoError(t, err)

	testutil.AssertDecimal(t, "current result", result.CurrentResult, "300")
	testutil.AssertDecimal(t, "previous funds left", result.PreviousFundsLeft, "0")
	testutil.AssertDecimal(t, "current funds left", result.CurrentFundsLeft, "200")
	testutil.AssertDecimal(t, "progress", *result.CurrentProgress, "60")
	if result.ProgressStatus != models.ProgressInPlannedRange {
		t.Errorf("expected IN_PLANNED_RANGE, got %d", result.ProgressStatus)
	}
	if result.ID == nil {
		t.Error("expected the prediction id on the result")
	}
}

func TestCategoryResult_carriesOverPreviousPeriod(t *testing.T) {
	f := newForecastFixture(t)
	testutil.CreateTestPrediction(t, f.db, f.january.ID, f.food.ID, "500")
	f.expense(t, f.january, "300", &f.food.ID)
	testutil.CreateTestPrediction(t, f.db, f.february.ID, f.food.ID, "400")
	f.expense(t, f.february, "450", &f.food.ID)

	result, err := f.svc.CategoryResult(f.actor, f.budget.ID, f.february.ID, f.food.ID)
	testutil.AssertNoError(t, err)

	testutil.AssertDecimal(t, "previous plan", result.PreviousPlan, "500")
	testutil.AssertDecimal(t, "previous result", result.PreviousResult, "300")
	testutil.AssertDecimal(t, "previous funds left", result.PreviousFundsLeft, "200")
	testutil.AssertDecimal(t, "current funds left", result.CurrentFundsLeft, "150")
	if result.ProgressStatus != models.ProgressOverused {
		t.Errorf("expected OVERUSED, got %d", result.ProgressStatus)
	}
}

func TestCategoryResult_withoutPrediction(t *testing.T) {
	f := newForecastFixture(t)
	f.expense(t, f.february, "25", &f.food.ID)

	result, err := f.svc.CategoryResult(f.actor, f.budget.ID, f.february.ID, f.food.ID)
	testutil.AssertNoError(t, err)

	if result.ID != nil {
		t.Error("expected no prediction id")
	}
	testutil.AssertDecimal(t, "current plan", result.CurrentPlan, "0")
	testutil.AssertDecimal(t, "current funds left", result.CurrentFundsLeft, "-25")
	if result.CurrentProgress != nil {
		t.Error("expected no progress without a plan")
	}
	if result.ProgressStatus != models.ProgressOverused {
		t.Errorf("expected OVERUSED, got %d", result.ProgressStatus)
	}
}

func TestCategoryResult_incomeCategory(t *testing.T) {
	f := newForecastFixture(t)
	salary := testutil.CreateTestCategory(t, f.db, f.budget.ID, models.CategoryTypeIncome)

	_, err := f.svc.CategoryResult(f.actor, f.budget.ID, f.february.ID, salary.ID)
	testutil.AssertAppError(t, err, "CATEGORY_TYPE_MISMATCH")
}

func TestUncategorizedResults(t *testing.T) {
	f := newForecastFixture(t)
	cash := testutil.CreateTestDeposit(t, f.db, f.budget.ID)
	f.expense(t, f.february, "40", nil)
	f.expense(t, f.february, "10", nil)
	f.expense(t, f.february, "99", &f.food.ID)
	testutil.CreateTestTransfer(t, f.db, f.february, models.TransferTypeExpense, "5", nil, f.entity.ID, &cash.ID)
	testutil.CreateTestTransfer(t, f.db, f.february, models.TransferTypeExpense, "7", nil, f.entity.ID, nil)
	f.expense(t, f.january, "20", nil)

	results, err := f.svc.UncategorizedResults(f.actor, f.budget.ID, f.february.ID, nil)
	testutil.AssertNoError(t, err)
	if len(results) != 2 {
		t.Fatalf("expected one row per deposit, got %d", len(results))
	}

	for _, r := range results {
		if r.CategoryID != nil || r.ID != nil {
			t.Error("expected uncategorized rows to have no category and no id")
		}
		if r.CategoryPriority != models.UncategorizedLabel {
			t.Errorf("expected priority label %q, got %q", models.UncategorizedLabel, r.CategoryPriority)
		}
		switch *r.DepositID {
		case f.deposit.ID:
			testutil.AssertDecimal(t, "current result", r.CurrentResult, "50")
			testutil.AssertDecimal(t, "previous result", r.PreviousResult, "20")
			testutil.AssertDecimal(t, "current funds left", r.CurrentFundsLeft, "-50")
			testutil.AssertDecimal(t, "previous funds left", r.PreviousFundsLeft, "-20")
			if r.CurrentProgress == nil || !r.CurrentProgress.IsZero() {
				t.Errorf("expected zero progress, got %v", r.CurrentProgress)
			}
		case cash.ID:
			testutil.AssertDecimal(t, "current result", r.CurrentResult, "5")
		default:
			t.Errorf("unexpected deposit %s", *r.DepositID)
		}
	}

	filtered, err := f.svc.UncategorizedResults(f.actor, f.budget.ID, f.february.ID, &cash.ID)
	testutil.AssertNoError(t, err)
	if len(filtered) != 1 || *filtered[0].DepositID != cash.ID {
		t.Errorf("expected only the cash deposit, got %d rows", len(filtered))
	}
}

func TestCreatePrediction(t *testing.T) {
	t.Run("draft_period", func(t *testing.T) {
		f := newForecastFixture(t)

		result, err := f.svc.CreatePrediction(f.actor, f.budget.ID, PredictionInput{
			PeriodID: f.february.ID, CategoryID: f.food.ID, CurrentPlan: dec("300"),
		})
		testutil.AssertNoError(t, err)

		if result.ID == nil {
			t.Fatal("expected a prediction id")
		}
		if result.InitialPlan.Valid {
			t.Error("expected no initial plan before activation")
		}
		if result.CategoryName != f.food.Name {
			t.Errorf("expected category name %s, got %s", f.food.Name, result.CategoryName)
		}
		if result.ProgressStatus != models.ProgressNotUsed {
			t.Errorf("expected NOT_USED, got %d", result.ProgressStatus)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		f := newForecastFixture(t)
		testutil.CreateTestPrediction(t, f.db, f.february.ID, f.food.ID, "100")

		_, err := f.svc.CreatePrediction(f.actor, f.budget.ID, PredictionInput{
			PeriodID: f.february.ID, CategoryID: f.food.ID, CurrentPlan: dec("300"),
		})
		testutil.AssertAppError(t, err, "DUPLICATE_PREDICTION")
	})

	t.Run("closed_period", func(t *testing.T) {
		f := newForecastFixture(t)

		_, err := f.svc.CreatePrediction(f.actor, f.budget.ID, PredictionInput{
			PeriodID: f.january.ID, CategoryID: f.food.ID, CurrentPlan: dec("300"),
		})
		testutil.AssertAppError(t, err, "PERIOD_NOT_DRAFT")
	})

	t.Run("income_category", func(t *testing.T) {
		f := newForecastFixture(t)
		salary := testutil.CreateTestCategory(t, f.db, f.budget.ID, models.CategoryTypeIncome)

		_, err := f.svc.CreatePrediction(f.actor, f.budget.ID, PredictionInput{
			PeriodID: f.february.ID, CategoryID: salary.ID, CurrentPlan: dec("300"),
		})
		testutil.AssertAppError(t, err, "CATEGORY_TYPE_MISMATCH")
	})

	for _, plan := range []string{"-1", "0", "0.004"} {
		t.Run("non_positive_plan_"+plan, func(t *testing.T) {
			f := newForecastFixture(t)

			_, err := f.svc.CreatePrediction(f.actor, f.budget.ID, PredictionInput{
				PeriodID: f.february.ID, CategoryID: f.food.ID, CurrentPlan: dec(plan),
			})
			testutil.AssertAppError(t, err, "INVALID_INPUT")
		})
	}

	t.Run("database_rejects_zero_plan", func(t *testing.T) {
		f := newForecastFixture(t)

		err := f.db.Create(&models.ExpensePrediction{
			PeriodID: f.february.ID, CategoryID: f.food.ID, CurrentPlan: decimal.Zero,
		}).Error
		if err == nil {
			t.Error("expected the plan check to reject a zero plan")
		}
	})

	t.Run("plan_rounds_up", func(t *testing.T) {
		f := newForecastFixture(t)

		result, err := f.svc.CreatePrediction(f.actor, f.budget.ID, PredictionInput{
			PeriodID: f.february.ID, CategoryID: f.food.ID, CurrentPlan: dec("0.005"),
		})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "current plan", result.CurrentPlan, "0.01")
	})
}

func TestUpdateAndDeletePrediction(t *testing.T) {
	t.Run("open_period", func(t *testing.T) {
		f := newForecastFixture(t)
		prediction := testutil.CreateTestPrediction(t, f.db, f.february.ID, f.food.ID, "100")

		result, err := f.svc.UpdatePrediction(f.actor, f.budget.ID, prediction.ID, PredictionUpdate{CurrentPlan: testutil.Ptr(dec("150"))})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "current plan", result.CurrentPlan, "150")

		testutil.AssertNoError(t, f.svc.DeletePrediction(f.actor, f.budget.ID, prediction.ID))
		_, err = f.svc.GetPredictionByID(f.actor, f.budget.ID, prediction.ID)
		testutil.AssertAppError(t, err, "PREDICTION_NOT_FOUND")
	})

	t.Run("non_positive_plan", func(t *testing.T) {
		f := newForecastFixture(t)
		prediction := testutil.CreateTestPrediction(t, f.db, f.february.ID, f.food.ID, "100")

		for _, plan := range []string{"0", "0.001"} {
			_, err := f.svc.UpdatePrediction(f.actor, f.budget.ID, prediction.ID, PredictionUpdate{CurrentPlan: testutil.Ptr(dec(plan))})
			testutil.AssertAppError(t, err, "INVALID_INPUT")
		}

		result, err := f.svc.GetPredictionByID(f.actor, f.budget.ID, prediction.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "current plan", result.CurrentPlan, "100")
	})

	t.Run("closed_period", func(t *testing.T) {
		f := newForecastFixture(t)
		prediction := testutil.CreateTestPrediction(t, f.db, f.january.ID, f.food.ID, "100")

		_, err := f.svc.UpdatePrediction(f.actor, f.budget.ID, prediction.ID, PredictionUpdate{CurrentPlan: testutil.Ptr(dec("150"))})
		testutil.AssertAppError(t, err, "PERIOD_CLOSED")

		err = f.svc.DeletePrediction(f.actor, f.budget.ID, prediction.ID)
		testutil.AssertAppError(t, err, "PERIOD_CLOSED")
	})

	t.Run("other_budget", func(t *testing.T) {
		f := newForecastFixture(t)
		prediction := testutil.CreateTestPrediction(t, f.db, f.february.ID, f.food.ID, "100")
		other := testutil.CreateTestBudget(t, f.db, f.owner.ID)

		_, err := f.svc.GetPredictionByID(f.actor, other.ID, prediction.ID)
		testutil.AssertAppError(t, err, "PREDICTION_NOT_FOUND")
	})
}

func TestGetBudgetPredictions(t *testing.T) {
	f := newForecastFixture(t)
	personal := testutil.CreateTestPersonalCategory(t, f.db, f.budget.ID, models.CategoryTypeExpense, &f.owner.ID)
	testutil.CreateTestPrediction(t, f.db, f.january.ID, f.food.ID, "500")
	testutil.CreateTestPrediction(t, f.db, f.february.ID, f.food.ID, "400")
	testutil.CreateTestPrediction(t, f.db, f.february.ID, personal.ID, "50")
	f.expense(t, f.february, "450", &f.food.ID)

	tests := []struct {
		name   string
		filter PredictionFilter
		want   int64
	}{
		{"all", PredictionFilter{}, 3},
		{"period", PredictionFilter{PeriodID: &f.february.ID}, 2},
		{"common_owner", PredictionFilter{OwnerID: testutil.Ptr(CommonOwnerFilter)}, 2},
		{"personal_owner", PredictionFilter{OwnerID: &f.owner.ID}, 1},
		{"plan_range", PredictionFilter{CurrentPlanMin: testutil.Ptr(dec("100")), CurrentPlanMax: testutil.Ptr(dec("450"))}, 1},
		{"overused", PredictionFilter{ProgressStatus: testutil.Ptr(models.ProgressOverused)}, 1},
		{"not_used", PredictionFilter{ProgressStatus: testutil.Ptr(models.ProgressNotUsed)}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := f.svc.GetBudgetPredictions(f.actor, f.budget.ID, pagination.PageRequest{}, tt.filter)
			testutil.AssertNoError(t, err)
			if result.TotalItems != tt.want {
				t.Errorf("expected %d predictions, got %d", tt.want, result.TotalItems)
			}
		})
	}

	t.Run("outsider", func(t *testing.T) {
		_, err := f.svc.GetBudgetPredictions(f.outsider(t), f.budget.ID, pagination.PageRequest{}, PredictionFilter{})
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})
}

func TestCopyFromPreviousPeriod(t *testing.T) {
	t.Run("copies_plans", func(t *testing.T) {
		f := newForecastFixture(t)
		other := testutil.CreateTestCategory(t, f.db, f.budget.ID, models.CategoryTypeExpense)
		testutil.CreateTestPrediction(t, f.db, f.january.ID, f.food.ID, "500")
		testutil.CreateTestPrediction(t, f.db, f.january.ID, other.ID, "80")

		n, err := f.svc.CopyFromPreviousPeriod(f.actor, f.budget.ID, f.february.ID)
		testutil.AssertNoError(t, err)
		if n != 2 {
			t.Errorf("expected 2 copied predictions, got %d", n)
		}

		result, err := f.svc.CategoryResult(f.actor, f.budget.ID, f.february.ID, f.food.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "current plan", result.CurrentPlan, "500")
		if result.InitialPlan.Valid {
			t.Error("expected copied prediction to have no initial plan")
		}

		_, err = f.svc.CopyFromPreviousPeriod(f.actor, f.budget.ID, f.february.ID)
		testutil.AssertAppError(t, err, "PREDICTIONS_EXIST")
	})

	t.Run("nothing_to_copy", func(t *testing.T) {
		f := newForecastFixture(t)

		_, err := f.svc.CopyFromPreviousPeriod(f.actor, f.budget.ID, f.february.ID)
		testutil.AssertAppError(t, err, "NO_PREVIOUS_PREDICTIONS")
	})

	t.Run("no_previous_period", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewPredictionService(f.db, f.scope)
		period := f.january(t, models.PeriodStatusDraft)

		_, err := svc.CopyFromPreviousPeriod(f.actor, f.budget.ID, period.ID)
		testutil.AssertAppError(t, err, "NO_PREVIOUS_PERIOD")
	})

	t.Run("period_not_draft", func(t *testing.T) {
		f := newForecastFixture(t)

		_, err := f.svc.CopyFromPreviousPeriod(f.actor, f.budget.ID, f.january.ID)
		testutil.AssertAppError(t, err, "PERIOD_NOT_DRAFT")
	})
}
