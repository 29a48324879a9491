package services

import (
	"errors"
	"testing"

	apperrors "budgetory/internal/errors"
	"budgetory/internal/models"
	"budgetory/internal/pagination"
	"budgetory/internal/testutil"
)

func expenseInput(name string, ownerID *string) CategoryInput {
	return CategoryInput{
		Name:         name,
		CategoryType: models.CategoryTypeExpense,
		Priority:     models.CategoryPriorityMostImportant,
		OwnerID:      ownerID,
	}
}

func TestCreateCategory(t *testing.T) {
	t.Run("common", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewCategoryService(f.db, f.scope)

		category, err := svc.CreateCategory(f.actor, f.budget.ID, expenseInput("Food", nil))
		testutil.AssertNoError(t, err)

		if category.IsPersonal() {
			t.Error("expected a common category")
		}
		if !category.IsActive {
			t.Error("expected category to be active by default")
		}
	})

	t.Run("inactive", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewCategoryService(f.db, f.scope)

		in := expenseInput("Food", nil)
		in.IsActive = testutil.Ptr(false)
		category, err := svc.CreateCategory(f.actor, f.budget.ID, in)
		testutil.AssertNoError(t, err)

		reloaded, err := svc.GetCategoryByID(f.actor, f.budget.ID, category.ID)
		testutil.AssertNoError(t, err)
		if reloaded.IsActive {
			t.Error("expected stored category to be inactive")
		}
	})

	t.Run("duplicate_common", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewCategoryService(f.db, f.scope)

		_, err := svc.CreateCategory(f.actor, f.budget.ID, expenseInput("Food", nil))
		testutil.AssertNoError(t, err)

		_, err = svc.CreateCategory(f.actor, f.budget.ID, expenseInput("Food", nil))
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY")

		var appErr *apperrors.AppError
		errors.As(err, &appErr)
		if appErr.Message != "Common Expense category with given name already exists in Budget." {
			t.Errorf("unexpected message %q", appErr.Message)
		}
	})

	t.Run("duplicate_personal", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewCategoryService(f.db, f.scope)

		_, err := svc.CreateCategory(f.actor, f.budget.ID, expenseInput("Food", &f.owner.ID))
		testutil.AssertNoError(t, err)

		_, err = svc.CreateCategory(f.actor, f.budget.ID, expenseInput("Food", &f.owner.ID))
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY")

		var appErr *apperrors.AppError
		errors.As(err, &appErr)
		if appErr.Message != "Personal Expense category with given name already exists in Budget." {
			t.Errorf("unexpected message %q", appErr.Message)
		}
	})

	t.Run("same_name_other_namespace", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewCategoryService(f.db, f.scope)
		member := f.member(t)

		_, err := svc.CreateCategory(f.actor, f.budget.ID, expenseInput("Food", nil))
		testutil.AssertNoError(t, err)
		_, err = svc.CreateCategory(f.actor, f.budget.ID, expenseInput("Food", &f.owner.ID))
		testutil.AssertNoError(t, err)
		_, err = svc.CreateCategory(f.actor, f.budget.ID, expenseInput("Food", &member.UserID))
		testutil.AssertNoError(t, err)
		_, err = svc.CreateCategory(f.actor, f.budget.ID, CategoryInput{
			Name:         "Food",
			CategoryType: models.CategoryTypeIncome,
			Priority:     models.CategoryPriorityRegular,
		})
		testutil.AssertNoError(t, err)
	})

	t.Run("priority_outside_type", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewCategoryService(f.db, f.scope)

		_, err := svc.CreateCategory(f.actor, f.budget.ID, CategoryInput{
			Name:         "Salary",
			CategoryType: models.CategoryTypeIncome,
			Priority:     models.CategoryPriorityDebts,
		})
		testutil.AssertAppError(t, err, "INVALID_PRIORITY")
	})

	t.Run("owner_outside_budget", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewCategoryService(f.db, f.scope)
		outsider := f.outsider(t)

		_, err := svc.CreateCategory(f.actor, f.budget.ID, expenseInput("Food", &outsider.UserID))
		testutil.AssertAppError(t, err, "INVALID_OWNER")
	})
}

func TestGetBudgetCategories(t *testing.T) {
	f := newBudgetFixture(t)
	svc := NewCategoryService(f.db, f.scope)

	_, err := svc.CreateCategory(f.actor, f.budget.ID, expenseInput("Groceries", nil))
	testutil.AssertNoError(t, err)
	_, err = svc.CreateCategory(f.actor, f.budget.ID, expenseInput("Fuel", &f.owner.ID))
	testutil.AssertNoError(t, err)
	_, err = svc.CreateCategory(f.actor, f.budget.ID, CategoryInput{
		Name: "Salary", CategoryType: models.CategoryTypeIncome, Priority: models.CategoryPriorityRegular,
	})
	testutil.AssertNoError(t, err)

	tests := []struct {
		name   string
		filter CategoryFilter
		want   int64
	}{
		{"all", CategoryFilter{}, 3},
		{"name_case_insensitive", CategoryFilter{Name: "GROC"}, 1},
		{"type", CategoryFilter{CategoryType: testutil.Ptr(models.CategoryTypeIncome)}, 1},
		{"owner", CategoryFilter{OwnerID: &f.owner.ID}, 1},
		{"common_only", CategoryFilter{CommonOnly: true}, 2},
		{"priority", CategoryFilter{Priority: testutil.Ptr(models.CategoryPriorityMostImportant)}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.GetBudgetCategories(f.actor, f.budget.ID, pagination.PageRequest{}, tt.filter)
			testutil.AssertNoError(t, err)
			if result.TotalItems != tt.want {
				t.Errorf("expected %d categories, got %d", tt.want, result.TotalItems)
			}
		})
	}

	t.Run("ordering", func(t *testing.T) {
		result, err := svc.GetBudgetCategories(f.actor, f.budget.ID, pagination.PageRequest{Ordering: "-name"}, CategoryFilter{})
		testutil.AssertNoError(t, err)
		if result.Data[0].Name != "Salary" {
			t.Errorf("expected Salary first, got %s", result.Data[0].Name)
		}
	})
}

func TestUpdateCategory(t *testing.T) {
	t.Run("personal_by_other_member", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewCategoryService(f.db, f.scope)
		category := testutil.CreateTestPersonalCategory(t, f.db, f.budget.ID, models.CategoryTypeExpense, &f.owner.ID)

		name := "Mine now"
		_, err := svc.UpdateCategory(f.member(t), f.budget.ID, category.ID, CategoryUpdate{Name: &name})
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("personal_by_staff", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewCategoryService(f.db, f.scope)
		category := testutil.CreateTestPersonalCategory(t, f.db, f.budget.ID, models.CategoryTypeExpense, &f.owner.ID)
		staff := f.member(t)
		staff.IsStaff = true

		name := "Renamed"
		updated, err := svc.UpdateCategory(staff, f.budget.ID, category.ID, CategoryUpdate{Name: &name})
		testutil.AssertNoError(t, err)
		if updated.Name != "Renamed" {
			t.Errorf("expected name Renamed, got %s", updated.Name)
		}
	})

	t.Run("rename_to_existing", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewCategoryService(f.db, f.scope)
		first := testutil.CreateTestCategory(t, f.db, f.budget.ID, models.CategoryTypeExpense)
		second := testutil.CreateTestCategory(t, f.db, f.budget.ID, models.CategoryTypeExpense)

		_, err := svc.UpdateCategory(f.actor, f.budget.ID, second.ID, CategoryUpdate{Name: &first.Name})
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY")

		_, err = svc.UpdateCategory(f.actor, f.budget.ID, first.ID, CategoryUpdate{Name: &first.Name})
		testutil.AssertNoError(t, err)
	})

	t.Run("priority_outside_type", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewCategoryService(f.db, f.scope)
		category := testutil.CreateTestCategory(t, f.db, f.budget.ID, models.CategoryTypeExpense)

		_, err := svc.UpdateCategory(f.actor, f.budget.ID, category.ID,
			CategoryUpdate{Priority: testutil.Ptr(models.CategoryPriorityRegular)})
		testutil.AssertAppError(t, err, "INVALID_PRIORITY")
	})
}

func TestDeleteCategory(t *testing.T) {
	t.Run("in_use", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewCategoryService(f.db, f.scope)
		period := f.january(t, models.PeriodStatusDraft)
		category := testutil.CreateTestCategory(t, f.db, f.budget.ID, models.CategoryTypeExpense)
		entity := testutil.CreateTestEntity(t, f.db, f.budget.ID)
		testutil.CreateTestTransfer(t, f.db, period, models.TransferTypeExpense, "5", &category.ID, entity.ID, nil)

		err := svc.DeleteCategory(f.actor, f.budget.ID, category.ID)
		testutil.AssertAppError(t, err, "CATEGORY_IN_USE")
	})

	t.Run("removes_predictions", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewCategoryService(f.db, f.scope)
		period := f.january(t, models.PeriodStatusDraft)
		category := testutil.CreateTestCategory(t, f.db, f.budget.ID, models.CategoryTypeExpense)
		testutil.CreateTestPrediction(t, f.db, period.ID, category.ID, "100")

		testutil.AssertNoError(t, svc.DeleteCategory(f.actor, f.budget.ID, category.ID))

		_, err := svc.GetCategoryByID(f.actor, f.budget.ID, category.ID)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")

		var predictions int64
		f.db.Model(&models.ExpensePrediction{}).Count(&predictions)
		if predictions != 0 {
			t.Errorf("expected predictions to be deleted, got %d", predictions)
		}
	})
}
