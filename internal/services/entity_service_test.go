package services

import (
	"errors"
	"testing"

	apperrors "budgetory/internal/errors"
	"budgetory/internal/models"
	"budgetory/internal/pagination"
	"budgetory/internal/testutil"
)

func TestCreateEntity(t *testing.T) {
	t.Run("plain_entity", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewEntityService(f.db, f.scope)

		entity, err := svc.CreateEntity(f.actor, f.budget.ID, EntityInput{Name: "Grocery store"})
		testutil.AssertNoError(t, err)
		if entity.IsDeposit {
			t.Error("expected a plain entity")
		}
		if entity.DepositType != nil {
			t.Error("expected no deposit type on a plain entity")
		}
	})

	t.Run("is_deposit_builds_deposit", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewEntityService(f.db, f.scope)

		deposit, err := svc.CreateEntity(f.actor, f.budget.ID, EntityInput{Name: "Bank", IsDeposit: true})
		testutil.AssertNoError(t, err)
		if !deposit.IsDeposit {
			t.Error("expected a deposit")
		}
		if deposit.DepositType == nil || *deposit.DepositType != models.DepositTypeDailyExpenses {
			t.Errorf("expected daily expenses deposit type, got %v", deposit.DepositType)
		}
	})

	t.Run("deposit_fields_on_entity", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewEntityService(f.db, f.scope)

		_, err := svc.CreateEntity(f.actor, f.budget.ID, EntityInput{
			Name:        "Shop",
			DepositType: testutil.Ptr(models.DepositTypeSavings),
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("duplicate_name_ignores_case", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewEntityService(f.db, f.scope)

		_, err := svc.CreateEntity(f.actor, f.budget.ID, EntityInput{Name: "Shop"})
		testutil.AssertNoError(t, err)

		_, err = svc.CreateEntity(f.actor, f.budget.ID, EntityInput{Name: "SHOP"})
		testutil.AssertAppError(t, err, "DUPLICATE_ENTITY")

		var appErr *apperrors.AppError
		errors.As(err, &appErr)
		if appErr.Message != "Entity with given name already exists in Budget." {
			t.Errorf("unexpected message %q", appErr.Message)
		}
	})

	t.Run("entity_and_deposit_share_name", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewEntityService(f.db, f.scope)

		_, err := svc.CreateEntity(f.actor, f.budget.ID, EntityInput{Name: "Bank"})
		testutil.AssertNoError(t, err)
		_, err = svc.CreateDeposit(f.actor, f.budget.ID, EntityInput{Name: "Bank"})
		testutil.AssertNoError(t, err)

		_, err = svc.CreateDeposit(f.actor, f.budget.ID, EntityInput{Name: "bank"})
		testutil.AssertAppError(t, err, "DUPLICATE_ENTITY")
		var appErr *apperrors.AppError
		errors.As(err, &appErr)
		if appErr.Message != "Deposit with given name already exists in Budget." {
			t.Errorf("unexpected message %q", appErr.Message)
		}
	})

	t.Run("deposit_twice_through_entity_path", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewEntityService(f.db, f.scope)

		_, err := svc.CreateEntity(f.actor, f.budget.ID, EntityInput{Name: "Savings", IsDeposit: true})
		testutil.AssertNoError(t, err)

		_, err = svc.CreateEntity(f.actor, f.budget.ID, EntityInput{Name: "savings", IsDeposit: true})
		testutil.AssertAppError(t, err, "DUPLICATE_ENTITY")
		var appErr *apperrors.AppError
		errors.As(err, &appErr)
		if appErr.Message != "Deposit with given name already exists in Budget." {
			t.Errorf("unexpected message %q", appErr.Message)
		}
	})

	t.Run("deposit_owner_outside_budget", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewEntityService(f.db, f.scope)
		outsider := f.outsider(t)

		_, err := svc.CreateDeposit(f.actor, f.budget.ID, EntityInput{Name: "Wallet", OwnerID: &outsider.UserID})
		testutil.AssertAppError(t, err, "INVALID_OWNER")
	})
}

func TestGetBudgetDeposits(t *testing.T) {
	f := newBudgetFixture(t)
	svc := NewEntityService(f.db, f.scope)
	period := f.january(t, models.PeriodStatusActive)
	deposit := testutil.CreateTestDeposit(t, f.db, f.budget.ID)
	empty := testutil.CreateTestDeposit(t, f.db, f.budget.ID)
	entity := testutil.CreateTestEntity(t, f.db, f.budget.ID)

	testutil.CreateTestTransfer(t, f.db, period, models.TransferTypeIncome, "1000.00", nil, entity.ID, &deposit.ID)
	testutil.CreateTestTransfer(t, f.db, period, models.TransferTypeExpense, "250.25", nil, entity.ID, &deposit.ID)
	testutil.CreateTestTransfer(t, f.db, period, models.TransferTypeExpense, "49.75", nil, entity.ID, &deposit.ID)

	result, err := svc.GetBudgetDeposits(f.actor, f.budget.ID, pagination.PageRequest{}, EntityFilter{})
	testutil.AssertNoError(t, err)
	if result.TotalItems != 2 {
		t.Fatalf("expected 2 deposits, got %d", result.TotalItems)
	}
	for _, d := range result.Data {
		switch d.ID {
		case deposit.ID:
			testutil.AssertDecimal(t, "balance", d.Balance, "700")
		case empty.ID:
			testutil.AssertDecimal(t, "balance", d.Balance, "0")
		}
	}

	all, err := svc.GetBudgetEntities(f.actor, f.budget.ID, pagination.PageRequest{}, EntityFilter{})
	testutil.AssertNoError(t, err)
	if all.TotalItems != 3 {
		t.Errorf("expected entities and deposits together, got %d", all.TotalItems)
	}
}

func TestUpdateEntity(t *testing.T) {
	t.Run("rename_excludes_self", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewEntityService(f.db, f.scope)
		entity := testutil.CreateTestEntity(t, f.db, f.budget.ID)

		upper := "NEW NAME"
		updated, err := svc.UpdateEntity(f.actor, f.budget.ID, entity.ID, EntityUpdate{Name: &upper})
		testutil.AssertNoError(t, err)

		lower := "new name"
		updated, err = svc.UpdateEntity(f.actor, f.budget.ID, updated.ID, EntityUpdate{Name: &lower})
		testutil.AssertNoError(t, err)
		if updated.Name != "new name" {
			t.Errorf("expected name new name, got %s", updated.Name)
		}
	})

	t.Run("personal_deposit_by_other_member", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewEntityService(f.db, f.scope)
		deposit, err := svc.CreateDeposit(f.actor, f.budget.ID, EntityInput{Name: "Mine", OwnerID: &f.owner.ID})
		testutil.AssertNoError(t, err)

		inactive := false
		_, err = svc.UpdateDeposit(f.member(t), f.budget.ID, deposit.ID, EntityUpdate{IsActive: &inactive})
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("deposit_route_rejects_entity", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewEntityService(f.db, f.scope)
		entity := testutil.CreateTestEntity(t, f.db, f.budget.ID)

		name := "x"
		_, err := svc.UpdateDeposit(f.actor, f.budget.ID, entity.ID, EntityUpdate{Name: &name})
		testutil.AssertAppError(t, err, "DEPOSIT_NOT_FOUND")
	})
}

func TestDeleteEntity(t *testing.T) {
	t.Run("in_use", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewEntityService(f.db, f.scope)
		period := f.january(t, models.PeriodStatusDraft)
		entity := testutil.CreateTestEntity(t, f.db, f.budget.ID)
		deposit := testutil.CreateTestDeposit(t, f.db, f.budget.ID)
		testutil.CreateTestTransfer(t, f.db, period, models.TransferTypeExpense, "10", nil, entity.ID, &deposit.ID)

		testutil.AssertAppError(t, svc.DeleteEntity(f.actor, f.budget.ID, entity.ID), "ENTITY_IN_USE")
		testutil.AssertAppError(t, svc.DeleteDeposit(f.actor, f.budget.ID, deposit.ID), "ENTITY_IN_USE")
	})

	t.Run("deposit_removes_allocation", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewEntityService(f.db, f.scope)
		wallet := testutil.CreateTestWallet(t, f.db, f.budget.ID)
		deposit := testutil.CreateTestDeposit(t, f.db, f.budget.ID)
		_, err := NewWalletDepositService(f.db, f.scope).AllocateDeposit(f.actor, f.budget.ID, wallet.ID, deposit.ID, dec("50"))
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, svc.DeleteDeposit(f.actor, f.budget.ID, deposit.ID))

		var allocations int64
		f.db.Model(&models.WalletDeposit{}).Count(&allocations)
		if allocations != 0 {
			t.Errorf("expected allocation to be removed, got %d", allocations)
		}
	})
}
