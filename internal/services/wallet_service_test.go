package services

import (
	"testing"

	"budgetory/internal/models"
	"budgetory/internal/pagination"
	"budgetory/internal/testutil"
)

func TestCreateWallet(t *testing.T) {
	t.Run("inherits_budget_currency", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewWalletService(f.db, f.scope)

		wallet, err := svc.CreateWallet(f.actor, f.budget.ID, "Daily", "")
		testutil.AssertNoError(t, err)
		if wallet.Currency != f.budget.Currency {
			t.Errorf("expected currency %s, got %s", f.budget.Currency, wallet.Currency)
		}
	})

	t.Run("duplicate_name", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewWalletService(f.db, f.scope)

		_, err := svc.CreateWallet(f.actor, f.budget.ID, "Daily", "EUR")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateWallet(f.actor, f.budget.ID, "Daily", "EUR")
		testutil.AssertAppError(t, err, "DUPLICATE_WALLET")
	})

	t.Run("outsider", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewWalletService(f.db, f.scope)

		_, err := svc.CreateWallet(f.outsider(t), f.budget.ID, "Daily", "")
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})
}

func TestWalletLifecycle(t *testing.T) {
	f := newBudgetFixture(t)
	svc := NewWalletService(f.db, f.scope)
	wallet := testutil.CreateTestWallet(t, f.db, f.budget.ID)

	updated, err := svc.UpdateWallet(f.actor, f.budget.ID, wallet.ID, "Long term", "usd")
	testutil.AssertNoError(t, err)
	if updated.Name != "Long term" || updated.Currency != "USD" {
		t.Errorf("unexpected wallet after update: %s %s", updated.Name, updated.Currency)
	}

	list, err := svc.GetBudgetWallets(f.actor, f.budget.ID, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if list.TotalItems != 1 {
		t.Errorf("expected 1 wallet, got %d", list.TotalItems)
	}

	deposit := testutil.CreateTestDeposit(t, f.db, f.budget.ID)
	_, err = NewWalletDepositService(f.db, f.scope).AllocateDeposit(f.actor, f.budget.ID, wallet.ID, deposit.ID, dec("40"))
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, svc.DeleteWallet(f.actor, f.budget.ID, wallet.ID))

	_, err = svc.GetWalletByID(f.actor, f.budget.ID, wallet.ID)
	testutil.AssertAppError(t, err, "WALLET_NOT_FOUND")

	var allocations int64
	f.db.Model(&models.WalletDeposit{}).Count(&allocations)
	if allocations != 0 {
		t.Errorf("expected allocations to be removed with the wallet, got %d", allocations)
	}
}

func TestAllocateDeposit(t *testing.T) {
	tests := []struct {
		name     string
		weight   string
		wantCode string
	}{
		{"zero", "0", "INVALID_PLANNED_WEIGHT"},
		{"hundred", "100", "INVALID_PLANNED_WEIGHT"},
		{"negative", "-5", "INVALID_PLANNED_WEIGHT"},
		{"half", "50", ""},
		{"fraction", "0.01", ""},
		{"rounds_to_hundred", "99.996", "INVALID_PLANNED_WEIGHT"},
		{"rounds_to_zero", "0.004", "INVALID_PLANNED_WEIGHT"},
		{"rounds_below_hundred", "99.994", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBudgetFixture(t)
			svc := NewWalletDepositService(f.db, f.scope)
			wallet := testutil.CreateTestWallet(t, f.db, f.budget.ID)
			deposit := testutil.CreateTestDeposit(t, f.db, f.budget.ID)

			allocation, err := svc.AllocateDeposit(f.actor, f.budget.ID, wallet.ID, deposit.ID, dec(tt.weight))
			if tt.wantCode != "" {
				testutil.AssertAppError(t, err, tt.wantCode)
				return
			}
			testutil.AssertNoError(t, err)
			testutil.AssertDecimal(t, "planned weight", allocation.PlannedWeight, dec(tt.weight).Round(2).String())
		})
	}

	t.Run("already_assigned", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewWalletDepositService(f.db, f.scope)
		first := testutil.CreateTestWallet(t, f.db, f.budget.ID)
		second := testutil.CreateTestWallet(t, f.db, f.budget.ID)
		deposit := testutil.CreateTestDeposit(t, f.db, f.budget.ID)

		_, err := svc.AllocateDeposit(f.actor, f.budget.ID, first.ID, deposit.ID, dec("30"))
		testutil.AssertNoError(t, err)

		_, err = svc.AllocateDeposit(f.actor, f.budget.ID, second.ID, deposit.ID, dec("30"))
		testutil.AssertAppError(t, err, "DEPOSIT_ALREADY_ASSIGNED")
	})

	t.Run("weights_need_not_sum_to_hundred", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewWalletDepositService(f.db, f.scope)
		wallet := testutil.CreateTestWallet(t, f.db, f.budget.ID)

		for i := 0; i < 3; i++ {
			deposit := testutil.CreateTestDeposit(t, f.db, f.budget.ID)
			_, err := svc.AllocateDeposit(f.actor, f.budget.ID, wallet.ID, deposit.ID, dec("60"))
			testutil.AssertNoError(t, err)
		}

		allocations, err := svc.GetWalletDeposits(f.actor, f.budget.ID, wallet.ID)
		testutil.AssertNoError(t, err)
		if len(allocations) != 3 {
			t.Errorf("expected 3 allocations, got %d", len(allocations))
		}
	})

	t.Run("deposit_of_other_budget", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewWalletDepositService(f.db, f.scope)
		wallet := testutil.CreateTestWallet(t, f.db, f.budget.ID)
		other := testutil.CreateTestBudget(t, f.db, f.owner.ID)
		deposit := testutil.CreateTestDeposit(t, f.db, other.ID)

		_, err := svc.AllocateDeposit(f.actor, f.budget.ID, wallet.ID, deposit.ID, dec("50"))
		testutil.AssertAppError(t, err, "DEPOSIT_NOT_FOUND")
	})
}

func TestUpdateAllocation(t *testing.T) {
	f := newBudgetFixture(t)
	svc := NewWalletDepositService(f.db, f.scope)
	wallet := testutil.CreateTestWallet(t, f.db, f.budget.ID)
	deposit := testutil.CreateTestDeposit(t, f.db, f.budget.ID)
	allocation, err := svc.AllocateDeposit(f.actor, f.budget.ID, wallet.ID, deposit.ID, dec("50"))
	testutil.AssertNoError(t, err)

	for _, w := range []string{"100", "99.996", "0.001"} {
		_, err = svc.UpdateAllocation(f.actor, f.budget.ID, wallet.ID, allocation.ID, dec(w))
		testutil.AssertAppError(t, err, "INVALID_PLANNED_WEIGHT")
	}

	updated, err := svc.UpdateAllocation(f.actor, f.budget.ID, wallet.ID, allocation.ID, dec("75.5"))
	testutil.AssertNoError(t, err)
	testutil.AssertDecimal(t, "planned weight", updated.PlannedWeight, "75.5")

	testutil.AssertNoError(t, svc.RemoveAllocation(f.actor, f.budget.ID, wallet.ID, allocation.ID))
	err = svc.RemoveAllocation(f.actor, f.budget.ID, wallet.ID, allocation.ID)
	testutil.AssertAppError(t, err, "WALLET_DEPOSIT_NOT_FOUND")
}
