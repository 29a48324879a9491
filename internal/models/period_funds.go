package models

import "github.com/shopspring/decimal"

// CommonOwnerLabel names the result row of deposits and categories without an owner.
const CommonOwnerLabel = "Common"

// PeriodFunds compares the money gathered on daily expenses deposits with the
// plans and expenses of one period.
type PeriodFunds struct {
	PredictionsSum          decimal.Decimal `json:"predictions_sum"`
	PeriodBalance           decimal.Decimal `json:"period_balance"`
	PeriodExpenses          decimal.Decimal `json:"period_expenses"`
	FundsLeftForPredictions decimal.Decimal `json:"funds_left_for_predictions"`
	FundsLeftForExpenses    decimal.Decimal `json:"funds_left_for_expenses"`
}

// ComputePeriodFunds derives the period figures. incomes cover the period and
// all earlier ones, expenses only the earlier ones, so the balance is what was
// available when the period started plus its incomes.
func ComputePeriodFunds(predictionsSum, incomes, expenses, periodExpenses decimal.Decimal) PeriodFunds {
	predictionsSum = predictionsSum.Round(2)
	periodExpenses = periodExpenses.Round(2)
	balance := incomes.Round(2).Sub(expenses.Round(2))

	return PeriodFunds{
		PredictionsSum:          predictionsSum,
		PeriodBalance:           balance,
		PeriodExpenses:          periodExpenses,
		FundsLeftForPredictions: balance.Sub(predictionsSum),
		FundsLeftForExpenses:    predictionsSum.Sub(periodExpenses),
	}
}

// DepositPeriodResult holds the period figures of one daily expenses deposit.
type DepositPeriodResult struct {
	DepositID   string `json:"deposit_id"`
	DepositName string `json:"deposit_name"`
	PeriodFunds
}

// UserPeriodResult holds the period figures of one budget member. The common
// row has no user.
type UserPeriodResult struct {
	UserID   *string `json:"user_id"`
	Username string  `json:"username"`
	PeriodFunds
}
