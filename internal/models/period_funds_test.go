package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputePeriodFunds(t *testing.T) {
	f := ComputePeriodFunds(dec("300"), dec("1000"), dec("400"), dec("120"))

	assert.True(t, f.PeriodBalance.Equal(dec("600")), "balance: %s", f.PeriodBalance)
	assert.True(t, f.FundsLeftForPredictions.Equal(dec("300")), "left for predictions: %s", f.FundsLeftForPredictions)
	assert.True(t, f.FundsLeftForExpenses.Equal(dec("180")), "left for expenses: %s", f.FundsLeftForExpenses)
}

func TestComputePeriodFunds_Empty(t *testing.T) {
	f := ComputePeriodFunds(decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)

	assert.True(t, f.PeriodBalance.IsZero())
	assert.True(t, f.FundsLeftForPredictions.IsZero())
	assert.True(t, f.FundsLeftForExpenses.IsZero())
}

func TestComputePeriodFunds_RoundsInputs(t *testing.T) {
	f := ComputePeriodFunds(dec("10.004"), dec("20.005"), decimal.Zero, dec("0.006"))

	assert.True(t, f.PredictionsSum.Equal(dec("10")))
	assert.True(t, f.PeriodBalance.Equal(dec("20.01")), "balance: %s", f.PeriodBalance)
	assert.True(t, f.FundsLeftForExpenses.Equal(dec("9.99")), "left for expenses: %s", f.FundsLeftForExpenses)
}
