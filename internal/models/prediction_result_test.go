package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeFigures_WithinPlan(t *testing.T) {
	f := ComputeFigures(dec("500"), dec("300"), decimal.Zero, decimal.Zero)

	assert.True(t, f.CurrentFundsLeft.Equal(dec("200")), "funds left: %s", f.CurrentFundsLeft)
	assert.Equal(t, ProgressInPlannedRange, f.ProgressStatus)
	require.NotNil(t, f.CurrentProgress)
	assert.True(t, f.CurrentProgress.Equal(dec("60")), "progress: %s", f.CurrentProgress)
	assert.True(t, f.PreviousFundsLeft.IsZero())
}

func TestComputeFigures_CarriesOverPreviousFunds(t *testing.T) {
	f := ComputeFigures(dec("400"), dec("450"), dec("500"), dec("300"))

	assert.True(t, f.PreviousFundsLeft.Equal(dec("200")))
	assert.True(t, f.CurrentFundsLeft.Equal(dec("150")), "funds left: %s", f.CurrentFundsLeft)
	assert.Equal(t, ProgressOverused, f.ProgressStatus)
}

func TestComputeFigures_PreviousDeficit(t *testing.T) {
	f := ComputeFigures(dec("100"), dec("0"), dec("100"), dec("130"))

	assert.True(t, f.PreviousFundsLeft.Equal(dec("-30")))
	assert.True(t, f.CurrentFundsLeft.Equal(dec("70")))
	assert.Equal(t, ProgressNotUsed, f.ProgressStatus)
}

func TestComputeFigures_NoPlan(t *testing.T) {
	f := ComputeFigures(decimal.Zero, dec("25.50"), decimal.Zero, decimal.Zero)

	assert.Nil(t, f.CurrentProgress)
	assert.Equal(t, ProgressOverused, f.ProgressStatus)
	assert.True(t, f.CurrentFundsLeft.Equal(dec("-25.50")))
}

func TestUncategorizedFigures(t *testing.T) {
	f := UncategorizedFigures(dec("120.504"), dec("80"))

	assert.True(t, f.CurrentResult.Equal(dec("120.50")), "result: %s", f.CurrentResult)
	assert.True(t, f.CurrentFundsLeft.Equal(dec("-120.50")), "funds left: %s", f.CurrentFundsLeft)
	assert.True(t, f.PreviousFundsLeft.Equal(dec("-80")), "previous funds left: %s", f.PreviousFundsLeft)
	assert.True(t, f.CurrentPlan.IsZero())
	require.NotNil(t, f.CurrentProgress)
	assert.True(t, f.CurrentProgress.IsZero())
	assert.Equal(t, ProgressOverused, f.ProgressStatus)
}

func TestClassifyProgress(t *testing.T) {
	tests := []struct {
		name   string
		plan   string
		result string
		want   PredictionProgressStatus
	}{
		{"nothing spent", "100", "0", ProgressNotUsed},
		{"nothing spent without plan", "0", "0", ProgressNotUsed},
		{"partially spent", "100", "99.99", ProgressInPlannedRange},
		{"exactly spent", "100", "100.00", ProgressFullyUtilized},
		{"equal after rounding", "100", "100.004", ProgressFullyUtilized},
		{"overspent", "100", "100.01", ProgressOverused},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyProgress(dec(tt.plan), dec(tt.result)))
		})
	}
}

func TestProgress_RoundsToTwoPlaces(t *testing.T) {
	p := Progress(dec("3"), dec("1"))
	require.NotNil(t, p)
	assert.Equal(t, "33.33", p.StringFixed(2))
}

func TestValidPlannedWeight(t *testing.T) {
	assert.False(t, ValidPlannedWeight(dec("0")))
	assert.False(t, ValidPlannedWeight(dec("100")))
	assert.False(t, ValidPlannedWeight(dec("-1")))
	assert.True(t, ValidPlannedWeight(dec("0.01")))
	assert.True(t, ValidPlannedWeight(dec("50")))
	assert.True(t, ValidPlannedWeight(dec("99.99")))
}
