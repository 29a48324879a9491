package models

import "github.com/shopspring/decimal"

// UncategorizedLabel is the priority label of result rows that aggregate
// expenses without a category.
const UncategorizedLabel = "Not categorized"

var hundred = decimal.NewFromInt(100)

// PredictionFigures holds the computed plan-versus-actual numbers of one
// category in one period.
type PredictionFigures struct {
	CurrentPlan       decimal.Decimal          `json:"current_plan"`
	CurrentResult     decimal.Decimal          `json:"current_result"`
	CurrentFundsLeft  decimal.Decimal          `json:"current_funds_left"`
	CurrentProgress   *decimal.Decimal         `json:"current_progress"`
	ProgressStatus    PredictionProgressStatus `json:"progress_status"`
	PreviousPlan      decimal.Decimal          `json:"previous_plan"`
	PreviousResult    decimal.Decimal          `json:"previous_result"`
	PreviousFundsLeft decimal.Decimal          `json:"previous_funds_left"`
}

// ComputeFigures derives the funds left, progress and status of a category
// from its plans and summed expenses. Unused funds of the previous period
// carry over; overspending carries over as a deficit.
func ComputeFigures(currentPlan, currentResult, previousPlan, previousResult decimal.Decimal) PredictionFigures {
	currentPlan = currentPlan.Round(2)
	currentResult = currentResult.Round(2)
	previousPlan = previousPlan.Round(2)
	previousResult = previousResult.Round(2)

	previousFundsLeft := previousPlan.Sub(previousResult)
	return PredictionFigures{
		CurrentPlan:       currentPlan,
		CurrentResult:     currentResult,
		CurrentFundsLeft:  currentPlan.Add(previousFundsLeft).Sub(currentResult),
		CurrentProgress:   Progress(currentPlan, currentResult),
		ProgressStatus:    ClassifyProgress(currentPlan, currentResult),
		PreviousPlan:      previousPlan,
		PreviousResult:    previousResult,
		PreviousFundsLeft: previousFundsLeft,
	}
}

// UncategorizedFigures builds the figures of expenses without a category.
// Such expenses have no plan, so funds left are the negated results, nothing
// carries over between periods and progress is reported as zero.
func UncategorizedFigures(currentResult, previousResult decimal.Decimal) PredictionFigures {
	currentResult = currentResult.Round(2)
	previousResult = previousResult.Round(2)

	progress := decimal.Zero
	return PredictionFigures{
		CurrentResult:     currentResult,
		CurrentFundsLeft:  currentResult.Neg(),
		CurrentProgress:   &progress,
		ProgressStatus:    ClassifyProgress(decimal.Zero, currentResult),
		PreviousResult:    previousResult,
		PreviousFundsLeft: previousResult.Neg(),
	}
}

// Progress returns result as a percentage of plan, or nil when there is no plan.
func Progress(plan, result decimal.Decimal) *decimal.Decimal {
	if !plan.IsPositive() {
		return nil
	}
	p := result.Div(plan).Mul(hundred).Round(2)
	return &p
}

// ClassifyProgress compares result against plan at two decimal places.
func ClassifyProgress(plan, result decimal.Decimal) PredictionProgressStatus {
	plan, result = plan.Round(2), result.Round(2)
	switch {
	case result.IsZero():
		return ProgressNotUsed
	case result.LessThan(plan):
		return ProgressInPlannedRange
	case result.Equal(plan):
		return ProgressFullyUtilized
	default:
		return ProgressOverused
	}
}

// PredictionResult is a prediction row enriched with its computed figures.
// Rows for uncategorized expenses have no ID and no category; they are keyed
// by deposit instead.
type PredictionResult struct {
	ID               *string             `json:"id"`
	PeriodID         string              `json:"period_id"`
	CategoryID       *string             `json:"category_id"`
	CategoryName     string              `json:"category_name"`
	CategoryPriority string              `json:"category_priority"`
	CategoryOwnerID  *string             `json:"category_owner_id"`
	DepositID        *string             `json:"deposit_id,omitempty"`
	DepositName      string              `json:"deposit_name,omitempty"`
	InitialPlan      decimal.NullDecimal `json:"initial_plan"`
	Description      string              `json:"description"`
	PredictionFigures
}
