package models

import "github.com/shopspring/decimal"

// CategoryChartValue picks the series drawn on a category chart.
type CategoryChartValue int

const (
	CategoryChartResults     CategoryChartValue = 1
	CategoryChartPredictions CategoryChartValue = 2
)

// Valid reports whether v is a known chart value.
func (v CategoryChartValue) Valid() bool {
	return v == CategoryChartResults || v == CategoryChartPredictions
}

// TransfersChart holds income and expense sums per period, oldest first.
// A series left out by the query stays empty.
type TransfersChart struct {
	XAxis         []string          `json:"xAxis"`
	IncomeSeries  []decimal.Decimal `json:"income_series"`
	ExpenseSeries []decimal.Decimal `json:"expense_series"`
}

// EntitiesChart holds transfer sums per entity, smallest first.
type EntitiesChart struct {
	XAxis  []string          `json:"xAxis"`
	Series []decimal.Decimal `json:"series"`
}

// CategoryChart holds the expenses and plans of one category per period.
type CategoryChart struct {
	XAxis             []string          `json:"xAxis"`
	ResultsSeries     []decimal.Decimal `json:"results_series"`
	PredictionsSeries []decimal.Decimal `json:"predictions_series"`
}

// ChartSeries is one labelled line of a multi-series chart.
type ChartSeries struct {
	Label string            `json:"label"`
	Data  []decimal.Decimal `json:"data"`
}

// DepositsChart holds one series per deposit across periods.
type DepositsChart struct {
	XAxis  []string      `json:"xAxis"`
	Series []ChartSeries `json:"series"`
}

// NewTransfersChart returns a chart with empty, non-nil series.
func NewTransfersChart() *TransfersChart {
	return &TransfersChart{XAxis: []string{}, IncomeSeries: []decimal.Decimal{}, ExpenseSeries: []decimal.Decimal{}}
}

// NewEntitiesChart returns a chart with empty, non-nil series.
func NewEntitiesChart() *EntitiesChart {
	return &EntitiesChart{XAxis: []string{}, Series: []decimal.Decimal{}}
}

// NewCategoryChart returns a chart with empty, non-nil series.
func NewCategoryChart() *CategoryChart {
	return &CategoryChart{XAxis: []string{}, ResultsSeries: []decimal.Decimal{}, PredictionsSeries: []decimal.Decimal{}}
}

// NewDepositsChart returns a chart with empty, non-nil series.
func NewDepositsChart() *DepositsChart {
	return &DepositsChart{XAxis: []string{}, Series: []ChartSeries{}}
}
