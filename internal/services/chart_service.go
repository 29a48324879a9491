package services

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "budgetory/internal/errors"
	"budgetory/internal/models"
)

const defaultTopEntities = 5

// signedValue adds incomes and subtracts expenses; relocations count as zero.
var signedValue = fmt.Sprintf("CASE transfers.transfer_type WHEN %d THEN transfers.value WHEN %d THEN -transfers.value ELSE 0 END",
	models.TransferTypeIncome, models.TransferTypeExpense)

// chartService builds read-only chart series from transfers and predictions.
type chartService struct {
	db    *gorm.DB
	scope ScopeServicer
}

// NewChartService creates a new ChartServicer.
func NewChartService(db *gorm.DB, scope ScopeServicer) ChartServicer {
	return &chartService{db: db, scope: scope}
}

// latestPeriods returns the count most recent periods of the budget, oldest
// first. A nil count returns all of them.
func latestPeriods(db *gorm.DB, budgetID string, count *int) ([]models.Period, error) {
	q := db.Where("budget_id = ?", budgetID).Order("date_start DESC")
	if count != nil {
		q = q.Limit(*count)
	}
	var periods []models.Period
	if err := q.Find(&periods).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	slices.Reverse(periods)
	return periods, nil
}

func periodIDs(periods []models.Period) []string {
	ids := make([]string, 0, len(periods))
	for _, p := range periods {
		ids = append(ids, p.ID)
	}
	return ids
}

// TransfersInPeriods sums incomes and expenses per period. Asking for one
// transfer type leaves the other series empty.
func (s *chartService) TransfersInPeriods(actor Actor, budgetID string, q TransfersChartQuery) (*models.TransfersChart, error) {
	scope := Scope{BudgetID: budgetID}
	if q.DepositID != nil {
		scope.DepositID = *q.DepositID
	}
	if _, err := s.scope.Resolve(actor, scope); err != nil {
		return nil, err
	}
	if q.EntityID != nil {
		var entity models.Entity
		if err := findInBudget(s.db, &entity, budgetID, *q.EntityID, apperrors.ErrEntityNotFound); err != nil {
			return nil, err
		}
	}

	periods, err := latestPeriods(s.db, budgetID, q.PeriodsCount)
	if err != nil {
		return nil, err
	}
	chart := models.NewTransfersChart()
	if len(periods) == 0 {
		return chart, nil
	}

	ids := periodIDs(periods)
	sums := func(t models.TransferType) (map[string]decimal.Decimal, error) {
		tq := s.db.Model(&models.Transfer{}).Where("period_id IN ? AND transfer_type = ?", ids, t)
		if q.DepositID != nil {
			tq = tq.Where("deposit_id = ?", *q.DepositID)
		}
		if q.EntityID != nil {
			tq = tq.Where("entity_id = ?", *q.EntityID)
		}
		return groupedSums(tq, "period_id", "value")
	}

	withIncomes := q.TransferType == nil || *q.TransferType != models.TransferTypeExpense
	withExpenses := q.TransferType == nil || *q.TransferType != models.TransferTypeIncome
	var incomes, expenses map[string]decimal.Decimal
	if withIncomes {
		if incomes, err = sums(models.TransferTypeIncome); err != nil {
			return nil, err
		}
	}
	if withExpenses {
		if expenses, err = sums(models.TransferTypeExpense); err != nil {
			return nil, err
		}
	}

	for _, p := range periods {
		chart.XAxis = append(chart.XAxis, p.Name)
		if withIncomes {
			chart.IncomeSeries = append(chart.IncomeSeries, balanceOf(incomes, p.ID))
		}
		if withExpenses {
			chart.ExpenseSeries = append(chart.ExpenseSeries, balanceOf(expenses, p.ID))
		}
	}
	return chart, nil
}

// TopEntitiesInPeriod ranks the entities with the highest transfer sums of
// one type in a period. The chart lists them in ascending order.
func (s *chartService) TopEntitiesInPeriod(actor Actor, budgetID string, q TopEntitiesQuery) (*models.EntitiesChart, error) {
	scope := Scope{BudgetID: budgetID}
	if q.PeriodID != nil && q.TransferType != nil {
		scope.PeriodID = *q.PeriodID
		if q.DepositID != nil {
			scope.DepositID = *q.DepositID
		}
	}
	if _, err := s.scope.Resolve(actor, scope); err != nil {
		return nil, err
	}
	chart := models.NewEntitiesChart()
	if scope.PeriodID == "" {
		return chart, nil
	}

	count := q.EntitiesCount
	if count <= 0 {
		count = defaultTopEntities
	}

	tq := s.db.Model(&models.Transfer{}).
		Select("entities.name, SUM(transfers.value) AS total").
		Joins("JOIN entities ON entities.id = transfers.entity_id").
		Where("transfers.period_id = ? AND transfers.transfer_type = ?", scope.PeriodID, *q.TransferType)
	if scope.DepositID != "" {
		tq = tq.Where("transfers.deposit_id = ?", scope.DepositID)
	}
	rows, err := tq.Group("entities.id, entities.name").
		Having("SUM(transfers.value) > 0").
		Order("total DESC, entities.name ASC").
		Limit(count).
		Rows()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name  string
			total decimal.Decimal
		)
		if err := rows.Scan(&name, &total); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		chart.XAxis = append(chart.XAxis, name)
		chart.Series = append(chart.Series, total.Round(2))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	slices.Reverse(chart.XAxis)
	slices.Reverse(chart.Series)
	return chart, nil
}

// CategoryInPeriods lists the transfer sums and current plans of a category
// per period.
func (s *chartService) CategoryInPeriods(actor Actor, budgetID string, q CategoryChartQuery) (*models.CategoryChart, error) {
	if _, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID}); err != nil {
		return nil, err
	}
	chart := models.NewCategoryChart()
	if q.CategoryID == nil {
		return chart, nil
	}
	var category models.TransferCategory
	if err := findInBudget(s.db, &category, budgetID, *q.CategoryID, apperrors.ErrCategoryNotFound); err != nil {
		return nil, err
	}

	periods, err := latestPeriods(s.db, budgetID, q.PeriodsCount)
	if err != nil {
		return nil, err
	}
	if len(periods) == 0 {
		return chart, nil
	}
	ids := periodIDs(periods)

	withResults := q.DisplayValue == nil || *q.DisplayValue == models.CategoryChartResults
	withPredictions := q.DisplayValue == nil || *q.DisplayValue == models.CategoryChartPredictions
	var results, plans map[string]decimal.Decimal
	if withResults {
		results, err = groupedSums(s.db.Model(&models.Transfer{}).
			Where("category_id = ? AND period_id IN ?", category.ID, ids), "period_id", "value")
		if err != nil {
			return nil, err
		}
	}
	if withPredictions {
		plans, err = groupedSums(s.db.Model(&models.ExpensePrediction{}).
			Where("category_id = ? AND period_id IN ?", category.ID, ids), "period_id", "current_plan")
		if err != nil {
			return nil, err
		}
	}

	for _, p := range periods {
		chart.XAxis = append(chart.XAxis, p.Name)
		if withResults {
			chart.ResultsSeries = append(chart.ResultsSeries, balanceOf(results, p.ID))
		}
		if withPredictions {
			chart.PredictionsSeries = append(chart.PredictionsSeries, balanceOf(plans, p.ID))
		}
	}
	return chart, nil
}

// DepositsInPeriods draws one series per deposit over a range of periods:
// the balance at the end of each period, or the sum of one transfer type.
func (s *chartService) DepositsInPeriods(actor Actor, budgetID string, q DepositsChartQuery) (*models.DepositsChart, error) {
	scope := Scope{BudgetID: budgetID}
	if q.DepositID != nil {
		scope.DepositID = *q.DepositID
	}
	if _, err := s.scope.Resolve(actor, scope); err != nil {
		return nil, err
	}

	pq := s.db.Where("budget_id = ?", budgetID)
	for _, bound := range []struct {
		id    *string
		where string
	}{
		{q.PeriodFromID, "date_start >= (SELECT p.date_start FROM periods p WHERE p.id = ?)"},
		{q.PeriodToID, "date_end <= (SELECT p.date_end FROM periods p WHERE p.id = ?)"},
	} {
		if bound.id == nil {
			continue
		}
		var period models.Period
		if err := findInBudget(s.db, &period, budgetID, *bound.id, apperrors.ErrPeriodNotFound); err != nil {
			return nil, err
		}
		pq = pq.Where(bound.where, period.ID)
	}

	var periods []models.Period
	if err := pq.Order("date_start ASC").Find(&periods).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	chart := models.NewDepositsChart()
	if len(periods) == 0 {
		return chart, nil
	}

	dq := s.db.Where("budget_id = ? AND is_deposit = ?", budgetID, true)
	if q.DepositID != nil {
		dq = dq.Where("id = ?", *q.DepositID)
	}
	if q.DepositType != nil {
		dq = dq.Where("deposit_type = ?", *q.DepositType)
	}
	var deposits []models.Entity
	if err := dq.Order("deposit_type ASC, name ASC").Find(&deposits).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(deposits) == 0 {
		return chart, nil
	}

	depositIDs := make([]string, 0, len(deposits))
	series := make([]models.ChartSeries, 0, len(deposits))
	for _, d := range deposits {
		depositIDs = append(depositIDs, d.ID)
		series = append(series, models.ChartSeries{Label: d.Name, Data: make([]decimal.Decimal, 0, len(periods))})
	}

	for _, p := range periods {
		values, err := s.depositValues(budgetID, depositIDs, p.ID, q.DisplayValue)
		if err != nil {
			return nil, err
		}
		chart.XAxis = append(chart.XAxis, p.Name)
		for i, d := range deposits {
			series[i].Data = append(series[i].Data, balanceOf(values, d.ID))
		}
	}
	chart.Series = series
	return chart, nil
}

func (s *chartService) depositValues(budgetID string, depositIDs []string, periodID string, transferType *models.TransferType) (map[string]decimal.Decimal, error) {
	if transferType != nil {
		return groupedSums(s.db.Model(&models.Transfer{}).
			Where("period_id = ? AND transfer_type = ? AND deposit_id IN ?", periodID, *transferType, depositIDs),
			"deposit_id", "value")
	}
	return groupedSums(s.db.Model(&models.Transfer{}).
		Joins("JOIN periods ON periods.id = transfers.period_id").
		Where("periods.budget_id = ? AND transfers.deposit_id IN ?", budgetID, depositIDs).
		Where("periods.date_end <= (SELECT p.date_end FROM periods p WHERE p.id = ?)", periodID),
		"transfers.deposit_id", signedValue)
}
