package services

import (
	"database/sql"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "budgetory/internal/errors"
	"budgetory/internal/models"
)

// periodFlows holds daily expenses deposit sums keyed by deposit or by owner.
// Ownerless rows use the empty key.
type periodFlows struct {
	incomes        map[string]decimal.Decimal
	expenses       map[string]decimal.Decimal
	periodExpenses map[string]decimal.Decimal
}

// loadPeriodFlows sums the transfers of daily expenses deposits grouped by
// groupBy. Incomes include the period itself, expenses stop before it.
func loadPeriodFlows(db *gorm.DB, budgetID, periodID, groupBy string) (*periodFlows, error) {
	base := func() *gorm.DB {
		return db.Model(&models.Transfer{}).
			Joins("JOIN periods ON periods.id = transfers.period_id").
			Joins("JOIN entities deposits ON deposits.id = transfers.deposit_id").
			Where("periods.budget_id = ? AND deposits.deposit_type = ?", budgetID, models.DepositTypeDailyExpenses)
	}

	incomes, err := groupedSums(base().
		Where("transfers.transfer_type = ? AND periods.date_start < (SELECT p.date_end FROM periods p WHERE p.id = ?)",
			models.TransferTypeIncome, periodID), groupBy, "transfers.value")
	if err != nil {
		return nil, err
	}
	expenses, err := groupedSums(base().
		Where("transfers.transfer_type = ? AND periods.date_start < (SELECT p.date_start FROM periods p WHERE p.id = ?)",
			models.TransferTypeExpense, periodID), groupBy, "transfers.value")
	if err != nil {
		return nil, err
	}
	periodExpenses, err := groupedSums(base().
		Where("transfers.transfer_type = ? AND transfers.period_id = ?", models.TransferTypeExpense, periodID),
		groupBy, "transfers.value")
	if err != nil {
		return nil, err
	}
	return &periodFlows{incomes: incomes, expenses: expenses, periodExpenses: periodExpenses}, nil
}

func (f *periodFlows) funds(key string, predictionsSum decimal.Decimal) models.PeriodFunds {
	return models.ComputePeriodFunds(predictionsSum, balanceOf(f.incomes, key), balanceOf(f.expenses, key), balanceOf(f.periodExpenses, key))
}

// planSumsByOwner sums the current plans of a period per category owner.
func planSumsByOwner(db *gorm.DB, periodID string) (map[string]decimal.Decimal, error) {
	return groupedSums(db.Model(&models.ExpensePrediction{}).
		Joins("JOIN transfer_categories ON transfer_categories.id = expense_predictions.category_id").
		Where("expense_predictions.period_id = ?", periodID),
		"transfer_categories.owner_id", "expense_predictions.current_plan")
}

func groupedSums(q *gorm.DB, groupBy, column string) (map[string]decimal.Decimal, error) {
	rows, err := q.Select(groupBy + ", COALESCE(SUM(" + column + "), 0)").Group(groupBy).Rows()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	defer rows.Close()

	sums := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			key sql.NullString
			sum decimal.Decimal
		)
		if err := rows.Scan(&key, &sum); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		sums[key.String] = sum.Round(2)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return sums, nil
}

func ownerKey(ownerID *string) string {
	if ownerID == nil {
		return ""
	}
	return *ownerID
}

// DepositResults reports the period funds of every daily expenses deposit of
// the budget. A deposit is matched with the plans of categories sharing its
// owner, so ownerless deposits pair with common categories.
func (s *predictionService) DepositResults(actor Actor, budgetID, periodID string) ([]models.DepositPeriodResult, error) {
	resolved, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID, PeriodID: periodID})
	if err != nil {
		return nil, err
	}

	var deposits []models.Entity
	if err := s.db.Where("budget_id = ? AND is_deposit = ? AND deposit_type = ?", budgetID, true, models.DepositTypeDailyExpenses).
		Order("name ASC").
		Find(&deposits).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	flows, err := loadPeriodFlows(s.db, budgetID, resolved.Period.ID, "transfers.deposit_id")
	if err != nil {
		return nil, err
	}
	plans, err := planSumsByOwner(s.db, resolved.Period.ID)
	if err != nil {
		return nil, err
	}

	results := make([]models.DepositPeriodResult, 0, len(deposits))
	for _, d := range deposits {
		results = append(results, models.DepositPeriodResult{
			DepositID:   d.ID,
			DepositName: d.Name,
			PeriodFunds: flows.funds(d.ID, balanceOf(plans, ownerKey(d.OwnerID))),
		})
	}
	return results, nil
}

// UserResults reports the period funds of every budget member, built from
// the deposits and categories they own. The first row covers ownerless
// deposits and categories.
func (s *predictionService) UserResults(actor Actor, budgetID, periodID string) ([]models.UserPeriodResult, error) {
	resolved, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID, PeriodID: periodID})
	if err != nil {
		return nil, err
	}

	var members []models.User
	if err := s.db.Joins("JOIN budget_members ON budget_members.user_id = users.id").
		Where("budget_members.budget_id = ?", budgetID).
		Order("users.username ASC, users.email ASC").
		Find(&members).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	flows, err := loadPeriodFlows(s.db, budgetID, resolved.Period.ID, "deposits.owner_id")
	if err != nil {
		return nil, err
	}
	plans, err := planSumsByOwner(s.db, resolved.Period.ID)
	if err != nil {
		return nil, err
	}

	results := make([]models.UserPeriodResult, 0, len(members)+1)
	results = append(results, models.UserPeriodResult{
		Username:    models.CommonOwnerLabel,
		PeriodFunds: flows.funds("", balanceOf(plans, "")),
	})
	for _, m := range members {
		results = append(results, models.UserPeriodResult{
			UserID:      &m.ID,
			Username:    m.Username,
			PeriodFunds: flows.funds(m.ID, balanceOf(plans, m.ID)),
		})
	}
	return results, nil
}
