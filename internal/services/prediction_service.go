package services

import (
	"errors"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "budgetory/internal/errors"
	"budgetory/internal/logger"
	"budgetory/internal/models"
	"budgetory/internal/pagination"
)

var predictionOrdering = map[string]string{
	"current_plan":  "expense_predictions.current_plan",
	"initial_plan":  "expense_predictions.initial_plan",
	"category_name": "transfer_categories.name",
	"priority":      "transfer_categories.priority",
}

const predictionDefaultOrder = "transfer_categories.priority ASC, transfer_categories.name ASC"

// predictionService handles expense predictions and computes their results.
type predictionService struct {
	db    *gorm.DB
	scope ScopeServicer
}

// NewPredictionService creates a new PredictionServicer.
func NewPredictionService(db *gorm.DB, scope ScopeServicer) PredictionServicer {
	return &predictionService{db: db, scope: scope}
}

// CreatePrediction plans the spending of an expense category in a draft period.
func (s *predictionService) CreatePrediction(actor Actor, budgetID string, in PredictionInput) (*models.PredictionResult, error) {
	resolved, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID, PeriodID: in.PeriodID})
	if err != nil {
		return nil, err
	}
	if resolved.Period.Status != models.PeriodStatusDraft {
		return nil, apperrors.ErrPeriodNotDraft
	}
	plan := in.CurrentPlan.Round(2)
	if !plan.IsPositive() {
		return nil, apperrors.ErrNonPositiveValue
	}

	prediction := &models.ExpensePrediction{
		PeriodID:    in.PeriodID,
		CategoryID:  in.CategoryID,
		CurrentPlan: plan,
		Description: strings.TrimSpace(in.Description),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := expenseCategory(tx, budgetID, in.CategoryID); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.ExpensePrediction{}).
			Where("period_id = ? AND category_id = ?", in.PeriodID, in.CategoryID).
			Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.ErrDuplicatePrediction
		}

		if err := tx.Create(prediction).Error; err != nil {
			return dbError(err, apperrors.ErrDuplicatePrediction)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.result(prediction)
}

func expenseCategory(db *gorm.DB, budgetID, categoryID string) (*models.TransferCategory, error) {
	var category models.TransferCategory
	if err := findInBudget(db, &category, budgetID, categoryID, apperrors.ErrCategoryNotFound); err != nil {
		return nil, err
	}
	if category.CategoryType != models.CategoryTypeExpense {
		return nil, apperrors.WithMessage(apperrors.ErrCategoryTypeMismatch, "Predictions require an Expense Category.")
	}
	return &category, nil
}

// GetBudgetPredictions lists the budget's predictions with their results.
// Filtering by progress status happens after the results are computed.
func (s *predictionService) GetBudgetPredictions(actor Actor, budgetID string, page pagination.PageRequest, filter PredictionFilter) (*pagination.PageResponse[models.PredictionResult], error) {
	if _, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID}); err != nil {
		return nil, err
	}
	page.Defaults()

	base := s.db.Model(&models.ExpensePrediction{}).
		Joins("JOIN periods ON periods.id = expense_predictions.period_id").
		Joins("JOIN transfer_categories ON transfer_categories.id = expense_predictions.category_id").
		Where("periods.budget_id = ?", budgetID)
	base = applyPredictionFilters(base, filter)

	list := func(q *gorm.DB) ([]models.PredictionResult, error) {
		var predictions []models.ExpensePrediction
		if err := q.Select("expense_predictions.*").
			Scopes(pagination.Order(page, predictionOrdering, predictionDefaultOrder)).
			Find(&predictions).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return buildResults(s.db, predictions)
	}

	if filter.ProgressStatus != nil {
		results, err := list(base)
		if err != nil {
			return nil, err
		}
		results = slices.DeleteFunc(results, func(r models.PredictionResult) bool {
			return r.ProgressStatus != *filter.ProgressStatus
		})
		paged := pagination.PaginateSlice(results, page)
		return &paged, nil
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	results, err := list(base.Scopes(pagination.Paginate(page)))
	if err != nil {
		return nil, err
	}

	paged := pagination.NewPageResponse(results, page.Page, page.PageSize, totalItems)
	return &paged, nil
}

func applyPredictionFilters(q *gorm.DB, f PredictionFilter) *gorm.DB {
	if f.PeriodID != nil {
		q = q.Where("expense_predictions.period_id = ?", *f.PeriodID)
	}
	if f.CategoryID != nil {
		q = q.Where("expense_predictions.category_id = ?", *f.CategoryID)
	}
	if f.OwnerID != nil {
		if *f.OwnerID == CommonOwnerFilter {
			q = q.Where("transfer_categories.owner_id IS NULL")
		} else {
			q = q.Where("transfer_categories.owner_id = ?", *f.OwnerID)
		}
	}
	if f.CategoryPriority != nil {
		q = q.Where("transfer_categories.priority = ?", *f.CategoryPriority)
	}
	if f.CurrentPlanMin != nil {
		q = q.Where("expense_predictions.current_plan >= ?", *f.CurrentPlanMin)
	}
	if f.CurrentPlanMax != nil {
		q = q.Where("expense_predictions.current_plan <= ?", *f.CurrentPlanMax)
	}
	if f.InitialPlanMin != nil {
		q = q.Where("expense_predictions.initial_plan >= ?", *f.InitialPlanMin)
	}
	if f.InitialPlanMax != nil {
		q = q.Where("expense_predictions.initial_plan <= ?", *f.InitialPlanMax)
	}
	return q
}

// GetPredictionByID returns one prediction of the budget with its result.
func (s *predictionService) GetPredictionByID(actor Actor, budgetID, predictionID string) (*models.PredictionResult, error) {
	if _, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID}); err != nil {
		return nil, err
	}
	prediction, err := findPrediction(s.db, budgetID, predictionID)
	if err != nil {
		return nil, err
	}
	return s.result(prediction)
}

func findPrediction(db *gorm.DB, budgetID, predictionID string) (*models.ExpensePrediction, error) {
	var prediction models.ExpensePrediction
	err := db.Select("expense_predictions.*").
		Joins("JOIN periods ON periods.id = expense_predictions.period_id").
		Where("expense_predictions.id = ? AND periods.budget_id = ?", predictionID, budgetID).
		Preload("Period").
		First(&prediction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPredictionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &prediction, nil
}

// UpdatePrediction changes the current plan or description. The period of a
// prediction never changes and the initial plan is read-only.
func (s *predictionService) UpdatePrediction(actor Actor, budgetID, predictionID string, upd PredictionUpdate) (*models.PredictionResult, error) {
	if _, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID}); err != nil {
		return nil, err
	}

	var prediction *models.ExpensePrediction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		p, err := findPrediction(tx, budgetID, predictionID)
		if err != nil {
			return err
		}
		if p.Period.Status == models.PeriodStatusClosed {
			return apperrors.WithMessage(apperrors.ErrPeriodClosed, "Predictions of a Closed period cannot be changed.")
		}

		updates := make(map[string]interface{})
		if upd.CurrentPlan != nil {
			plan := upd.CurrentPlan.Round(2)
			if !plan.IsPositive() {
				return apperrors.ErrNonPositiveValue
			}
			p.CurrentPlan = plan
			updates["current_plan"] = p.CurrentPlan
		}
		if upd.Description != nil {
			p.Description = strings.TrimSpace(*upd.Description)
			updates["description"] = p.Description
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.ExpensePrediction{}).Where("id = ?", p.ID).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		prediction = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.result(prediction)
}

// DeletePrediction removes a prediction of an open period.
func (s *predictionService) DeletePrediction(actor Actor, budgetID, predictionID string) error {
	if _, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID}); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		p, err := findPrediction(tx, budgetID, predictionID)
		if err != nil {
			return err
		}
		if p.Period.Status == models.PeriodStatusClosed {
			return apperrors.WithMessage(apperrors.ErrPeriodClosed, "Predictions of a Closed period cannot be changed.")
		}
		if err := tx.Delete(&models.ExpensePrediction{}, "id = ?", p.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// CategoryResult computes the result of any expense category in a period.
// Without a prediction row the plan figures are zero and the ID is nil.
func (s *predictionService) CategoryResult(actor Actor, budgetID, periodID, categoryID string) (*models.PredictionResult, error) {
	if _, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID, PeriodID: periodID}); err != nil {
		return nil, err
	}
	if _, err := expenseCategory(s.db, budgetID, categoryID); err != nil {
		return nil, err
	}

	prediction := models.ExpensePrediction{PeriodID: periodID, CategoryID: categoryID}
	err := s.db.Where("period_id = ? AND category_id = ?", periodID, categoryID).First(&prediction).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.result(&prediction)
}

// UncategorizedResults reports expenses without a category, one row per
// deposit with a non-zero sum in the period.
func (s *predictionService) UncategorizedResults(actor Actor, budgetID, periodID string, depositID *string) ([]models.PredictionResult, error) {
	scope := Scope{BudgetID: budgetID, PeriodID: periodID}
	if depositID != nil {
		scope.DepositID = *depositID
	}
	resolved, err := s.scope.Resolve(actor, scope)
	if err != nil {
		return nil, err
	}
	period := resolved.Period

	current, err := uncategorizedSums(s.db, period.ID, depositID)
	if err != nil {
		return nil, err
	}
	previous := make(map[string]decimal.Decimal)
	if period.PreviousPeriodID != nil {
		if previous, err = uncategorizedSums(s.db, *period.PreviousPeriodID, depositID); err != nil {
			return nil, err
		}
	}

	ids := make([]string, 0, len(current))
	for id, sum := range current {
		if !sum.IsZero() {
			ids = append(ids, id)
		}
	}
	var deposits []models.Entity
	if len(ids) > 0 {
		if err := s.db.Where("id IN ?", ids).Order("name ASC").Find(&deposits).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	results := make([]models.PredictionResult, 0, len(deposits))
	for _, d := range deposits {
		results = append(results, models.PredictionResult{
			PeriodID:          period.ID,
			CategoryPriority:  models.UncategorizedLabel,
			DepositID:         &d.ID,
			DepositName:       d.Name,
			PredictionFigures: models.UncategorizedFigures(current[d.ID], balanceOf(previous, d.ID)),
		})
	}
	return results, nil
}

func uncategorizedSums(db *gorm.DB, periodID string, depositID *string) (map[string]decimal.Decimal, error) {
	q := db.Model(&models.Transfer{}).
		Select("deposit_id, COALESCE(SUM(value), 0)").
		Where("period_id = ? AND transfer_type = ? AND category_id IS NULL AND deposit_id IS NOT NULL",
			periodID, models.TransferTypeExpense)
	if depositID != nil {
		q = q.Where("deposit_id = ?", *depositID)
	}

	rows, err := q.Group("deposit_id").Rows()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	defer rows.Close()

	sums := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			id  string
			sum decimal.Decimal
		)
		if err := rows.Scan(&id, &sum); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		sums[id] = sum.Round(2)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return sums, nil
}

// CopyFromPreviousPeriod clones the predictions of the previous period into
// an empty draft period and returns how many were created.
func (s *predictionService) CopyFromPreviousPeriod(actor Actor, budgetID, periodID string) (int, error) {
	resolved, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID, PeriodID: periodID})
	if err != nil {
		return 0, err
	}
	period := resolved.Period
	if period.Status != models.PeriodStatusDraft {
		return 0, apperrors.ErrPeriodNotDraft
	}
	if period.PreviousPeriodID == nil {
		return 0, apperrors.ErrNoPreviousPeriod
	}

	var copies []models.ExpensePrediction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.ExpensePrediction{}).Where("period_id = ?", period.ID).Count(&existing).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if existing > 0 {
			return apperrors.ErrPredictionsExist
		}

		var previous []models.ExpensePrediction
		if err := tx.Where("period_id = ?", *period.PreviousPeriodID).Find(&previous).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if len(previous) == 0 {
			return apperrors.ErrNoPreviousPredictions
		}

		for _, p := range previous {
			copies = append(copies, models.ExpensePrediction{
				PeriodID:    period.ID,
				CategoryID:  p.CategoryID,
				CurrentPlan: p.CurrentPlan,
				Description: p.Description,
			})
		}
		if err := tx.Create(&copies).Error; err != nil {
			return dbError(err, apperrors.ErrDuplicatePrediction)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Named("predictions").Infow("Predictions copied from previous period",
		"budget_id", budgetID,
		"period_id", period.ID,
		"previous_period_id", *period.PreviousPeriodID,
		"count", len(copies),
	)
	return len(copies), nil
}

func (s *predictionService) result(p *models.ExpensePrediction) (*models.PredictionResult, error) {
	results, err := buildResults(s.db, []models.ExpensePrediction{*p})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

type periodCategory struct {
	periodID   string
	categoryID string
}

// buildResults computes the figures of many predictions with a fixed number
// of queries: their periods, categories, the grouped expense sums of the
// current and previous periods and the previous predictions.
func buildResults(db *gorm.DB, predictions []models.ExpensePrediction) ([]models.PredictionResult, error) {
	results := make([]models.PredictionResult, 0, len(predictions))
	if len(predictions) == 0 {
		return results, nil
	}

	var periodIDs, categoryIDs []string
	for _, p := range predictions {
		if !slices.Contains(periodIDs, p.PeriodID) {
			periodIDs = append(periodIDs, p.PeriodID)
		}
		if !slices.Contains(categoryIDs, p.CategoryID) {
			categoryIDs = append(categoryIDs, p.CategoryID)
		}
	}

	var periods []models.Period
	if err := db.Where("id IN ?", periodIDs).Find(&periods).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	previousOf := make(map[string]string, len(periods))
	sumPeriodIDs := slices.Clone(periodIDs)
	var previousIDs []string
	for _, p := range periods {
		if p.PreviousPeriodID == nil {
			continue
		}
		previousOf[p.ID] = *p.PreviousPeriodID
		if !slices.Contains(previousIDs, *p.PreviousPeriodID) {
			previousIDs = append(previousIDs, *p.PreviousPeriodID)
		}
		if !slices.Contains(sumPeriodIDs, *p.PreviousPeriodID) {
			sumPeriodIDs = append(sumPeriodIDs, *p.PreviousPeriodID)
		}
	}

	var categories []models.TransferCategory
	if err := db.Where("id IN ?", categoryIDs).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	categoryByID := make(map[string]models.TransferCategory, len(categories))
	for _, c := range categories {
		categoryByID[c.ID] = c
	}

	sums, err := expenseSums(db, sumPeriodIDs, categoryIDs)
	if err != nil {
		return nil, err
	}

	previousPlans := make(map[periodCategory]decimal.Decimal)
	if len(previousIDs) > 0 {
		var previous []models.ExpensePrediction
		if err := db.Where("period_id IN ? AND category_id IN ?", previousIDs, categoryIDs).Find(&previous).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for _, p := range previous {
			previousPlans[periodCategory{p.PeriodID, p.CategoryID}] = p.CurrentPlan
		}
	}

	for _, p := range predictions {
		category := categoryByID[p.CategoryID]
		currentResult := sums[periodCategory{p.PeriodID, p.CategoryID}]

		var previousPlan, previousResult decimal.Decimal
		if prevID, ok := previousOf[p.PeriodID]; ok {
			key := periodCategory{prevID, p.CategoryID}
			previousPlan = previousPlans[key]
			previousResult = sums[key]
		}

		r := models.PredictionResult{
			PeriodID:          p.PeriodID,
			CategoryID:        &p.CategoryID,
			CategoryName:      category.Name,
			CategoryPriority:  category.Priority.Label(),
			CategoryOwnerID:   category.OwnerID,
			InitialPlan:       p.InitialPlan,
			Description:       p.Description,
			PredictionFigures: models.ComputeFigures(p.CurrentPlan, currentResult, previousPlan, previousResult),
		}
		if p.ID != "" {
			r.ID = &p.ID
		}
		results = append(results, r)
	}
	return results, nil
}

// expenseSums sums expense values per (period, category).
func expenseSums(db *gorm.DB, periodIDs, categoryIDs []string) (map[periodCategory]decimal.Decimal, error) {
	rows, err := db.Model(&models.Transfer{}).
		Select("period_id, category_id, COALESCE(SUM(value), 0)").
		Where("transfer_type = ? AND period_id IN ? AND category_id IN ?", models.TransferTypeExpense, periodIDs, categoryIDs).
		Group("period_id, category_id").
		Rows()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	defer rows.Close()

	sums := make(map[periodCategory]decimal.Decimal)
	for rows.Next() {
		var (
			key periodCategory
			sum decimal.Decimal
		)
		if err := rows.Scan(&key.periodID, &key.categoryID, &sum); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		sums[key] = sum.Round(2)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return sums, nil
}
