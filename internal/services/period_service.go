package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "budgetory/internal/errors"
	"budgetory/internal/logger"
	"budgetory/internal/models"
	"budgetory/internal/pagination"
)

var periodOrdering = map[string]string{
	"name":       "name",
	"date_start": "date_start",
	"date_end":   "date_end",
	"status":     "status",
}

// periodService handles period-related business logic.
type periodService struct {
	db    *gorm.DB
	scope ScopeServicer
}

// NewPeriodService creates a new PeriodServicer.
func NewPeriodService(db *gorm.DB, scope ScopeServicer) PeriodServicer {
	return &periodService{db: db, scope: scope}
}

// CreatePeriod creates a period in the budget and links it to the period it follows.
func (s *periodService) CreatePeriod(actor Actor, budgetID string, in PeriodInput) (*models.Period, error) {
	if _, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID}); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}
	start, end := models.DateOnly(in.DateStart), models.DateOnly(in.DateEnd)
	if !start.Before(end) {
		return nil, apperrors.ErrInvalidPeriodDates
	}
	status := in.Status
	if status == 0 {
		status = models.PeriodStatusDraft
	}
	if !status.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid period status")
	}

	period := &models.Period{
		BudgetID:  budgetID,
		Name:      name,
		DateStart: start,
		DateEnd:   end,
		Status:    status,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := checkPeriodName(tx, budgetID, name, ""); err != nil {
			return err
		}
		if err := checkPeriodOverlap(tx, budgetID, start, end, ""); err != nil {
			return err
		}
		if status == models.PeriodStatusActive {
			if err := checkNoActivePeriod(tx, budgetID, ""); err != nil {
				return err
			}
		}

		previousID, err := previousPeriodID(tx, budgetID, start, in.PreviousPeriodID)
		if err != nil {
			return err
		}
		period.PreviousPeriodID = previousID

		if err := tx.Create(period).Error; err != nil {
			return dbError(err, apperrors.ErrDuplicatePeriod)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return period, nil
}

// GetBudgetPeriods returns a paginated, filtered list of the budget's periods.
func (s *periodService) GetBudgetPeriods(actor Actor, budgetID string, page pagination.PageRequest, filter PeriodFilter) (*pagination.PageResponse[models.Period], error) {
	if _, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID}); err != nil {
		return nil, err
	}
	page.Defaults()

	base := s.db.Model(&models.Period{}).Where("budget_id = ?", budgetID)
	if filter.Name != "" {
		base = base.Where("LOWER(name) LIKE ?", likePattern(filter.Name))
	}
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var periods []models.Period
	if err := base.Scopes(pagination.Order(page, periodOrdering, "date_start DESC"), pagination.Paginate(page)).
		Find(&periods).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(periods, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetPeriodByID returns a period of the budget.
func (s *periodService) GetPeriodByID(actor Actor, budgetID, periodID string) (*models.Period, error) {
	resolved, err := s.scope.Resolve(actor, Scope{BudgetID: budgetID, PeriodID: periodID})
	if err != nil {
		return nil, err
	}
	return resolved.Period, nil
}

// UpdatePeriod changes a period. Closed periods cannot change and active
// periods cannot return to draft. Activating a period freezes the initial
// plan of its predictions.
func (s *periodService) UpdatePeriod(actor Actor, budgetID, periodID string, upd PeriodUpdate) (*models.Period, error) {
	period, err := s.GetPeriodByID(actor, budgetID, periodID)
	if err != nil {
		return nil, err
	}
	if period.Status == models.PeriodStatusClosed {
		return nil, apperrors.ErrPeriodClosed
	}

	updates := make(map[string]interface{})
	name := period.Name
	if upd.Name != nil {
		name = strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name cannot be empty")
		}
		updates["name"] = name
	}

	start, end := models.DateOnly(period.DateStart), models.DateOnly(period.DateEnd)
	datesChanged := false
	if upd.DateStart != nil {
		start = models.DateOnly(*upd.DateStart)
		updates["date_start"] = start
		datesChanged = true
	}
	if upd.DateEnd != nil {
		end = models.DateOnly(*upd.DateEnd)
		updates["date_end"] = end
		datesChanged = true
	}
	if datesChanged && !start.Before(end) {
		return nil, apperrors.ErrInvalidPeriodDates
	}

	activating := false
	if upd.Status != nil && *upd.Status != period.Status {
		next := *upd.Status
		if !next.Valid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid period status")
		}
		if period.Status == models.PeriodStatusActive && next == models.PeriodStatusDraft {
			return nil, apperrors.ErrInvalidPeriodState
		}
		activating = next == models.PeriodStatusActive
		updates["status"] = next
	}

	if len(updates) == 0 {
		return period, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if upd.Name != nil {
			if err := checkPeriodName(tx, budgetID, name, period.ID); err != nil {
				return err
			}
		}
		if datesChanged {
			if err := checkPeriodOverlap(tx, budgetID, start, end, period.ID); err != nil {
				return err
			}
			if err := checkTransfersWithin(tx, period.ID, start, end); err != nil {
				return err
			}
		}
		if activating {
			if err := checkNoActivePeriod(tx, budgetID, period.ID); err != nil {
				return err
			}
		}

		if err := tx.Model(period).Updates(updates).Error; err != nil {
			return dbError(err, apperrors.ErrDuplicatePeriod)
		}

		if activating {
			res := tx.Model(&models.ExpensePrediction{}).
				Where("period_id = ?", period.ID).
				Update("initial_plan", gorm.Expr("current_plan"))
			if res.Error != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
			}
			logger.Named("periods").Infow("period activated",
				"budget_id", budgetID,
				"period_id", period.ID,
				"predictions_frozen", res.RowsAffected,
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetPeriodByID(actor, budgetID, periodID)
}

// DeletePeriod deletes a period together with its predictions. Periods with
// transfers and closed periods are kept.
func (s *periodService) DeletePeriod(actor Actor, budgetID, periodID string) error {
	period, err := s.GetPeriodByID(actor, budgetID, periodID)
	if err != nil {
		return err
	}
	if period.Status == models.PeriodStatusClosed {
		return apperrors.ErrPeriodClosed
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Transfer{}).Where("period_id = ?", period.ID).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.ErrPeriodInUse
		}

		if err := tx.Where("period_id = ?", period.ID).Delete(&models.ExpensePrediction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&models.Period{}).
			Where("previous_period_id = ?", period.ID).
			Update("previous_period_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(period).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

func checkPeriodName(tx *gorm.DB, budgetID, name, excludeID string) error {
	q := tx.Model(&models.Period{}).Where("budget_id = ? AND name = ?", budgetID, name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicatePeriod
	}
	return nil
}

func checkPeriodOverlap(tx *gorm.DB, budgetID string, start, end time.Time, excludeID string) error {
	q := tx.Model(&models.Period{}).
		Where("budget_id = ? AND date_start <= ? AND date_end >= ?", budgetID, end, start)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrPeriodOverlap
	}
	return nil
}

func checkNoActivePeriod(tx *gorm.DB, budgetID, excludeID string) error {
	q := tx.Model(&models.Period{}).Where("budget_id = ? AND status = ?", budgetID, models.PeriodStatusActive)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrActivePeriodExists
	}
	return nil
}

// checkTransfersWithin rejects a date range change that would leave
// transfers of the period outside of it.
func checkTransfersWithin(tx *gorm.DB, periodID string, start, end time.Time) error {
	var count int64
	if err := tx.Model(&models.Transfer{}).
		Where("period_id = ? AND (date < ? OR date > ?)", periodID, start, end).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.WithMessage(apperrors.ErrDateOutsidePeriod, "Period has transfers outside of the new date range.")
	}
	return nil
}

// previousPeriodID validates an explicit previous period or picks the latest
// period of the budget ending before start.
func previousPeriodID(tx *gorm.DB, budgetID string, start time.Time, explicit *string) (*string, error) {
	if explicit != nil {
		var prev models.Period
		if err := findInBudget(tx, &prev, budgetID, *explicit, apperrors.ErrPeriodNotFound); err != nil {
			return nil, err
		}
		if !prev.DateEnd.Before(start) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "previous period has to end before the period starts")
		}
		return &prev.ID, nil
	}

	var prev models.Period
	err := tx.Where("budget_id = ? AND date_end < ?", budgetID, start).
		Order("date_end DESC").
		First(&prev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &prev.ID, nil
}

// likePattern builds a case-insensitive substring pattern for LOWER(col) LIKE ?.
func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}
