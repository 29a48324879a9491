package models

import "time"

// Period is a date range of a budget that transfers and predictions are
// attached to. Date ranges of one budget never overlap.
type Period struct {
	Base
	BudgetID         string       `gorm:"type:uuid;not null;uniqueIndex:idx_period_budget_name,priority:1" json:"budget_id"`
	Name             string       `gorm:"not null;uniqueIndex:idx_period_budget_name,priority:2" json:"name"`
	DateStart        time.Time    `gorm:"type:date;not null;check:chk_period_dates,date_start < date_end" json:"date_start"`
	DateEnd          time.Time    `gorm:"type:date;not null" json:"date_end"`
	Status           PeriodStatus `gorm:"not null;default:1" json:"status"`
	PreviousPeriodID *string      `gorm:"type:uuid;index" json:"previous_period_id"`

	Budget         *Budget `gorm:"foreignKey:BudgetID;constraint:OnDelete:CASCADE" json:"-"`
	PreviousPeriod *Period `gorm:"foreignKey:PreviousPeriodID;constraint:OnDelete:SET NULL" json:"-"`
}

// Contains reports whether date falls into the period, both ends inclusive.
func (p *Period) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(p.DateStart)) && !d.After(DateOnly(p.DateEnd))
}
