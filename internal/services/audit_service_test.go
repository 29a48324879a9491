package services

import (
	"math"
	"testing"

	"budgetory/internal/models"
	"budgetory/internal/testutil"
)

func TestAuditLog(t *testing.T) {
	t.Run("budget_event", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewAuditService(f.db)

		svc.Log(AuditEvent{
			UserID:       f.owner.ID,
			BudgetID:     f.budget.ID,
			Action:       "CREATE_PERIOD",
			ResourceType: "period",
			ResourceID:   f.budget.ID,
			IPAddress:    "10.0.0.1",
			Changes:      map[string]interface{}{"name": "January"},
		})

		var entry models.AuditLog
		testutil.AssertNoError(t, f.db.Where("budget_id = ?", f.budget.ID).First(&entry).Error)
		if entry.Action != "CREATE_PERIOD" || entry.IPAddress != "10.0.0.1" {
			t.Errorf("unexpected entry %+v", entry)
		}
		if entry.Changes != `{"name":"January"}` {
			t.Errorf("expected encoded changes, got %q", entry.Changes)
		}
	})

	t.Run("account_event_has_no_budget", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewAuditService(f.db)

		svc.Log(AuditEvent{UserID: f.owner.ID, Action: "LOGIN", ResourceType: "user", ResourceID: f.owner.ID})

		var entry models.AuditLog
		testutil.AssertNoError(t, f.db.Where("action = ?", "LOGIN").First(&entry).Error)
		if entry.BudgetID != nil {
			t.Errorf("expected no budget, got %s", *entry.BudgetID)
		}
		if entry.Changes != "" {
			t.Errorf("expected no changes, got %q", entry.Changes)
		}
	})

	t.Run("unencodable_changes_still_logged", func(t *testing.T) {
		f := newBudgetFixture(t)
		svc := NewAuditService(f.db)

		svc.Log(AuditEvent{
			UserID:       f.owner.ID,
			BudgetID:     f.budget.ID,
			Action:       "UPDATE_BUDGET",
			ResourceType: "budget",
			ResourceID:   f.budget.ID,
			Changes:      map[string]interface{}{"ratio": math.Inf(1)},
		})

		var count int64
		testutil.AssertNoError(t, f.db.Model(&models.AuditLog{}).Where("action = ?", "UPDATE_BUDGET").Count(&count).Error)
		if count != 1 {
			t.Errorf("expected 1 entry, got %d", count)
		}
	})
}
