package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"budgetory/internal/logger"
	"budgetory/internal/models"
)

type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log stores the event. The write it describes has already succeeded, so a
// failure here is logged and swallowed.
func (s *auditService) Log(event AuditEvent) {
	log := logger.Named("audit").With(
		"action", event.Action,
		"resource_type", event.ResourceType,
		"resource_id", event.ResourceID,
		"budget_id", event.BudgetID,
	)

	entry := &models.AuditLog{
		UserID:       event.UserID,
		BudgetID:     optionalID(event.BudgetID),
		Action:       event.Action,
		ResourceType: event.ResourceType,
		ResourceID:   optionalID(event.ResourceID),
		IPAddress:    event.IPAddress,
		Changes:      encodeChanges(event.Changes),
	}
	if entry.Changes == "" && len(event.Changes) > 0 {
		log.Warnw("audit changes dropped, not encodable")
	}

	if err := s.db.Create(entry).Error; err != nil {
		log.Errorw("failed to store audit entry", "error", err, "user_id", event.UserID)
	}
}

// encodeChanges renders changes as JSON, or "" when there are none or they
// cannot be encoded.
func encodeChanges(changes map[string]interface{}) string {
	if len(changes) == 0 {
		return ""
	}
	data, err := json.Marshal(changes)
	if err != nil {
		return ""
	}
	return string(data)
}
