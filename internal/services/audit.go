package services

import (
	"encoding/json"

	"github.com/cnichols1734/belvieu-digital/internal/models/db_models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// recordAudit appends an audit event inside the caller's transaction.
// Failures are logged but never abort the surrounding business write.
func recordAudit(tx *gorm.DB, workspaceID, actorUserID *uuid.UUID, action string, meta map[string]any) {
	var payload datatypes.JSON
	if len(meta) > 0 {
		raw, err := json.Marshal(meta)
		if err != nil {
			zap.L().Warn("audit metadata marshal failed", zap.String("action", action), zap.Error(err))
		} else {
			payload = datatypes.JSON(raw)
		}
	}

	event := db_models.AuditEvent{
		WorkspaceID: workspaceID,
		ActorUserID: actorUserID,
		Action:      action,
		Metadata:    payload,
	}
	if err := tx.Create(&event).Error; err != nil {
		zap.L().Warn("audit event write failed", zap.String("action", action), zap.Error(err))
	}
}
