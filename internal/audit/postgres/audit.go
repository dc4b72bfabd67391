package postgres

import (
	"context"

	"github.com/frahmantamala/project-management/internal"
	"github.com/frahmantamala/project-management/internal/audit"
	auditDatamodel "github.com/frahmantamala/project-management/internal/core/datamodel/audit"
	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository binds to db, which may be a transaction handle.
func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Record(ctx context.Context, rec *audit.Record) error {
	model := audit.ToDataModel(rec)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return internal.NewStorageUnavailableError(err)
	}
	rec.ID = model.ID
	return nil
}

func (r *AuditRepository) ListByTarget(ctx context.Context, targetType string, targetID int64, limit int) ([]*audit.Record, error) {
	var rows []auditDatamodel.AuditLog
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, internal.NewStorageUnavailableError(err)
	}

	records := make([]*audit.Record, len(rows))
	for i := range rows {
		records[i] = audit.FromDataModel(&rows[i])
	}
	return records, nil
}
