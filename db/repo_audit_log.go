package db

import (
	"context"
	"time"

	"Gin_postgres_redis_tool_lending/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Actor is the operator performing a write.
type Actor struct {
	ID   string
	Name string
}

func writeAudit(tx *gorm.DB, e models.AuditEntry, actor Actor, at time.Time) error {
	e.ID = uuid.NewString()
	e.ActorID = actor.ID
	e.ActorName = actor.Name
	e.CreatedAt = at
	if err := tx.Create(&e).Error; err != nil {
		return errors.Wrap(err, "insert audit entry")
	}
	return nil
}

type AuditQuery struct {
	Action string
	Page   int
	Size   int
}

type PagedAudit struct {
	Total   int64               `json:"total"`
	Entries []models.AuditEntry `json:"entries"`
}

func (r *Repo) ListAudit(ctx context.Context, q AuditQuery) (*PagedAudit, error) {
	tx := r.DB.WithContext(ctx).Model(&models.AuditEntry{})
	if a := filterValue(q.Action); a != "" {
		tx = tx.Where("action = ?", a)
	}
	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, errors.Wrap(err, "count audit")
	}
	var entries []models.AuditEntry
	if err := tx.Session(&gorm.Session{}).
		Scopes(paginate(q.Page, q.Size)).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, errors.Wrap(err, "list audit")
	}
	return &PagedAudit{Total: total, Entries: entries}, nil
}
