// db/repo_items.go
package db

import (
	"context"
	"strings"

	"Gin_postgres_redis_tool_lending/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ItemInput struct {
	Name        string
	Description string
	Category    string
}

func (in ItemInput) trimmed() ItemInput {
	return ItemInput{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
	}
}

// CreateItem registers a new tool as available and stamps its QR payload.
func (r *Repo) CreateItem(ctx context.Context, in ItemInput) (*models.Item, error) {
	in = in.trimmed()
	now := r.now()
	it := &models.Item{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Available:   true,
	}
	qr, err := models.NewQRPayload(it.ID, now)
	if err != nil {
		return nil, errors.Wrap(err, "qr payload")
	}
	it.QRPayload = qr
	if err := r.DB.WithContext(ctx).Create(it).Error; err != nil {
		return nil, errors.Wrap(err, "insert item")
	}
	return it, nil
}

func (r *Repo) FindItemByID(ctx context.Context, id string) (*models.Item, error) {
	var it models.Item
	if err := r.DB.WithContext(ctx).First(&it, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrItemNotFound, "find item")
	}
	return &it, nil
}

// UpdateItem never touches availability; only the loan workflows do.
func (r *Repo) UpdateItem(ctx context.Context, id string, in ItemInput) (*models.Item, error) {
	in = in.trimmed()
	res := r.DB.WithContext(ctx).Model(&models.Item{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"name":        in.Name,
			"description": in.Description,
			"category":    in.Category,
			"updated_at":  r.now(),
		})
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "update item")
	}
	if res.RowsAffected == 0 {
		return nil, ErrItemNotFound
	}
	return r.FindItemByID(ctx, id)
}

func (r *Repo) DeleteItem(ctx context.Context, id string, actor Actor) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var it models.Item
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&it, "id = ?", id).Error; err != nil {
			return notFound(err, ErrItemNotFound, "lock item")
		}
		var n int64
		if err := tx.Model(&models.ActiveLoan{}).Where("item_id = ?", id).Count(&n).Error; err != nil {
			return errors.Wrap(err, "count loans")
		}
		if n > 0 || !it.Available {
			return ErrItemOnLoan
		}
		if err := tx.Delete(&models.Item{}, "id = ?", id).Error; err != nil {
			return errors.Wrap(err, "delete item")
		}
		return writeAudit(tx, models.AuditEntry{
			Action: models.AuditItemDeleted,
			ItemID: &it.ID,
			Detail: strPtr(it.Name),
		}, actor, r.now())
	})
}

type ItemsQuery struct {
	Q            string // name / description
	Category     string
	Availability string // "", "all", "available", "loaned"
	Page         int
	Size         int
}

type PagedItems struct {
	Total int64         `json:"total"`
	Items []models.Item `json:"items"`
}

func (r *Repo) ListItems(ctx context.Context, q ItemsQuery) (*PagedItems, error) {
	tx := r.DB.WithContext(ctx).Model(&models.Item{})
	if like := likePattern(q.Q); like != "" {
		tx = tx.Where(likeAny("name", "description"), like, like)
	}
	if c := filterValue(q.Category); c != "" {
		tx = tx.Where("category = ?", c)
	}
	switch filterValue(q.Availability) {
	case "available":
		tx = tx.Where("available = ?", true)
	case "loaned":
		tx = tx.Where("available = ?", false)
	}

	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, errors.Wrap(err, "count items")
	}
	var items []models.Item
	if err := tx.Session(&gorm.Session{}).
		Scopes(paginate(q.Page, q.Size)).
		Order("name ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, "list items")
	}
	return &PagedItems{Total: total, Items: items}, nil
}

func (r *Repo) ListItemCategories(ctx context.Context) ([]string, error) {
	var cats []string
	err := r.DB.WithContext(ctx).Model(&models.Item{}).
		Where("category <> ''").
		Distinct("category").
		Order("category").
		Pluck("category", &cats).Error
	return cats, errors.Wrap(err, "list categories")
}
