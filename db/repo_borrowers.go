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

type BorrowerInput struct {
	Name      string
	StudentID string
	Career    string
	Email     string
	Phone     string
}

func (in BorrowerInput) fields() map[string]any {
	return map[string]any{
		"name":       strings.TrimSpace(in.Name),
		"student_id": strings.TrimSpace(in.StudentID),
		"career":     strings.TrimSpace(in.Career),
		"email":      normalizeEmail(in.Email),
		"phone":      strings.TrimSpace(in.Phone),
	}
}

func (r *Repo) CreateBorrower(ctx context.Context, in BorrowerInput) (*models.Borrower, error) {
	b := &models.Borrower{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		StudentID: strings.TrimSpace(in.StudentID),
		Career:    strings.TrimSpace(in.Career),
		Email:     normalizeEmail(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
	}
	if err := r.DB.WithContext(ctx).Create(b).Error; err != nil {
		return nil, errors.Wrap(err, "insert borrower")
	}
	return b, nil
}

func (r *Repo) FindBorrowerByID(ctx context.Context, id string) (*models.Borrower, error) {
	var b models.Borrower
	if err := r.DB.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrBorrowerNotFound, "find borrower")
	}
	return &b, nil
}

func (r *Repo) UpdateBorrower(ctx context.Context, id string, in BorrowerInput) (*models.Borrower, error) {
	f := in.fields()
	f["updated_at"] = r.now()
	res := r.DB.WithContext(ctx).Model(&models.Borrower{}).Where("id = ?", id).Updates(f)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "update borrower")
	}
	if res.RowsAffected == 0 {
		return nil, ErrBorrowerNotFound
	}
	return r.FindBorrowerByID(ctx, id)
}

func (r *Repo) DeleteBorrower(ctx context.Context, id string, actor Actor) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b models.Borrower
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&b, "id = ?", id).Error; err != nil {
			return notFound(err, ErrBorrowerNotFound, "lock borrower")
		}
		var n int64
		if err := tx.Model(&models.ActiveLoan{}).Where("borrower_id = ?", id).Count(&n).Error; err != nil {
			return errors.Wrap(err, "count loans")
		}
		if n > 0 {
			return ErrBorrowerHasLoans
		}
		if err := tx.Delete(&models.Borrower{}, "id = ?", id).Error; err != nil {
			return errors.Wrap(err, "delete borrower")
		}
		return writeAudit(tx, models.AuditEntry{
			Action: models.AuditBorrowerDeleted,
			Detail: strPtr(b.Name),
		}, actor, r.now())
	})
}

type BorrowersQuery struct {
	Q      string // name / student id / career / email
	Career string
	Page   int
	Size   int
}

type PagedBorrowers struct {
	Total     int64             `json:"total"`
	Borrowers []models.Borrower `json:"borrowers"`
}

func (r *Repo) ListBorrowers(ctx context.Context, q BorrowersQuery) (*PagedBorrowers, error) {
	tx := r.DB.WithContext(ctx).Model(&models.Borrower{})
	if like := likePattern(q.Q); like != "" {
		tx = tx.Where(likeAny("name", "student_id", "career", "email"), repeatArg(like, 4)...)
	}
	if c := filterValue(q.Career); c != "" {
		tx = tx.Where("career = ?", c)
	}

	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, errors.Wrap(err, "count borrowers")
	}
	var bs []models.Borrower
	if err := tx.Session(&gorm.Session{}).
		Scopes(paginate(q.Page, q.Size)).
		Order("name ASC, id ASC").
		Find(&bs).Error; err != nil {
		return nil, errors.Wrap(err, "list borrowers")
	}
	return &PagedBorrowers{Total: total, Borrowers: bs}, nil
}

func (r *Repo) ListCareers(ctx context.Context) ([]string, error) {
	var out []string
	err := r.DB.WithContext(ctx).Model(&models.Borrower{}).
		Where("career <> ''").
		Distinct("career").
		Order("career").
		Pluck("career", &out).Error
	return out, errors.Wrap(err, "list careers")
}
