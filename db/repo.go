package db

import (
	"context"
	"strings"
	"time"

	"Gin_postgres_redis_tool_lending/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const MinPasswordLen = 6

var validate = validator.New()

type Repo struct {
	DB     *gorm.DB
	Status models.StatusResolver
	log    *zap.Logger
}

func NewRepo(db *gorm.DB, status models.StatusResolver, log *zap.Logger) *Repo {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repo{DB: db, Status: status, log: log.Named("repo")}
}

func (r *Repo) now() time.Time {
	if r.Status.Now == nil {
		return time.Now().UTC()
	}
	return r.Status.Now().UTC()
}

// Operators

func HashPassword(pw string) (string, error) {
	if len(pw) < MinPasswordLen {
		return "", ErrWeakPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(b), nil
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

type CreateOperatorInput struct {
	ID       string
	Email    string
	Name     string
	Role     models.Role
	Password string
}

// CreateOperator validates and inserts an operator. The duplicate-email check
// runs before the insert; the unique index catches the race.
func (r *Repo) CreateOperator(ctx context.Context, in CreateOperatorInput) (*models.Operator, error) {
	if !in.Role.Valid() {
		return nil, ErrInvalidRole
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(in.Email)
	if validate.Var(email, "required,email,max=255") != nil {
		return nil, ErrInvalidEmail
	}

	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Operator{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return nil, errors.Wrap(err, "check email")
	}
	if n > 0 {
		return nil, ErrEmailTaken
	}

	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = email
	}
	op := &models.Operator{ID: id, Email: email, Name: name, Role: in.Role, PasswordHash: hash}
	if err := r.DB.WithContext(ctx).Create(op).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, errors.Wrap(err, "insert operator")
	}
	return op, nil
}

// Authenticate checks an email/password pair.
func (r *Repo) Authenticate(ctx context.Context, email, password string) (*models.Operator, error) {
	op, err := r.FindOperatorByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrOperatorNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if op.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return op, nil
}

func (r *Repo) TouchOperatorLogin(ctx context.Context, id, ip, ua string) error {
	now := r.now()
	return r.DB.WithContext(ctx).Model(&models.Operator{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_login_at": now,
			"last_seen_at":  now,
			"login_count":   gorm.Expr("COALESCE(login_count, 0) + 1"),
			"last_login_ip": ip,
			"last_login_ua": ua,
		}).Error
}

func (r *Repo) TouchOperatorSeen(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Model(&models.Operator{}).
		Where("id = ?", id).
		Update("last_seen_at", r.now()).Error
}

func (r *Repo) FindOperatorByID(ctx context.Context, id string) (*models.Operator, error) {
	var op models.Operator
	if err := r.DB.WithContext(ctx).First(&op, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrOperatorNotFound, "find operator")
	}
	return &op, nil
}

func (r *Repo) FindOperatorByEmail(ctx context.Context, email string) (*models.Operator, error) {
	var op models.Operator
	if err := r.DB.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&op).Error; err != nil {
		return nil, notFound(err, ErrOperatorNotFound, "find operator")
	}
	return &op, nil
}

type OperatorsQuery struct {
	Q    string
	Role string // "", "all", "admin", "superadmin"
	Page int
	Size int
}

type PagedOperators struct {
	Total     int64             `json:"total"`
	Operators []models.Operator `json:"operators"`
}

func (r *Repo) ListOperators(ctx context.Context, q OperatorsQuery) (*PagedOperators, error) {
	tx := r.DB.WithContext(ctx).Model(&models.Operator{})
	if like := likePattern(q.Q); like != "" {
		tx = tx.Where(likeAny("name", "email"), like, like)
	}
	if role := filterValue(q.Role); role != "" {
		tx = tx.Where("role = ?", role)
	}

	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, errors.Wrap(err, "count operators")
	}
	var ops []models.Operator
	if err := tx.Session(&gorm.Session{}).
		Scopes(paginate(q.Page, q.Size)).
		Order("created_at DESC").
		Find(&ops).Error; err != nil {
		return nil, errors.Wrap(err, "list operators")
	}
	return &PagedOperators{Total: total, Operators: ops}, nil
}

// UpdateOperator changes only name and role.
func (r *Repo) UpdateOperator(ctx context.Context, id, name string, role models.Role) (*models.Operator, error) {
	id, err := canonicalID(id)
	if err != nil {
		return nil, err
	}
	if id == models.FallbackSuperAdminID {
		return nil, ErrProtectedOperator
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	res := r.DB.WithContext(ctx).Model(&models.Operator{}).
		Where("id = ?", id).
		Updates(map[string]any{"name": strings.TrimSpace(name), "role": role})
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "update operator")
	}
	if res.RowsAffected == 0 {
		return nil, ErrOperatorNotFound
	}
	return r.FindOperatorByID(ctx, id)
}

// DeleteOperator removes an operator and its passkeys. actor is the caller.
// Ids are compared in canonical form so other uuid spellings cannot slip
// past the guards.
func (r *Repo) DeleteOperator(ctx context.Context, id string, actor Actor) error {
	id, err := canonicalID(id)
	if err != nil {
		return err
	}
	if id == models.FallbackSuperAdminID {
		return ErrProtectedOperator
	}
	if self, err := canonicalID(actor.ID); err == nil && id == self {
		return ErrSelfDelete
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var op models.Operator
		if err := tx.First(&op, "id = ?", id).Error; err != nil {
			return notFound(err, ErrOperatorNotFound, "find operator")
		}
		if err := tx.Where("operator_id = ?", id).Delete(&models.Credential{}).Error; err != nil {
			return errors.Wrap(err, "delete credentials")
		}
		if err := tx.Delete(&models.Operator{}, "id = ?", id).Error; err != nil {
			return errors.Wrap(err, "delete operator")
		}
		return writeAudit(tx, models.AuditEntry{
			Action: models.AuditOperatorDeleted,
			Detail: strPtr(op.Email),
		}, actor, r.now())
	})
}

// EnsureFallbackSuperAdmin creates the protected super-operator if missing
// and keeps its role at superadmin. It reports whether the row was created.
func (r *Repo) EnsureFallbackSuperAdmin(ctx context.Context, email, name, password string) (bool, error) {
	op, err := r.FindOperatorByID(ctx, models.FallbackSuperAdminID)
	switch {
	case err == nil:
		if op.Role != models.RoleSuperAdmin {
			return false, r.DB.WithContext(ctx).Model(op).Update("role", models.RoleSuperAdmin).Error
		}
		return false, nil
	case !errors.Is(err, ErrOperatorNotFound):
		return false, err
	}
	_, err = r.CreateOperator(ctx, CreateOperatorInput{
		ID:       models.FallbackSuperAdminID,
		Email:    email,
		Name:     name,
		Role:     models.RoleSuperAdmin,
		Password: password,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Credentials

func (r *Repo) LoadOperatorCredentials(ctx context.Context, operatorID string) ([]models.Credential, error) {
	var cs []models.Credential
	if err := r.DB.WithContext(ctx).Where("operator_id = ?", operatorID).Find(&cs).Error; err != nil {
		return nil, errors.Wrap(err, "load credentials")
	}
	return cs, nil
}

func (r *Repo) AddCredential(ctx context.Context, c *models.Credential) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *Repo) UpdateCredentialCounter(ctx context.Context, credID []byte, newCount uint32, cloneWarn bool) error {
	return r.DB.WithContext(ctx).Model(&models.Credential{}).
		Where("credential_id = ?", credID).
		Updates(map[string]any{"sign_count": newCount, "clone_warning": cloneWarn, "last_used_at": r.now()}).Error
}

func (r *Repo) FindOperatorByCredentialID(ctx context.Context, credID []byte) (*models.Operator, error) {
	var c models.Credential
	if err := r.DB.WithContext(ctx).Where("credential_id = ?", credID).First(&c).Error; err != nil {
		return nil, notFound(err, ErrOperatorNotFound, "find credential")
	}
	return r.FindOperatorByID(ctx, c.OperatorID)
}
