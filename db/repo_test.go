package db

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"Gin_postgres_redis_tool_lending/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const day = 24 * time.Hour

var t0 = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// newTestRepo opens a migrated SQLite file database. One connection keeps
// SQLite from reporting "database is locked" between concurrent readers.
func newTestRepo(t *testing.T) (*Repo, *testClock) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "lending.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, Migrate(conn))

	clock := &testClock{now: t0}
	status := models.NewStatusResolver(models.DefaultGraceDays)
	status.Now = clock.Now
	return NewRepo(conn, status, zap.NewNop()), clock
}

func mustOperator(t *testing.T, r *Repo, email string, role models.Role) *models.Operator {
	t.Helper()
	op, err := r.CreateOperator(context.Background(), CreateOperatorInput{
		Email: email, Name: email, Role: role, Password: "secret1",
	})
	require.NoError(t, err)
	return op
}

func mustItem(t *testing.T, r *Repo, name, category string) *models.Item {
	t.Helper()
	it, err := r.CreateItem(context.Background(), ItemInput{Name: name, Category: category})
	require.NoError(t, err)
	return it
}

func mustBorrower(t *testing.T, r *Repo, name, career string) *models.Borrower {
	t.Helper()
	b, err := r.CreateBorrower(context.Background(), BorrowerInput{Name: name, Career: career})
	require.NoError(t, err)
	return b
}

func TestCreateOperator(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	op := mustOperator(t, r, "Ana@Example.com ", models.RoleAdmin)
	require.Equal(t, "ana@example.com", op.Email)

	_, err := r.CreateOperator(ctx, CreateOperatorInput{Email: "ana@example.com", Role: models.RoleAdmin, Password: "secret1"})
	require.ErrorIs(t, err, ErrEmailTaken)

	_, err = r.CreateOperator(ctx, CreateOperatorInput{Email: "b@example.com", Role: models.RoleAdmin, Password: "123"})
	require.ErrorIs(t, err, ErrWeakPassword)

	_, err = r.CreateOperator(ctx, CreateOperatorInput{Email: "c@example.com", Role: "owner", Password: "secret1"})
	require.ErrorIs(t, err, ErrInvalidRole)

	for _, email := range []string{"not-an-email", "", "d@", "@example.com"} {
		_, err = r.CreateOperator(ctx, CreateOperatorInput{Email: email, Role: models.RoleAdmin, Password: "secret1"})
		require.ErrorIs(t, err, ErrInvalidEmail, email)
	}

	got, err := r.Authenticate(ctx, "ANA@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, op.ID, got.ID)

	_, err = r.Authenticate(ctx, "ana@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = r.Authenticate(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestTouchOperatorLogin(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	op := mustOperator(t, r, "ana@example.com", models.RoleAdmin)

	require.NoError(t, r.TouchOperatorLogin(ctx, op.ID, "10.0.0.1", "curl"))
	require.NoError(t, r.TouchOperatorLogin(ctx, op.ID, "10.0.0.2", "curl"))

	got, err := r.FindOperatorByID(ctx, op.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, got.LoginCount)
	require.Equal(t, "10.0.0.2", got.LastLoginIP)
	require.NotNil(t, got.LastLoginAt)
}

func TestFallbackSuperAdminProtected(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	created, err := r.EnsureFallbackSuperAdmin(ctx, "admin@gmail.com", "Administrador", "secret1")
	require.NoError(t, err)
	require.True(t, created)
	created, err = r.EnsureFallbackSuperAdmin(ctx, "admin@gmail.com", "Administrador", "secret1")
	require.NoError(t, err)
	require.False(t, created)

	other := mustOperator(t, r, "boss@example.com", models.RoleSuperAdmin)

	_, err = r.UpdateOperator(ctx, models.FallbackSuperAdminID, "Renamed", models.RoleAdmin)
	require.ErrorIs(t, err, ErrProtectedOperator)

	// 包括它自己
	self := Actor{ID: models.FallbackSuperAdminID, Name: "Administrador"}
	require.ErrorIs(t, r.DeleteOperator(ctx, models.FallbackSuperAdminID, self), ErrProtectedOperator)
	require.ErrorIs(t, r.DeleteOperator(ctx, models.FallbackSuperAdminID, Actor{ID: other.ID}), ErrProtectedOperator)

	op, err := r.FindOperatorByID(ctx, models.FallbackSuperAdminID)
	require.NoError(t, err)
	require.Equal(t, "Administrador", op.Name)
	require.Equal(t, models.RoleSuperAdmin, op.Role)
}

func TestOperatorGuardsAcceptAnyUUIDSpelling(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	_, err := r.EnsureFallbackSuperAdmin(ctx, "admin@gmail.com", "Administrador", "secret1")
	require.NoError(t, err)
	boss := mustOperator(t, r, "boss@example.com", models.RoleSuperAdmin)
	actor := Actor{ID: boss.ID}

	// Postgres 接受这些写法，守卫必须同样识别
	for _, id := range []string{
		"00000000000000000000000000000001",
		"{00000000-0000-0000-0000-000000000001}",
		"urn:uuid:00000000-0000-0000-0000-000000000001",
		" 00000000-0000-0000-0000-000000000001 ",
	} {
		_, err := r.UpdateOperator(ctx, id, "Renamed", models.RoleAdmin)
		require.ErrorIs(t, err, ErrProtectedOperator, id)
		require.ErrorIs(t, r.DeleteOperator(ctx, id, actor), ErrProtectedOperator, id)
	}

	upper := strings.ToUpper(boss.ID)
	bare := strings.ReplaceAll(boss.ID, "-", "")
	require.ErrorIs(t, r.DeleteOperator(ctx, upper, actor), ErrSelfDelete)
	require.ErrorIs(t, r.DeleteOperator(ctx, bare, actor), ErrSelfDelete)
	require.ErrorIs(t, r.DeleteOperator(ctx, boss.ID, Actor{ID: upper}), ErrSelfDelete)

	_, err = r.UpdateOperator(ctx, "abc", "x", models.RoleAdmin)
	require.ErrorIs(t, err, ErrInvalidID)
	require.ErrorIs(t, r.DeleteOperator(ctx, "abc", actor), ErrInvalidID)

	op, err := r.FindOperatorByID(ctx, models.FallbackSuperAdminID)
	require.NoError(t, err)
	require.Equal(t, "Administrador", op.Name)
	_, err = r.FindOperatorByID(ctx, boss.ID)
	require.NoError(t, err)
}

func TestUpdateAndDeleteOperator(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	boss := mustOperator(t, r, "boss@example.com", models.RoleSuperAdmin)
	ana := mustOperator(t, r, "ana@example.com", models.RoleAdmin)

	got, err := r.UpdateOperator(ctx, ana.ID, "Ana María", models.RoleSuperAdmin)
	require.NoError(t, err)
	require.Equal(t, "Ana María", got.Name)
	require.Equal(t, "ana@example.com", got.Email)
	require.True(t, got.IsSuper())

	_, err = r.UpdateOperator(ctx, "00000000-0000-0000-0000-0000000000ff", "x", models.RoleAdmin)
	require.ErrorIs(t, err, ErrOperatorNotFound)

	require.ErrorIs(t, r.DeleteOperator(ctx, boss.ID, Actor{ID: boss.ID}), ErrSelfDelete)
	require.NoError(t, r.DeleteOperator(ctx, ana.ID, Actor{ID: boss.ID, Name: "boss"}))
	_, err = r.FindOperatorByID(ctx, ana.ID)
	require.ErrorIs(t, err, ErrOperatorNotFound)

	audit, err := r.ListAudit(ctx, AuditQuery{Action: string(models.AuditOperatorDeleted)})
	require.NoError(t, err)
	require.EqualValues(t, 1, audit.Total)
	require.Equal(t, boss.ID, audit.Entries[0].ActorID)
}

func TestListOperators(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	mustOperator(t, r, "boss@example.com", models.RoleSuperAdmin)
	mustOperator(t, r, "ana@example.com", models.RoleAdmin)
	mustOperator(t, r, "luis@example.com", models.RoleAdmin)

	res, err := r.ListOperators(ctx, OperatorsQuery{Role: "admin"})
	require.NoError(t, err)
	require.EqualValues(t, 2, res.Total)

	res, err = r.ListOperators(ctx, OperatorsQuery{Role: "all", Q: "ANA"})
	require.NoError(t, err)
	require.EqualValues(t, 1, res.Total)
	require.Equal(t, "ana@example.com", res.Operators[0].Email)
}

func TestCredentials(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	op := mustOperator(t, r, "ana@example.com", models.RoleAdmin)

	require.NoError(t, r.AddCredential(ctx, &models.Credential{
		OperatorID:   op.ID,
		CredentialID: []byte{1, 2, 3},
		PublicKey:    []byte{9},
	}))
	require.NoError(t, r.UpdateCredentialCounter(ctx, []byte{1, 2, 3}, 7, false))

	cs, err := r.LoadOperatorCredentials(ctx, op.ID)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	require.EqualValues(t, 7, cs[0].SignCount)
	require.NotNil(t, cs[0].LastUsedAt)

	got, err := r.FindOperatorByCredentialID(ctx, []byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, op.ID, got.ID)

	_, err = r.FindOperatorByCredentialID(ctx, []byte{4})
	require.ErrorIs(t, err, ErrOperatorNotFound)
}
