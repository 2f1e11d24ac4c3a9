// app/bootstrap.go
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"Gin_postgres_redis_tool_lending/db"

	"go.uber.org/zap"
)

// BootstrapSuperAdmin makes sure the protected super-operator exists. When
// SUPERADMIN_PASSWORD is empty a random one is generated and logged once.
func BootstrapSuperAdmin(ctx context.Context, cfg Config, repo *db.Repo, log *zap.Logger) error {
	password := cfg.SuperAdmin.Password
	generated := false
	if password == "" {
		buf := make([]byte, 9)
		if _, err := rand.Read(buf); err != nil {
			return err
		}
		password = hex.EncodeToString(buf)
		generated = true
	}

	created, err := repo.EnsureFallbackSuperAdmin(ctx, cfg.SuperAdmin.Email, cfg.SuperAdmin.Name, password)
	if err != nil {
		return err
	}
	if !created {
		log.Debug("[BOOTSTRAP] super admin present")
		return nil
	}
	log.Info("[BOOTSTRAP] created super admin", zap.String("email", cfg.SuperAdmin.Email))
	if generated {
		log.Warn("[BOOTSTRAP] generated super admin password, set SUPERADMIN_PASSWORD to choose one",
			zap.String("password", password))
	}
	return nil
}
