package db

import (
	"context"
	"fmt"
	"time"

	"Gin_postgres_redis_tool_lending/models"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Host     string `default:"127.0.0.1"`
	Port     string `default:"5432"`
	User     string `default:"postgres"`
	Password string
	Name     string `default:"tool_lending"`
	SSLMode  string `default:"disable"`

	MaxOpenConns    int           `split_words:"true" default:"20"`
	MaxIdleConns    int           `split_words:"true" default:"5"`
	ConnMaxLifetime time.Duration `split_words:"true" default:"30m"`
}

func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode,
	)
}

// Connect opens the Postgres pool and checks it is reachable.
func Connect(ctx context.Context, cfg Config, log *zap.Logger) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, errors.Wrap(err, "sql db")
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, errors.Wrap(err, "ping postgres")
	}
	log.Info("database connected", zap.String("host", cfg.Host), zap.String("db", cfg.Name))
	return conn, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Operator{},
		&models.Credential{},
		&models.Item{},
		&models.Borrower{},
		&models.ActiveLoan{},
		&models.LoanHistory{},
		&models.Settings{},
		&models.AuditEntry{},
	); err != nil {
		return errors.Wrap(err, "auto migrate")
	}

	// 逾期查询按借出时间倒序
	if err := db.Exec(fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s_borrower_loandate ON %s (borrower_id, loan_date DESC)`,
		models.LoanTable, models.LoanTable,
	)).Error; err != nil {
		return errors.Wrap(err, "create loan index")
	}

	def := models.DefaultSettings()
	return db.Where(models.Settings{ID: def.ID}).FirstOrCreate(&def).Error
}
