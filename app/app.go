package app

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Gin_postgres_redis_tool_lending/db"
	"Gin_postgres_redis_tool_lending/events"
	"Gin_postgres_redis_tool_lending/models"
	"Gin_postgres_redis_tool_lending/session"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	WA     *webauthn.WebAuthn
	Config Config
	Log    *zap.Logger
	Repo   *db.Repo
	Events events.Publisher

	appSess *session.AppSessionStore
}

func (a *App) AppSessions() *session.AppSessionStore { return a.appSess }

// New connects Postgres, Redis and Kafka and builds the router.
func New(ctx context.Context, cfg Config, log *zap.Logger) (*App, error) {
	conn, err := db.Connect(ctx, cfg.DB, log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(conn); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, errors.Wrap(err, "redis ping")
	}

	pub, err := events.New(cfg.Kafka, log)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return NewWithDeps(cfg, log, conn, rdb, pub)
}

// NewWithDeps wires an App around already opened stores.
func NewWithDeps(cfg Config, log *zap.Logger, conn *gorm.DB, rdb *redis.Client, pub events.Publisher) (*App, error) {
	wa, err := webauthn.New(&webauthn.Config{
		RPDisplayName: "Préstamo de herramientas",
		RPID:          cfg.RPID,
		RPOrigins:     cfg.RPOrigins,
	})
	if err != nil {
		return nil, errors.Wrap(err, "webauthn")
	}
	if pub == nil {
		pub = events.Nop{}
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log), RateLimiter(cfg.RateLimit))
	useCORS(r, cfg.WebOrigin)

	return &App{
		Router:  r,
		DB:      conn,
		RDB:     rdb,
		WA:      wa,
		Config:  cfg,
		Log:     log,
		Repo:    db.NewRepo(conn, models.NewStatusResolver(cfg.LoanGraceDays), log),
		Events:  pub,
		appSess: session.NewAppSessionStore(rdb, cfg.SessionTTL),
	}, nil
}

// Run serves HTTP until SIGINT/SIGTERM, then drains for up to 5s.
func (a *App) Run() error {
	addr := net.JoinHostPort(a.Config.HTTP.Host, a.Config.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      a.Router,
		ReadTimeout:  a.Config.HTTP.ReadTimeout,
		WriteTimeout: a.Config.HTTP.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("http server start", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server")
	case s := <-sig:
		a.Log.Info("graceful shutdown", zap.String("signal", s.String()))
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(closeCtx); err != nil {
		return errors.Wrap(err, "http shutdown")
	}
	a.Log.Info("graceful shutdown finished")
	return nil
}

func (a *App) Close() {
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			a.Log.Warn("close events", zap.Error(err))
		}
	}
	if a.RDB != nil {
		_ = a.RDB.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = a.Log.Sync()
}
