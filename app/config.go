package app

import (
	"strings"
	"sync"
	"time"

	"Gin_postgres_redis_tool_lending/db"
	"Gin_postgres_redis_tool_lending/events"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

type HTTPServer struct {
	Host         string        `default:"0.0.0.0"`
	Port         string        `default:"3001"`
	ReadTimeout  time.Duration `split_words:"true" default:"15s"`
	WriteTimeout time.Duration `split_words:"true" default:"30s"`
}

type Redis struct {
	Addr     string `default:"127.0.0.1:6379"`
	Password string
	DB       int `default:"0"`
}

type SuperAdmin struct {
	Email    string `default:"admin@gmail.com"`
	Name     string `default:"Administrador"`
	Password string
}

type RateLimit struct {
	RPS   float64 `default:"20"`
	Burst int     `default:"40"`
}

type Log struct {
	Level string `default:"info"`
	Sink  string
}

// Config 从环境变量读取（.env 可选）
type Config struct {
	HTTP       HTTPServer    `envconfig:"HTTP"`
	DB         db.Config     `envconfig:"DB"`
	Redis      Redis         `envconfig:"REDIS"`
	Kafka      events.Config `envconfig:"KAFKA"`
	SuperAdmin SuperAdmin    `envconfig:"SUPERADMIN"`
	RateLimit  RateLimit     `envconfig:"RATE_LIMIT"`
	Log        Log           `envconfig:"LOG"`

	WebOrigin     string        `envconfig:"WEB_ORIGIN" default:"http://localhost:5173"`
	RPID          string        `envconfig:"RP_ID" default:"localhost"`
	RPOrigins     []string      `envconfig:"RP_ORIGINS" default:"http://localhost:5173"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	WebAuthnTTL   time.Duration `envconfig:"WEBAUTHN_TTL" default:"5m"`
	LoanGraceDays int           `envconfig:"LOAN_GRACE_DAYS" default:"15"`
	AllowSignup   bool          `envconfig:"ALLOW_SIGNUP" default:"true"`
	SeenThrottle  time.Duration `envconfig:"SEEN_THROTTLE" default:"5m"`
}

func (c Config) SecureCookies() bool { return strings.HasPrefix(c.WebOrigin, "https://") }

type Option func(*Config)

var (
	once   sync.Once
	cfg    Config
	cfgErr error
)

// LoadConfig reads .env (if present) and the environment once per process.
// Options run after the environment so tests and commands can override it.
func LoadConfig(opts ...Option) (Config, error) {
	once.Do(func() {
		_ = godotenv.Load()
		var c Config
		if err := envconfig.Process("", &c); err != nil {
			cfgErr = errors.Wrap(err, "load config")
			return
		}
		cfg = c
	})
	if cfgErr != nil {
		return Config{}, cfgErr
	}
	c := cfg
	for _, op := range opts {
		op(&c)
	}
	return c, nil
}

func WithLogLevel(level string) Option {
	return func(c *Config) {
		if level != "" {
			c.Log.Level = level
		}
	}
}

func WithPort(port string) Option {
	return func(c *Config) {
		if port != "" {
			c.HTTP.Port = port
		}
	}
}
