package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config keeps runtime settings for the bot and the push endpoint.
type Config struct {
	Env        string `yaml:"env" env:"NOTIFIER_ENV" env-default:"local"`
	Telegram   `yaml:"telegram"`
	Database   `yaml:"database"`
	HTTPServer `yaml:"http_server"`
	Session    `yaml:"session"`
}

// Telegram configures both the polling bot and the push deliverer.
type Telegram struct {
	Token       string        `yaml:"token" env:"TELEGRAM_BOT_TOKEN" env-required:"true"`
	APIEndpoint string        `yaml:"api_endpoint" env:"TELEGRAM_API_ENDPOINT" env-default:"https://api.telegram.org/bot%s/%s"`
	PollTimeout int           `yaml:"poll_timeout" env:"TELEGRAM_POLL_TIMEOUT" env-default:"60"`
	SendTimeout time.Duration `yaml:"send_timeout" env:"TELEGRAM_SEND_TIMEOUT" env-default:"10s"`
}

// Database selects the registry backend. Postgres is the production store,
// SQLite is handy for local runs.
type Database struct {
	Driver       string        `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	Host         string        `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port         int           `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	Name         string        `yaml:"name" env:"POSTGRES_DB" env-default:"notifier"`
	User         string        `yaml:"user" env:"POSTGRES_USER" env-default:"notifier"`
	Password     string        `yaml:"password" env:"POSTGRES_PASSWORD" env-default:"password123"`
	SSLMode      string        `yaml:"sslmode" env:"POSTGRES_SSLMODE" env-default:"disable"`
	SQLitePath   string        `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"notifier.db"`
	QueryTimeout time.Duration `yaml:"query_timeout" env:"DB_QUERY_TIMEOUT" env-default:"5s"`
}

// HTTPServer configures the push endpoint.
type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8000"`
	Timeout     time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	Secret      string        `yaml:"secret" env:"NOTIFIER_API_SECRET" env-required:"true"`
}

// Session bounds how long an unfinished dialogue is kept in memory.
type Session struct {
	TTL           time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"30m"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"SESSION_SWEEP_INTERVAL" env-default:"1m"`
}

// Load reads configuration from CONFIG_PATH when it is set, otherwise from
// environment variables only. Environment always wins over the file.
func Load() (Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return cfg, fmt.Errorf("read config %q: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Telegram.SendTimeout <= 0 {
		return fmt.Errorf("TELEGRAM_SEND_TIMEOUT must be positive")
	}
	if c.Session.TTL <= 0 || c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session TTL and sweep interval must be positive")
	}
	return nil
}

// DSN returns the connection string for the configured driver.
func (d Database) DSN() string {
	if d.Driver == DriverSQLite {
		return d.SQLitePath
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}
