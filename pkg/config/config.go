package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "CRAFTSTOCK"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv = "CRAFTSTOCK_APP_ENV"
	EnvDBDSN  = "CRAFTSTOCK_DB_DSN"
	EnvDBHost = "CRAFTSTOCK_DB_HOST"
	EnvDBUser = "CRAFTSTOCK_DB_USER"
	EnvDBName = "CRAFTSTOCK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CRAFTSTOCK_APP_ENV" required:"true"`
	Port         string `envconfig:"CRAFTSTOCK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CRAFTSTOCK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CRAFTSTOCK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CRAFTSTOCK_DB_DSN"`
	Driver string `envconfig:"CRAFTSTOCK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CRAFTSTOCK_DB_HOST"`
	LegacyPort     int    `envconfig:"CRAFTSTOCK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CRAFTSTOCK_DB_USER"`
	LegacyPassword string `envconfig:"CRAFTSTOCK_DB_PASSWORD"`
	LegacyName     string `envconfig:"CRAFTSTOCK_DB_NAME"`
	LegacySSLMode  string `envconfig:"CRAFTSTOCK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CRAFTSTOCK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CRAFTSTOCK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CRAFTSTOCK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CRAFTSTOCK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CRAFTSTOCK_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
