package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	SMTP          SMTPConfig
	Notify        NotifyConfig
	Outbox        OutboxConfig
	Cron          CronConfig
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
	Env          string `envconfig:"IBTS_APP_ENV" required:"true"`
	Port         string `envconfig:"IBTS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"IBTS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"IBTS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"IBTS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"IBTS_DB_DSN"`
	Driver string `envconfig:"IBTS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"IBTS_DB_HOST"`
	LegacyPort     int    `envconfig:"IBTS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"IBTS_DB_USER"`
	LegacyPassword string `envconfig:"IBTS_DB_PASSWORD"`
	LegacyName     string `envconfig:"IBTS_DB_NAME"`
	LegacySSLMode  string `envconfig:"IBTS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"IBTS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"IBTS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"IBTS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"IBTS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"IBTS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"IBTS_REDIS_ADDR"`
	Password     string        `envconfig:"IBTS_REDIS_PASSWORD"`
	DB           int           `envconfig:"IBTS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"IBTS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"IBTS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"IBTS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"IBTS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"IBTS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"IBTS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"IBTS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"IBTS_JWT_EXPIRATION_MINUTES" default:"480"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"IBTS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"IBTS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"IBTS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"IBTS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"IBTS_ARGON_KEY_LEN" default:"32"`

	MaxFailedAttempts int           `envconfig:"IBTS_MAX_FAILED_LOGIN_ATTEMPTS" default:"5"`
	LockoutDuration   time.Duration `envconfig:"IBTS_LOGIN_LOCKOUT_DURATION" default:"15m"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"IBTS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"IBTS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"IBTS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"IBTS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"IBTS_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"IBTS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"IBTS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"IBTS_AUTO_MIGRATE" default:"false"`
}

type SMTPConfig struct {
	Host     string `envconfig:"IBTS_SMTP_HOST"`
	Port     int    `envconfig:"IBTS_SMTP_PORT" default:"587"`
	Username string `envconfig:"IBTS_SMTP_USERNAME"`
	Password string `envconfig:"IBTS_SMTP_PASSWORD"`
	From     string `envconfig:"IBTS_SMTP_FROM" default:"noreply@ibts.local"`
	FromName string `envconfig:"IBTS_SMTP_FROM_NAME" default:"IBTS Notifications"`
}

type NotifyConfig struct {
	BaseURL             string        `envconfig:"IBTS_NOTIFY_BASE_URL" default:"http://localhost:3000"`
	InvitationExpiry    time.Duration `envconfig:"IBTS_INVITATION_EXPIRY" default:"168h"`
	InvitationRetention time.Duration `envconfig:"IBTS_INVITATION_RETENTION" default:"720h"`
}

type OutboxConfig struct {
	BatchSize    int           `envconfig:"IBTS_OUTBOX_BATCH_SIZE" default:"20"`
	PollInterval time.Duration `envconfig:"IBTS_OUTBOX_POLL_INTERVAL" default:"30s"`
	MaxRetries   int           `envconfig:"IBTS_OUTBOX_MAX_RETRIES" default:"3"`
	RetentionAge time.Duration `envconfig:"IBTS_OUTBOX_RETENTION_AGE" default:"720h"`
}

type CronConfig struct {
	StaleIncidentAge      time.Duration `envconfig:"IBTS_CRON_STALE_INCIDENT_AGE" default:"168h"`
	StaleIncidentInterval time.Duration `envconfig:"IBTS_CRON_STALE_INCIDENT_INTERVAL" default:"1h"`
	CleanupInterval       time.Duration `envconfig:"IBTS_CRON_CLEANUP_INTERVAL" default:"6h"`
	LockTTL               time.Duration `envconfig:"IBTS_CRON_LOCK_TTL" default:"10m"`
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
