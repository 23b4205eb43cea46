package config

const (
	// EnvPrefix is passed to envconfig; explicit envconfig tags on every
	// field keep variable names stable regardless of struct layout.
	EnvPrefix = "IBTS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv     = "IBTS_APP_ENV"
	EnvPort       = "IBTS_APP_PORT"
	EnvRedisURL   = "IBTS_REDIS_URL"
	EnvJWTSecret  = "IBTS_JWT_SECRET"
	EnvJWTIssuer  = "IBTS_JWT_ISSUER"
	EnvJWTExpMins = "IBTS_JWT_EXPIRATION_MINUTES"

	EnvDBDSN  = "IBTS_DB_DSN"
	EnvDBHost = "IBTS_DB_HOST"
	EnvDBUser = "IBTS_DB_USER"
	EnvDBName = "IBTS_DB_NAME"

	ServiceKindAPI      = "api"
	ServiceKindNotifier = "notification-processor"
	ServiceKindCron     = "cron-worker"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
