package config

const (
	EnvPrefix = "FENCEOPS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvAppEnv        = "FENCEOPS_APP_ENV"
	EnvPort          = "FENCEOPS_APP_PORT"
	EnvDBDSN         = "FENCEOPS_DB_DSN"
	EnvDBDriver      = "FENCEOPS_DB_DRIVER"
	EnvDBHost        = "FENCEOPS_DB_HOST"
	EnvDBUser        = "FENCEOPS_DB_USER"
	EnvDBName        = "FENCEOPS_DB_NAME"
	EnvDBPassword    = "FENCEOPS_DB_PASSWORD"
	EnvRedisURL      = "FENCEOPS_REDIS_URL"
	EnvPricingUseRPC = "FENCEOPS_PRICING_USE_RPC"
	EnvMinMargin     = "FENCEOPS_APPROVAL_MIN_MARGIN_PERCENT"
	EnvMaxTotal      = "FENCEOPS_APPROVAL_MAX_TOTAL"
	EnvMinDeposit    = "FENCEOPS_APPROVAL_MIN_DEPOSIT_PERCENT"
	EnvMaxDeposit    = "FENCEOPS_APPROVAL_MAX_DEPOSIT_PERCENT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
