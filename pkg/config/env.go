package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "SITESTOCK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "SITESTOCK_APP_ENV"
	EnvPort         = "SITESTOCK_APP_PORT"
	EnvPublicURL    = "SITESTOCK_PUBLIC_URL"
	EnvDBDSN        = "SITESTOCK_DB_DSN"
	EnvDBHost       = "SITESTOCK_DB_HOST"
	EnvDBUser       = "SITESTOCK_DB_USER"
	EnvDBName       = "SITESTOCK_DB_NAME"
	EnvRedisURL     = "SITESTOCK_REDIS_URL"
	EnvJWTSecret    = "SITESTOCK_JWT_SECRET"
	EnvJWTIssuer    = "SITESTOCK_JWT_ISSUER"
	EnvJWTExpMins   = "SITESTOCK_JWT_EXPIRATION_MINUTES"
	EnvUseSQLite    = "SITESTOCK_USE_SQLITE"
	EnvInviteTTL    = "SITESTOCK_INVITE_TTL"
	EnvCompanyName  = "SITESTOCK_COMPANY_NAME"
	EnvCNPJBaseURL  = "SITESTOCK_CNPJ_BASE_URL"
	EnvInventoryTTL = "SITESTOCK_CACHE_INVENTORY_TTL"

	EnvRefreshTokenTTLMinutes = "SITESTOCK_REFRESH_TOKEN_TTL_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
