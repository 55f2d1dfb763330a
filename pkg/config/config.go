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
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Session       SessionConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Invite        InviteConfig
	CNPJ          CNPJConfig
	Cache         CacheConfig
	Cron          CronConfig
	Company       CompanyConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		return &cfg, nil
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SITESTOCK_APP_ENV" required:"true"`
	Port         string `envconfig:"SITESTOCK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SITESTOCK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SITESTOCK_LOG_WARN_STACK" default:"false"`
	PublicURL    string `envconfig:"SITESTOCK_PUBLIC_URL" default:"http://localhost:3000"`
	CORSOrigins  string `envconfig:"SITESTOCK_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	var out []string
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

type DBConfig struct {
	DSN    string `envconfig:"SITESTOCK_DB_DSN"`
	Driver string `envconfig:"SITESTOCK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SITESTOCK_DB_HOST"`
	LegacyPort     int    `envconfig:"SITESTOCK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SITESTOCK_DB_USER"`
	LegacyPassword string `envconfig:"SITESTOCK_DB_PASSWORD"`
	LegacyName     string `envconfig:"SITESTOCK_DB_NAME"`
	LegacySSLMode  string `envconfig:"SITESTOCK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SITESTOCK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SITESTOCK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SITESTOCK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SITESTOCK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SITESTOCK_REDIS_URL"`
	Address      string        `envconfig:"SITESTOCK_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"SITESTOCK_REDIS_PASSWORD"`
	DB           int           `envconfig:"SITESTOCK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SITESTOCK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SITESTOCK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SITESTOCK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SITESTOCK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SITESTOCK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SITESTOCK_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SITESTOCK_JWT_ISSUER" default:"sitestock"`
	ExpirationMinutes      int    `envconfig:"SITESTOCK_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"SITESTOCK_REFRESH_TOKEN_TTL_MINUTES" default:"1440"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

// SessionConfig controls the browser cookie carrying the access token.
type SessionConfig struct {
	CookieName  string        `envconfig:"SITESTOCK_SESSION_COOKIE_NAME" default:"__session"`
	Secure      bool          `envconfig:"SITESTOCK_SESSION_COOKIE_SECURE" default:"true"`
	RememberTTL time.Duration `envconfig:"SITESTOCK_SESSION_REMEMBER_TTL" default:"168h"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SITESTOCK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SITESTOCK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SITESTOCK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SITESTOCK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SITESTOCK_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"SITESTOCK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"SITESTOCK_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"SITESTOCK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	JoinWindow      time.Duration `envconfig:"SITESTOCK_AUTH_RATE_LIMIT_JOIN_WINDOW" default:"5m"`
	JoinEmailLimit  int           `envconfig:"SITESTOCK_AUTH_RATE_LIMIT_JOIN_EMAIL_LIMIT" default:"3"`
	JoinIPLimit     int           `envconfig:"SITESTOCK_AUTH_RATE_LIMIT_JOIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool   `envconfig:"SITESTOCK_USE_SQLITE" default:"false"`
	SQLitePath  string `envconfig:"SITESTOCK_SQLITE_PATH" default:"sitestock.db"`
	AutoMigrate bool   `envconfig:"SITESTOCK_AUTO_MIGRATE" default:"false"`
}

type InviteConfig struct {
	TTL time.Duration `envconfig:"SITESTOCK_INVITE_TTL" default:"72h"`
}

// CNPJConfig points at the public company registry used to prefill clients.
type CNPJConfig struct {
	BaseURL  string        `envconfig:"SITESTOCK_CNPJ_BASE_URL" default:"https://brasilapi.com.br/api"`
	Timeout  time.Duration `envconfig:"SITESTOCK_CNPJ_TIMEOUT" default:"10s"`
	CacheTTL time.Duration `envconfig:"SITESTOCK_CNPJ_CACHE_TTL" default:"24h"`
}

type CacheConfig struct {
	InventoryTTL time.Duration `envconfig:"SITESTOCK_CACHE_INVENTORY_TTL" default:"5m"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"SITESTOCK_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"SITESTOCK_CRON_LOCK_TTL" default:"10m"`
}

// CompanyConfig is printed in receipt headers.
type CompanyConfig struct {
	Name    string `envconfig:"SITESTOCK_COMPANY_NAME" default:"Sitestock Locações"`
	Address string `envconfig:"SITESTOCK_COMPANY_ADDRESS"`
	Phone   string `envconfig:"SITESTOCK_COMPANY_PHONE"`
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
