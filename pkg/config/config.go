package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix scopes every environment variable the service reads.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "FLORACART_DB_DSN"
	EnvDBHost = "FLORACART_DB_HOST"
	EnvDBUser = "FLORACART_DB_USER"
	EnvDBName = "FLORACART_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
	Shop         ShopConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"FLORACART_APP_ENV" required:"true"`
	Port         string `envconfig:"FLORACART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FLORACART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FLORACART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FLORACART_DB_DSN"`
	Driver string `envconfig:"FLORACART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FLORACART_DB_HOST"`
	LegacyPort     int    `envconfig:"FLORACART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FLORACART_DB_USER"`
	LegacyPassword string `envconfig:"FLORACART_DB_PASSWORD"`
	LegacyName     string `envconfig:"FLORACART_DB_NAME"`
	LegacySSLMode  string `envconfig:"FLORACART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FLORACART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FLORACART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FLORACART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FLORACART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FLORACART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FLORACART_REDIS_ADDR"`
	Password     string        `envconfig:"FLORACART_REDIS_PASSWORD"`
	DB           int           `envconfig:"FLORACART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FLORACART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FLORACART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FLORACART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FLORACART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FLORACART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FLORACART_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"FLORACART_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"FLORACART_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"FLORACART_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// AccessTokenTTL returns the configured access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FLORACART_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FLORACART_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FLORACART_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FLORACART_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FLORACART_ARGON_KEY_LEN" default:"32"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"FLORACART_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FLORACART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FLORACART_AUTO_MIGRATE" default:"false"`
}

// ShopConfig carries storefront-wide knobs: identifier prefixes for
// generated order/request numbers and the notification feed cap.
type ShopConfig struct {
	OrderNumberPrefix string `envconfig:"FLORACART_ORDER_NUMBER_PREFIX" default:"ORD"`
	FeedCap           int    `envconfig:"FLORACART_NOTIFICATION_FEED_CAP" default:"100"`
	Currency          string `envconfig:"FLORACART_CURRENCY" default:"PHP"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"FLORACART_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FLORACART_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"FLORACART_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FLORACART_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"FLORACART_GCS_BUCKET_NAME"`
	UploadURLExpiry   time.Duration `envconfig:"FLORACART_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
	DownloadURLExpiry time.Duration `envconfig:"FLORACART_GCS_DOWNLOAD_URL_EXPIRY" default:"1h"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"FLORACART_PUBSUB_NOTIFICATION_TOPIC" default:"fc-notification-events"`
	NotificationSubscription string `envconfig:"FLORACART_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FLORACART_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FLORACART_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FLORACART_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
