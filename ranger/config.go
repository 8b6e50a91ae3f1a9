package ranger

import (
	"net/url"
	"os"
	"time"

	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/erasure"
	"github.com/xy-planning-network/retention/logger"
	"github.com/xy-planning-network/retention/postgres"
	"github.com/xy-planning-network/retention/scheduler"
	"golang.org/x/time/rate"
)

const (
	// Base URL defaults
	BaseURLEnvVar  = "BASE_URL"
	defaultBaseURL = "http://" + DefaultHost + DefaultPort

	// Environment defaults
	environmentEnvVar = "ENVIRONMENT"

	// Log defaults
	logLevelEnvVar  = "LOG_LEVEL"
	sentryDsnEnvVar = "SENTRY_DSN"

	// Auth defaults
	jwtSigningKeyEnvVar  = "JWT_SIGNING_KEY"
	stubJWTSigningKey    = "retention-development-signing-key"
	revocationTTLEnvVar  = "SESSION_REVOCATION_TTL"
	defaultRevocationTTL = 30 * 24 * time.Hour

	// Database defaults
	dbHostEnvVar         = "DATABASE_HOST"
	defaultDBHost        = "localhost"
	dbNameEnvVar         = "DATABASE_NAME"
	dbPassEnvVar         = "DATABASE_PASSWORD"
	dbPortEnvVar         = "DATABASE_PORT"
	defaultDBPort        = "5432"
	dbSSLModeEnvVar      = "DATABASE_SSLMODE"
	defaultDBSSLMode     = "prefer"
	dbURLEnvVar          = "DATABASE_URL"
	dbUserEnvVar         = "DATABASE_USER"
	dbMaxIdleCxnsEnvVar  = "DATABASE_MAX_IDLE_CXNS"
	defaultDBMaxIdleCxns = 1

	// Test database defaults
	dbTestHostEnvVar     = "DATABASE_TEST_HOST"
	defaultDBTestHost    = "localhost"
	dbTestNameEnvVar     = "DATABASE_TEST_NAME"
	dbTestPassEnvVar     = "DATABASE_TEST_PASSWORD"
	dbTestPortEnvVar     = "DATABASE_TEST_PORT"
	defaultDBTestPort    = "5432"
	dbTestUserEnvVar     = "DATABASE_TEST_USER"
	dbTestSSLModeEnvVar  = "DATABASE_TEST_SSLMODE"
	defaultDBTestSSLMode = "prefer"

	// Redis defaults
	redisURLEnvVar      = "REDIS_URL"
	redisPasswordEnvVar = "REDIS_PASSWORD"

	// Audit store defaults
	auditStoreEnvVar    = "AUDIT_STORE"
	AuditStorePostgres  = "postgres"
	AuditStoreMongo     = "mongo"
	mongoURIEnvVar      = "MONGO_URI"
	mongoDatabaseEnvVar = "MONGO_DATABASE"
	defaultMongoDB      = "retention"

	// Lifecycle defaults
	gracePeriodEnvVar     = "RETENTION_GRACE_PERIOD"
	schedulerHourEnvVar   = "SCHEDULER_HOUR"
	schedulerMinuteEnvVar = "SCHEDULER_MINUTE"
	parallelismEnvVar     = "SCHEDULER_PARALLELISM"

	// Erasure defaults
	erasureWebhookEnvVar      = "ERASURE_WEBHOOK_URL"
	erasureClientIDEnvVar     = "ERASURE_CLIENT_ID"
	erasureClientSecretEnvVar = "ERASURE_CLIENT_SECRET"
	erasureTokenURLEnvVar     = "ERASURE_TOKEN_URL"
	erasureGCSBucketEnvVar    = "ERASURE_GCS_BUCKET"
	erasureS3EndpointEnvVar   = "ERASURE_S3_ENDPOINT"
	erasureS3BucketEnvVar     = "ERASURE_S3_BUCKET"
	erasureS3AccessKeyEnvVar  = "ERASURE_S3_ACCESS_KEY"
	erasureS3SecretKeyEnvVar  = "ERASURE_S3_SECRET_KEY"
	erasureS3UseSSLEnvVar     = "ERASURE_S3_USE_SSL"
	erasurePurgeTablesEnvVar  = "ERASURE_PURGE_TABLES"

	// Web server defaults
	DefaultHost               = "localhost"
	DefaultPort               = ":3000"
	portEnvVar                = "PORT"
	corsOriginEnvVar          = "CORS_ORIGIN"
	serverReadTimeoutEnvVar   = "SERVER_READ_TIMEOUT"
	DefaultServerReadTimeout  = 5 * time.Second
	serverIdleTimeoutEnvVar   = "SERVER_IDLE_TIMEOUT"
	DefaultServerIdleTimeout  = 120 * time.Second
	serverWriteTimeoutEnvVar  = "SERVER_WRITE_TIMEOUT"
	DefaultServerWriteTimeout = 5 * time.Minute

	// Self-service throttling defaults
	selfServiceRateEnvVar   = "SELF_SERVICE_RATE"
	defaultSelfServiceRate  = time.Minute / 10
	selfServiceBurstEnvVar  = "SELF_SERVICE_BURST"
	defaultSelfServiceBurst = 5
)

// Config is everything a Ranger reads from the environment.
type Config struct {
	Env       retention.Environment
	LogLevel  logger.LogLevel
	SentryDSN string

	BaseURL          *url.URL
	Port             string
	CORSOrigin       string
	ReadTimeout      time.Duration
	IdleTimeout      time.Duration
	WriteTimeout     time.Duration
	SelfServiceRate  rate.Limit
	SelfServiceBurst int

	JWTSigningKey string
	RevocationTTL time.Duration

	// Postgres is nil when no database is configured.
	Postgres *postgres.CxnConfig

	RedisURL      string
	RedisPassword string

	AuditStore    string
	MongoURI      string
	MongoDatabase string

	GracePeriod time.Duration
	Daily       scheduler.Daily
	Parallelism int

	Erasure ErasureConfig
}

// ErasureConfig selects the erasure.Steps a Ranger runs.
// Steps left unconfigured are skipped.
type ErasureConfig struct {
	PurgeTables []string

	WebhookURL   string
	ClientID     string
	ClientSecret string
	TokenURL     string

	GCSBucket string

	S3 erasure.S3Config
}

// NewConfig reads a Config for env from environment variables.
// Confer the package documentation for each variable.
func NewConfig(env retention.Environment) Config {
	cfg := Config{
		Env:       env,
		LogLevel:  envVarOrLogLevel(logLevelEnvVar, logger.LogLevelInfo),
		SentryDSN: os.Getenv(sentryDsnEnvVar),

		BaseURL:          retention.EnvVarOrURL(BaseURLEnvVar, defaultBaseURL),
		Port:             retention.EnvVarOrString(portEnvVar, DefaultPort),
		CORSOrigin:       os.Getenv(corsOriginEnvVar),
		ReadTimeout:      retention.EnvVarOrDuration(serverReadTimeoutEnvVar, DefaultServerReadTimeout),
		IdleTimeout:      retention.EnvVarOrDuration(serverIdleTimeoutEnvVar, DefaultServerIdleTimeout),
		WriteTimeout:     retention.EnvVarOrDuration(serverWriteTimeoutEnvVar, DefaultServerWriteTimeout),
		SelfServiceRate:  rate.Every(retention.EnvVarOrDuration(selfServiceRateEnvVar, defaultSelfServiceRate)),
		SelfServiceBurst: retention.EnvVarOrInt(selfServiceBurstEnvVar, defaultSelfServiceBurst),

		JWTSigningKey: os.Getenv(jwtSigningKeyEnvVar),
		RevocationTTL: retention.EnvVarOrDuration(revocationTTLEnvVar, defaultRevocationTTL),

		Postgres: NewPostgresConfig(env),

		RedisURL:      os.Getenv(redisURLEnvVar),
		RedisPassword: os.Getenv(redisPasswordEnvVar),

		AuditStore:    retention.EnvVarOrString(auditStoreEnvVar, AuditStorePostgres),
		MongoURI:      os.Getenv(mongoURIEnvVar),
		MongoDatabase: retention.EnvVarOrString(mongoDatabaseEnvVar, defaultMongoDB),

		GracePeriod: retention.EnvVarOrDuration(gracePeriodEnvVar, retention.DefaultGracePeriod),
		Daily: scheduler.Daily{
			Hour:   retention.EnvVarOrInt(schedulerHourEnvVar, scheduler.DefaultDaily.Hour),
			Minute: retention.EnvVarOrInt(schedulerMinuteEnvVar, scheduler.DefaultDaily.Minute),
		},
		Parallelism: retention.EnvVarOrInt(parallelismEnvVar, scheduler.DefaultParallelism),

		Erasure: ErasureConfig{
			PurgeTables:  retention.EnvVarOrStrings(erasurePurgeTablesEnvVar, nil),
			WebhookURL:   os.Getenv(erasureWebhookEnvVar),
			ClientID:     os.Getenv(erasureClientIDEnvVar),
			ClientSecret: os.Getenv(erasureClientSecretEnvVar),
			TokenURL:     os.Getenv(erasureTokenURLEnvVar),
			GCSBucket:    os.Getenv(erasureGCSBucketEnvVar),
			S3: erasure.S3Config{
				Endpoint:  os.Getenv(erasureS3EndpointEnvVar),
				Bucket:    os.Getenv(erasureS3BucketEnvVar),
				AccessKey: os.Getenv(erasureS3AccessKeyEnvVar),
				SecretKey: os.Getenv(erasureS3SecretKeyEnvVar),
				UseSSL:    retention.EnvVarOrBool(erasureS3UseSSLEnvVar, true),
			},
		},
	}

	if cfg.Port[0] != ':' {
		cfg.Port = ":" + cfg.Port
	}

	return cfg
}

// NewPostgresConfig constructs a *postgres.CxnConfig appropriate to the given environment.
// Confer the DATABASE env vars for usage.
//
// NewPostgresConfig returns nil when no database is configured for env.
func NewPostgresConfig(env retention.Environment) *postgres.CxnConfig {
	var cfg *postgres.CxnConfig
	dbURL := os.Getenv(dbURLEnvVar)
	switch {
	case env.IsTesting():
		if os.Getenv(dbTestNameEnvVar) == "" {
			return nil
		}

		cfg = &postgres.CxnConfig{
			Host:     retention.EnvVarOrString(dbTestHostEnvVar, defaultDBTestHost),
			IsTestDB: true,
			Name:     os.Getenv(dbTestNameEnvVar),
			Password: os.Getenv(dbTestPassEnvVar),
			Port:     retention.EnvVarOrString(dbTestPortEnvVar, defaultDBTestPort),
			SSLMode:  retention.EnvVarOrString(dbTestSSLModeEnvVar, defaultDBTestSSLMode),
			User:     os.Getenv(dbTestUserEnvVar),
		}

	case dbURL != "":
		cfg = &postgres.CxnConfig{IsTestDB: false, URL: dbURL}

	case os.Getenv(dbNameEnvVar) != "":
		cfg = &postgres.CxnConfig{
			Host:     retention.EnvVarOrString(dbHostEnvVar, defaultDBHost),
			IsTestDB: false,
			Name:     os.Getenv(dbNameEnvVar),
			Password: os.Getenv(dbPassEnvVar),
			Port:     retention.EnvVarOrString(dbPortEnvVar, defaultDBPort),
			SSLMode:  retention.EnvVarOrString(dbSSLModeEnvVar, defaultDBSSLMode),
			User:     os.Getenv(dbUserEnvVar),
		}

	default:
		return nil
	}

	cfg.MaxIdleCxns = retention.EnvVarOrInt(dbMaxIdleCxnsEnvVar, defaultDBMaxIdleCxns)

	return cfg
}

// envVarOrLogLevel gets the environment variable from the provided key,
// creates a logger.LogLevel from the retrieved value,
// or returns the provided default logger.LogLevel
// if the value is an unknown logger.LogLevel.
func envVarOrLogLevel(key string, def logger.LogLevel) logger.LogLevel {
	val := os.Getenv(key)
	if val == "" {
		return def
	}

	ll := logger.NewLogLevel(val)
	if ll == logger.LogLevelUnk {
		return def
	}

	return ll
}
