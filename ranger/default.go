package ranger

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/erasure"
	"github.com/xy-planning-network/retention/http/middleware"
	"github.com/xy-planning-network/retention/logger"
	"github.com/xy-planning-network/retention/memory"
	mongostore "github.com/xy-planning-network/retention/mongo"
	"github.com/xy-planning-network/retention/notify"
	"github.com/xy-planning-network/retention/postgres"
	"github.com/xy-planning-network/retention/session"
	"go.mongodb.org/mongo-driver/mongo"
)

const pingTimeout = 5 * time.Second

// stores are the persistence ports the lifecycle runs against.
type stores struct {
	accounts retention.AccountStore
	holds    retention.HoldStore
	audit    retention.AuditStore
	ledger   retention.ReminderLedger
	receipts retention.ReceiptStore
}

// redisPorts are the components backed by Redis, or their stand-ins.
type redisPorts struct {
	revoker  session.Revoker
	notifier retention.Notifier
	idem     middleware.IdempotencyCacher
}

// defaultLogger constructs the logger.Logger for kind,
// shipping errors to Sentry when SENTRY_DSN is set.
func defaultLogger(cfg Config, kind string) logger.Logger {
	return logger.NewLogger(
		cfg.SentryDSN,
		logger.WithEnv(cfg.Env.String()),
		logger.WithKind(kind),
		logger.WithLevel(cfg.LogLevel),
	)
}

// defaultDB connects to Postgres and runs every migration.
func defaultDB(cfg Config) (*postgres.DB, error) {
	db, err := postgres.Connect(cfg.Postgres, postgres.Migrations, cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to postgres: %s", retention.ErrDependency, err)
	}

	return db, nil
}

// defaultStores chooses Postgres when db is set
// and the in-memory store otherwise.
func defaultStores(db *postgres.DB, clock retention.Clock) stores {
	if db == nil {
		mem := memory.New().WithClock(clock)
		return stores{accounts: mem, holds: mem, audit: mem, ledger: mem, receipts: mem}
	}

	return stores{
		accounts: postgres.NewAccountStore(db),
		holds:    postgres.NewHoldStore(db),
		audit:    postgres.NewAuditStore(db),
		ledger:   postgres.NewReminderLedger(db),
		receipts: postgres.NewReceiptStore(db),
	}
}

// defaultRedis connects to REDIS_URL.
func defaultRedis(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", retention.ErrBadConfig, redisURLEnvVar, err)
	}

	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: pinging redis: %s", retention.ErrDependency, err)
	}

	return client, nil
}

// defaultRedisPorts builds the Redis-backed components,
// or in-process stand-ins when client is nil.
func defaultRedisPorts(client *redis.Client, cfg Config, l logger.Logger) redisPorts {
	if client == nil {
		return redisPorts{
			revoker:  session.NewMapRevoker(),
			notifier: notify.NewLogNotifier(l),
			idem:     middleware.NewIdemResMap(),
		}
	}

	return redisPorts{
		revoker:  session.NewRedisRevoker(client, cfg.RevocationTTL),
		notifier: notify.NewRedisOutbox(client),
		idem:     middleware.NewRedisCache(client),
	}
}

// defaultMongoAudit connects to MONGO_URI and prepares the audit_log collection.
func defaultMongoAudit(ctx context.Context, cfg Config) (*mongostore.AuditStore, *mongo.Database, error) {
	db, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, nil, err
	}

	store := mongostore.NewAuditStore(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = db.Client().Disconnect(context.Background())
		return nil, nil, err
	}

	return store, db, nil
}

// defaultEraser assembles the erasure.Steps cfg configures.
func defaultEraser(ctx context.Context, cfg Config, db *postgres.DB, l logger.Logger) (*erasure.Pipeline, error) {
	var steps []erasure.Step

	if db != nil && len(cfg.Erasure.PurgeTables) > 0 {
		purge, err := postgres.NewPurgeStep(db, cfg.Erasure.PurgeTables)
		if err != nil {
			return nil, err
		}

		steps = append(steps, purge)
	}

	if ec := cfg.Erasure; ec.WebhookURL != "" {
		var client *http.Client
		if ec.ClientID != "" {
			client = erasure.ClientCredentials(ctx, ec.ClientID, ec.ClientSecret, ec.TokenURL)
		}

		steps = append(steps, erasure.NewWebhookStep(ec.WebhookURL, client))
	}

	if cfg.Erasure.GCSBucket != "" {
		gcs, err := erasure.NewGCSStep(ctx, cfg.Erasure.GCSBucket)
		if err != nil {
			return nil, err
		}

		steps = append(steps, gcs)
	}

	if cfg.Erasure.S3.Endpoint != "" {
		s3, err := erasure.NewS3Step(cfg.Erasure.S3)
		if err != nil {
			return nil, err
		}

		steps = append(steps, s3)
	}

	if len(steps) == 0 && !cfg.Env.CanUseServiceStub() {
		return nil, fmt.Errorf("%w: no erasure steps configured", retention.ErrBadConfig)
	}

	return erasure.New(l, steps...), nil
}

// defaultServer constructs a default [*http.Server].
func defaultServer(ctx context.Context, cfg Config) *http.Server {
	srv := &http.Server{
		Addr:         cfg.Port,
		IdleTimeout:  cfg.IdleTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if ctx != nil {
		srv.BaseContext = func(_ net.Listener) context.Context { return ctx }
	}

	return srv
}
