package ranger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/audit"
	"github.com/xy-planning-network/retention/auth"
	"github.com/xy-planning-network/retention/holds"
	"github.com/xy-planning-network/retention/http/api"
	"github.com/xy-planning-network/retention/http/middleware"
	"github.com/xy-planning-network/retention/http/resp"
	"github.com/xy-planning-network/retention/http/router"
	"github.com/xy-planning-network/retention/lifecycle"
	"github.com/xy-planning-network/retention/logger"
	mongostore "github.com/xy-planning-network/retention/mongo"
	"github.com/xy-planning-network/retention/postgres"
	"github.com/xy-planning-network/retention/reminder"
	"github.com/xy-planning-network/retention/scheduler"
)

const shutdownTimeout = 30 * time.Second

// A Ranger wires every component of the retention service to one another
// and runs the web server and the daily worker.
type Ranger struct {
	cfg   *Config
	env   retention.Environment
	ctx   context.Context
	clock retention.Clock
	l     logger.Logger
	wl    logger.Logger

	db     *postgres.DB
	redis  *redis.Client
	eraser retention.Eraser

	handler http.Handler
	srv     *http.Server
	worker  *scheduler.Worker

	closers   []func(context.Context) error
	closeOnce sync.Once
}

// New constructs a Ranger from the provided options.
// Default options are applied first followed by the options passed into New.
// Options supplied to New overwrite default configurations.
func New(opts ...RangerOption) (*Ranger, error) {
	r := new(Ranger)
	followups := make([]OptFollowup, 0)

	for _, opt := range append(defaultOpts(), opts...) {
		fn, err := opt(r)
		if err != nil {
			return nil, badConfig(err)
		}

		if fn != nil {
			followups = append(followups, fn)
		}
	}

	if r.cfg == nil {
		cfg := NewConfig(r.env)
		r.cfg = &cfg
	}

	if err := r.build(); err != nil {
		_ = r.close(context.Background())
		return nil, badConfig(err)
	}

	for _, fn := range followups {
		if err := fn(); err != nil {
			_ = r.close(context.Background())
			return nil, badConfig(err)
		}
	}

	return r, nil
}

func badConfig(err error) error {
	if errors.Is(err, retention.ErrBadConfig) {
		return err
	}

	return fmt.Errorf("%w: %s", retention.ErrBadConfig, err)
}

// build constructs every component not supplied by a RangerOption.
func (r *Ranger) build() error {
	cfg := *r.cfg
	if err := cfg.Daily.Valid(); err != nil {
		return err
	}

	if r.ctx == nil {
		r.ctx = context.Background()
	}

	if r.clock == nil {
		r.clock = retention.SystemClock{}
	}

	if r.l == nil {
		r.l = defaultLogger(cfg, retention.AppLogKind)
		r.wl = defaultLogger(cfg, retention.WorkerLogKind)
	}

	key := cfg.JWTSigningKey
	if key == "" && cfg.Env.CanUseServiceStub() {
		r.l.Warn(jwtSigningKeyEnvVar+" unset, signing with the development key", nil)
		key = stubJWTSigningKey
	}

	authn, err := auth.NewService(key, cfg.BaseURL, r.clock)
	if err != nil {
		return err
	}

	checks := make(map[string]api.Check)

	if r.db == nil && cfg.Postgres != nil {
		if r.db, err = defaultDB(cfg); err != nil {
			return err
		}

		sqlDB, err := r.db.DB().DB()
		if err != nil {
			return err
		}
		r.closers = append(r.closers, func(context.Context) error { return sqlDB.Close() })
	}

	if r.db == nil && !cfg.Env.CanUseServiceStub() {
		return fmt.Errorf("%w: no database configured", retention.ErrBadConfig)
	}

	if r.db != nil {
		sqlDB, err := r.db.DB().DB()
		if err != nil {
			return err
		}
		checks["postgres"] = sqlDB.PingContext
	} else {
		r.l.Warn("no database configured, using in-memory stores", nil)
	}

	st := defaultStores(r.db, r.clock)

	switch cfg.AuditStore {
	case AuditStorePostgres, "":
	case AuditStoreMongo:
		store, db, err := defaultMongoAudit(r.ctx, cfg)
		if err != nil {
			return err
		}

		st.audit = store
		checks["mongo"] = func(ctx context.Context) error { return mongostore.Ping(ctx, db) }
		r.closers = append(r.closers, db.Client().Disconnect)
	default:
		return fmt.Errorf("%w: %s %q", retention.ErrBadConfig, auditStoreEnvVar, cfg.AuditStore)
	}

	if r.redis == nil && cfg.RedisURL != "" {
		if r.redis, err = defaultRedis(r.ctx, cfg); err != nil {
			return err
		}

		client := r.redis
		r.closers = append(r.closers, func(context.Context) error { return client.Close() })
	}

	if r.redis == nil && !cfg.Env.CanUseServiceStub() {
		return fmt.Errorf("%w: %s is required", retention.ErrBadConfig, redisURLEnvVar)
	}

	if r.redis != nil {
		client := r.redis
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	ports := defaultRedisPorts(r.redis, cfg, r.l)

	if r.eraser == nil {
		if r.eraser, err = defaultEraser(r.ctx, cfg, r.db, r.wl); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := scheduler.NewMetrics(reg)

	sink := audit.New(st.audit, r.l, r.clock)
	registry := holds.NewRegistry(st.accounts, st.holds, sink, r.clock)
	lc := lifecycle.New(
		st.accounts,
		registry,
		sink,
		lifecycle.WithCancelLinks(authn),
		lifecycle.WithClock(r.clock),
		lifecycle.WithEraser(r.eraser),
		lifecycle.WithGracePeriod(cfg.GracePeriod),
		lifecycle.WithLogger(r.l),
		lifecycle.WithNotifier(ports.notifier),
		lifecycle.WithReauth(authn),
		lifecycle.WithReceipts(st.receipts),
		lifecycle.WithSessions(ports.revoker),
	)

	sched := scheduler.New(
		st.accounts,
		lc,
		sink,
		scheduler.WithClock(r.clock),
		scheduler.WithLogger(r.wl),
		scheduler.WithMetrics(metrics),
		scheduler.WithParallelism(cfg.Parallelism),
	)

	emitter := reminder.New(
		st.accounts,
		st.ledger,
		ports.notifier,
		authn,
		reminder.WithClock(r.clock),
		reminder.WithLogger(r.wl),
		reminder.WithMetrics(metrics),
		reminder.WithParallelism(cfg.Parallelism),
	)

	r.worker = scheduler.NewWorker(cfg.Daily, r.clock, r.wl, metrics, sched.Job(), emitter.Job())

	d := resp.NewResponder(resp.WithLogger(r.l))
	rt := router.New(cfg.Env, d)
	rt.OnEveryRequest(
		middleware.ForceHTTPS(cfg.Env),
		middleware.RequestID(),
		middleware.InjectIPAddress(),
		middleware.LogRequest(r.l),
	)

	h := api.New(d, lc, registry, authn, r.worker, checks)
	h.Metrics = reg
	h.Register(rt, api.Guards{
		Authn:       middleware.CurrentCaller(d, authn, ports.revoker),
		SelfService: middleware.RateLimit(middleware.NewVisitors(cfg.SelfServiceRate, cfg.SelfServiceBurst)),
		Idempotent:  middleware.Idempotent(ports.idem, r.l),
	})

	r.handler = middleware.CORS(cfg.CORSOrigin)(rt)
	r.srv = defaultServer(r.ctx, cfg)
	r.srv.Handler = r.handler

	return nil
}

// EmitLogger exposes the app's logger.Logger.
func (r *Ranger) EmitLogger() logger.Logger { return r.l }

// Handler is the root http.Handler of the web server.
func (r *Ranger) Handler() http.Handler { return r.handler }

// RunNow runs the scheduler and reminder jobs once, returning each job's Result.
func (r *Ranger) RunNow(ctx context.Context) map[string]scheduler.Result {
	return r.worker.RunNow(ctx)
}

// Guide begins the web server and the daily worker.
//
// These, and (*Ranger).Shutdown, stop Guide:
//
// - os.Interrupt
// - syscall.SIGHUP
// - syscall.SIGINT
// - syscall.SIGQUIT
// - syscall.SIGTERM
func (r *Ranger) Guide() error {
	ctx, cancel := context.WithCancel(r.ctx)
	defer cancel()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	defer signal.Stop(ch)

	go func() {
		select {
		case s := <-ch:
			r.l.Info(fmt.Sprint("received shutdown signal: ", s), nil)
			cancel()
		case <-ctx.Done():
		}
	}()

	listenErr := make(chan error, 1)
	go func() {
		r.l.Info(fmt.Sprintf("running web server at %s", r.srv.Addr), nil)
		if err := r.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			listenErr <- fmt.Errorf("could not listen: %w", err)
			cancel()
		}
	}()

	r.worker.Start()

	<-ctx.Done()
	err := r.Shutdown()

	select {
	case lerr := <-listenErr:
		return lerr
	default:
		return err
	}
}

// Shutdown stops the web server and the worker, then closes connections the Ranger opened.
func (r *Ranger) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	r.l.Info("shutting down web server", nil)
	err := r.srv.Shutdown(ctx)
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}

	r.worker.Stop()

	if cerr := r.close(ctx); err == nil {
		err = cerr
	}

	if err != nil {
		return fmt.Errorf("could not shutdown: %w", err)
	}

	r.l.Info("web server shutdown successfully", nil)
	return nil
}

// close runs every closer once, in reverse order.
func (r *Ranger) close(ctx context.Context) error {
	var err error
	r.closeOnce.Do(func() {
		for i := len(r.closers) - 1; i >= 0; i-- {
			if cerr := r.closers[i](ctx); cerr != nil && err == nil {
				err = cerr
			}
		}
	})

	return err
}
