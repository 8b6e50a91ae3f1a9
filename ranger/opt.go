package ranger

import (
	"context"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/xy-planning-network/retention"
	"github.com/xy-planning-network/retention/logger"
	"github.com/xy-planning-network/retention/postgres"
)

// A RangerOption configures a *Ranger either (1) directly, immediately upon being called
// or (2) in the OptFollowup it returns.
// Some RangerOptions require components New builds,
// and thus an OptFollowup can be returned in order to be called once they exist.
//
// WithDB is an example of the first.
// An unexported field on the passed in *Ranger is updated with the enclosed value.
//
// WithServer is an example of the second.
// The *http.Server only receives the Ranger's handler
// when the closure it returns is called.
type RangerOption func(rng *Ranger) (OptFollowup, error)
type OptFollowup func() error

func defaultOpts() []RangerOption {
	return []RangerOption{WithEnv("")}
}

// WithClock sets the retention.Clock every component reads time from.
func WithClock(c retention.Clock) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.clock = c
		return nil, nil
	}
}

// WithConfig replaces reading a Config from environment variables.
func WithConfig(cfg Config) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.cfg = &cfg
		rng.env = cfg.Env
		return nil, nil
	}
}

// WithContext sets the context.Context the web server and background jobs derive from.
func WithContext(ctx context.Context) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.ctx = ctx
		return nil, nil
	}
}

// WithDB supplies the Postgres connection.
//
// WithDB assumes a connection has already been established and migrated.
// The Ranger does not close it.
func WithDB(db *postgres.DB) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.db = db
		return nil, nil
	}
}

// WithEnv casts the provided string into a valid Environment,
// or, reads from the ENVIRONMENT environment variable a valid Environment.
//
// If both fail, the default Environment is set to Development.
func WithEnv(envVar string) RangerOption {
	e := retention.Environment(envVar)
	if err := e.Valid(); err == nil {
		return func(rng *Ranger) (OptFollowup, error) {
			rng.env = e
			return nil, nil
		}
	}

	return func(rng *Ranger) (OptFollowup, error) {
		rng.env = retention.EnvVarOrEnv(environmentEnvVar, retention.Development)
		return nil, nil
	}
}

// WithEraser replaces the erasure pipeline built from ERASURE_* variables.
func WithEraser(e retention.Eraser) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.eraser = e
		return nil, nil
	}
}

// WithLogger sets the logger.Logger used by both the app and background jobs.
func WithLogger(l logger.Logger) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.l = l
		rng.wl = l
		return nil, nil
	}
}

// WithRedis supplies the Redis client.
// The Ranger does not close it.
func WithRedis(client *redis.Client) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		rng.redis = client
		return nil, nil
	}
}

// WithServer constructs a followup option that, when called,
// serves the Ranger's handler with s.
func WithServer(s *http.Server) RangerOption {
	return func(rng *Ranger) (OptFollowup, error) {
		return func() error {
			s.Handler = rng.handler
			rng.srv = s
			return nil
		}, nil
	}
}
